package bridge

import (
	"bytes"
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
	"github.com/reglet-dev/sexpbridge/domain/ports"
	"github.com/reglet-dev/sexpbridge/internal/abi"
)

// ErrConcurrentCall is the panic cause when the concurrency check catches
// two operations in flight on one adapter.
var ErrConcurrentCall = stdErrors.New("concurrent call into native runtime")

// NotFound is returned by FindNamedIndex when no element carries the name.
const NotFound = -1

// Adapter exposes the boundary operations between host code and a native
// runtime. It neither allocates nor frees native objects.
type Adapter struct {
	rt       ports.NativeRuntime
	printer  ports.Printer
	logger   *slog.Logger
	check    bool
	inFlight atomic.Bool
}

type adapterConfig struct {
	printer ports.Printer
	logger  *slog.Logger
	check   bool
}

// Option configures an Adapter.
type Option func(*adapterConfig)

// WithPrinter sets the host print routine used by DispatchPrint.
func WithPrinter(p ports.Printer) Option {
	return func(c *adapterConfig) {
		if p != nil {
			c.printer = p
		}
	}
}

// WithLogger sets the logger for adapter debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *adapterConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConcurrencyCheck makes every operation panic with ErrConcurrentCall
// when another operation is already in flight on the same adapter.
func WithConcurrencyCheck(enabled bool) Option {
	return func(c *adapterConfig) {
		c.check = enabled
	}
}

// NewAdapter creates an adapter over rt. The default printer writes to stdout.
func NewAdapter(rt ports.NativeRuntime, opts ...Option) *Adapter {
	cfg := adapterConfig{
		printer: NewTextPrinter(os.Stdout),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Adapter{
		rt:      rt,
		printer: cfg.printer,
		logger:  cfg.logger,
		check:   cfg.check,
	}
}

// Runtime returns the native runtime the adapter forwards to.
func (a *Adapter) Runtime() ports.NativeRuntime {
	return a.rt
}

func (a *Adapter) enter(op string) func() {
	if !a.check {
		return func() {}
	}
	if !a.inFlight.CompareAndSwap(false, true) {
		panic(fmt.Errorf("%s: %w", op, ErrConcurrentCall))
	}
	return func() { a.inFlight.Store(false) }
}

// ForwardWarning passes message, read as a C string, to the native warning
// channel and returns.
func (a *Adapter) ForwardWarning(ctx context.Context, message []byte) {
	defer a.enter("forward_warning")()
	a.rt.Warning(ctx, string(abi.CString(message)))
}

// ForwardError passes message, read as a C string, to the native error
// channel. It never returns: control leaves through a *errors.RError panic
// that only the runtime's top-level boundary may recover.
func (a *Adapter) ForwardError(ctx context.Context, message []byte) {
	defer a.enter("forward_error")()
	msg := string(abi.CString(message))
	a.logger.DebugContext(ctx, "forwarding fatal error to native runtime", "message", msg)
	a.rt.Error(ctx, msg)
	panic(&errors.RError{Message: msg})
}

// ExtractString returns the location of element i of the character vector
// vec. Nothing is copied: the descriptor is valid only while vec is.
func (a *Adapter) ExtractString(vec entities.Handle, i int) entities.StringDescriptor {
	defer a.enter("extract_string")()
	return a.rt.CharDescriptor(a.rt.StringElt(vec, i))
}

// HostString returns a Go string sharing memory with the descriptor's
// bytes. It must not outlive the native vector or survive a memory grow.
func (a *Adapter) HostString(desc entities.StringDescriptor) string {
	b := a.view(desc)
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

func (a *Adapter) view(desc entities.StringDescriptor) []byte {
	b, ok := a.rt.Memory().Read(desc.Ptr, desc.Len)
	if !ok {
		panic(&errors.BoundsError{Op: "CHAR", Index: int(desc.Ptr), Length: int(a.rt.Memory().Size())})
	}
	return b
}

// FindNamedIndex returns the index of the first element of list whose
// name equals name, read as a C string. It returns NotFound when list has
// no names, the names are not a character vector, or nothing matches.
func (a *Adapter) FindNamedIndex(list entities.Handle, name []byte) int {
	defer a.enter("find_named_index")()

	names := a.rt.Names(list)
	if names.IsNil() || a.rt.TypeOf(names) != entities.STRSXP {
		return NotFound
	}

	target := abi.CString(name)
	n := min(a.rt.Length(list), a.rt.Length(names))
	for i := 0; i < n; i++ {
		if bytes.Equal(a.view(a.rt.CharDescriptor(a.rt.StringElt(names, i))), target) {
			return i
		}
	}
	return NotFound
}

// DispatchPrint hands obj to the host printer and returns the printed
// value, which is obj unless the printer returned another live object.
// A printer failure is raised through the native error channel.
//
// The printer may call back into the adapter, so the concurrency check
// only guards the entry.
func (a *Adapter) DispatchPrint(ctx context.Context, obj entities.Handle) entities.Handle {
	a.enter("dispatch_print")()
	out, err := a.printer.Print(ctx, a.rt, obj)
	if err != nil {
		a.logger.ErrorContext(ctx, "host print failed", "object", obj.String(), "error", err)
		a.ForwardError(ctx, []byte(err.Error()))
	}
	if out.IsNil() || !a.rt.IsLive(out) {
		return obj
	}
	return out
}
