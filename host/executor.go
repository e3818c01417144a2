package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/reglet-dev/sexpbridge/bridge"
	"github.com/reglet-dev/sexpbridge/hostfuncs"
	hostwazero "github.com/reglet-dev/sexpbridge/infrastructure/wazero"
	"github.com/reglet-dev/sexpbridge/log"
	"github.com/reglet-dev/sexpbridge/sexp"
)

// Executor manages a native runtime and the guests calling into it.
type Executor struct {
	runtime  wazero.Runtime
	arena    *hostwazero.MemoryModule
	rt       *sexp.Runtime
	adapter  *bridge.Adapter
	registry *hostfuncs.HandlerRegistry
	logger   *slog.Logger
	config   executorConfig
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: ParseLevel(cfg.runtime.LogLevel),
		}))
	}

	rt := wazero.NewRuntimeWithConfig(ctx,
		wazero.NewRuntimeConfig().WithMemoryLimitPages(cfg.runtime.MaxPages()))
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	e := &Executor{runtime: rt, logger: cfg.logger, config: cfg}
	if err := e.init(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return e, nil
}

func (e *Executor) init(ctx context.Context) error {
	cfg := e.config.runtime

	arena, err := hostwazero.NewMemoryModule(ctx, e.runtime, ArenaModule, cfg.InitialPages, cfg.MaxPages())
	if err != nil {
		return err
	}
	e.arena = arena

	e.rt, err = sexp.New(
		sexp.WithMemory(arena.Memory()),
		sexp.WithConfig(cfg),
		sexp.WithDiagnosticSink(log.NewSink(e.logger)),
	)
	if err != nil {
		return fmt.Errorf("failed to create native runtime: %w", err)
	}

	adapterOpts := []bridge.Option{bridge.WithLogger(e.logger)}
	if e.config.printer != nil {
		adapterOpts = append(adapterOpts, bridge.WithPrinter(e.config.printer))
	}
	e.adapter = bridge.NewAdapter(e.rt, adapterOpts...)

	regOpts := []hostfuncs.RegistryOption{
		hostfuncs.WithMiddleware(
			hostfuncs.PanicRecoveryMiddleware(),
			hostfuncs.LoggingMiddleware(e.logger),
		),
		hostfuncs.WithBundle(hostfuncs.CombineBundles(
			hostfuncs.ShimBundle(e.adapter),
			hostfuncs.DiagnosticsBundle(e.rt),
		)),
	}
	e.registry, err = hostfuncs.NewRegistry(append(regOpts, e.config.hostOpts...)...)
	if err != nil {
		return fmt.Errorf("failed to create host function registry: %w", err)
	}

	if err := e.registerHostFunctions(ctx); err != nil {
		return fmt.Errorf("failed to register host functions: %w", err)
	}
	return nil
}

// Runtime returns the native runtime.
func (e *Executor) Runtime() *sexp.Runtime {
	return e.rt
}

// Adapter returns the boundary adapter.
func (e *Executor) Adapter() *bridge.Adapter {
	return e.adapter
}

// Registry returns the host function registry.
func (e *Executor) Registry() *hostfuncs.HandlerRegistry {
	return e.registry
}

// Logger returns a logger whose records at warn and above are raised as
// native warnings.
func (e *Executor) Logger() *slog.Logger {
	return slog.New(log.NewWarningHandler(e.rt))
}

// Invoke calls a host function from Go. A native fatal error raised by the
// handler is returned as a *errors.RError.
func (e *Executor) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	var (
		resp    []byte
		callErr error
	)
	if err := e.rt.TopLevel(func() {
		resp, callErr = e.registry.Invoke(ctx, name, payload)
	}); err != nil {
		return nil, err
	}
	return resp, callErr
}

// Close releases resources held by the executor.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// ParseLevel maps a configured log level name to a slog.Level. Unknown
// names give slog.LevelWarn.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelWarn
	}
	return level
}
