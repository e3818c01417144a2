package hostfuncs

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// HandlerRegistry maps host function names (R_warning, print_sexp, ...) to
// their handlers, each already wrapped in the registry's middleware. The
// map is fixed when NewRegistry returns, so Invoke takes no lock.
type HandlerRegistry struct {
	handlers map[string]ByteHandler
	names    []string
}

// RegistryOption contributes handlers or middleware to NewRegistry.
type RegistryOption func(*registryBuilder)

type registryBuilder struct {
	handlers   map[string]ByteHandler
	middleware []Middleware
	err        error
}

// add records name, keeping the first error seen.
func (b *registryBuilder) add(name string, h ByteHandler) {
	if b.err != nil {
		return
	}
	switch _, taken := b.handlers[name]; {
	case name == "":
		b.err = fmt.Errorf("handler name cannot be empty")
	case taken:
		b.err = fmt.Errorf("duplicate handler name: %q", name)
	default:
		b.handlers[name] = h
	}
}

// NewRegistry applies opts and freezes the result. A name registered twice
// or left empty is an error; a registry the executor builds is
//
//	NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware(), LoggingMiddleware(logger)),
//	    WithBundle(CombineBundles(ShimBundle(adapter), DiagnosticsBundle(rt))),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{handlers: make(map[string]ByteHandler)}
	for _, opt := range opts {
		opt(b)
	}
	if b.err != nil {
		return nil, fmt.Errorf("invalid host function registry: %w", b.err)
	}

	reg := &HandlerRegistry{
		handlers: make(map[string]ByteHandler, len(b.handlers)),
		names:    slices.Sorted(maps.Keys(b.handlers)),
	}
	for name, h := range b.handlers {
		reg.handlers[name] = chain(h, b.middleware)
	}
	return reg, nil
}

// chain wraps h so that mw[0] sees a call first and its result last.
func chain(h ByteHandler, mw []Middleware) ByteHandler {
	for _, m := range slices.Backward(mw) {
		h = m(h)
	}
	return h
}

// Invoke runs the handler registered under name with a HostContext naming
// it. An unknown name is answered with a NOT_FOUND ErrorResponse, not a Go
// error. A native fatal error raised by the handler is not recovered here.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	h, ok := r.handlers[name]
	if !ok {
		return NewNotFoundError(name).ToJSON(), nil
	}
	return h(HostContextFrom(ctx, name), payload)
}

// Has reports whether name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered names in sorted order. The slice is a copy.
func (r *HandlerRegistry) Names() []string {
	return slices.Clone(r.names)
}

// WithByteHandler registers h under name as is. WithHandler is the typed
// JSON variant.
func WithByteHandler(name string, h ByteHandler) RegistryOption {
	return func(b *registryBuilder) { b.add(name, h) }
}

// WithMiddleware appends mw to the chain every handler is wrapped in.
// Middleware from earlier calls and earlier arguments sits further out.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
