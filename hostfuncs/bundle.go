package hostfuncs

import (
	"maps"
	"slices"
)

// HostFuncBundle is a named group of handlers registered together, such as
// the five shim functions.
type HostFuncBundle interface {
	Handlers() map[string]ByteHandler
}

type staticBundle struct {
	handlers map[string]ByteHandler
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

type compositeBundle []HostFuncBundle

func (bs compositeBundle) Handlers() map[string]ByteHandler {
	out := make(map[string]ByteHandler)
	for _, b := range bs {
		maps.Copy(out, b.Handlers())
	}
	return out
}

// CombineBundles returns a bundle containing the handlers of every bundle.
// On a name clash the later bundle wins; register bundles separately with
// WithBundle to have clashes reported instead.
func CombineBundles(bundles ...HostFuncBundle) HostFuncBundle {
	return compositeBundle(bundles)
}

// WithBundle registers every handler of bundle, in name order.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		handlers := bundle.Handlers()
		for _, name := range slices.Sorted(maps.Keys(handlers)) {
			b.add(name, handlers[name])
		}
	}
}

// WithHandler registers fn under name behind NewJSONHandler:
//
//	WithHandler("echo", func(_ context.Context, req wireformat.MessageWire) wireformat.MessageWire {
//	    return req
//	})
func WithHandler[Req any, Resp any](name string, fn HostFunc[Req, Resp]) RegistryOption {
	return func(b *registryBuilder) { b.add(name, NewJSONHandler(fn)) }
}
