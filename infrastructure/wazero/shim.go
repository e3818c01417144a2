package wazero

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/sexpbridge/bridge"
	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/hostfuncs"
)

// RegisterShim exports the adapter's boundary operations with their native
// signatures on a host module (default "rgo"):
//
//	R_warning(msg i64)                      packed ptr+len of the message
//	R_error(msg i64)                        never returns
//	R_gostring(vec i64, index i32) i64      packed ptr+len of the element
//	getListElementIndex(list i64, name i64) i32
//	print_sexp(obj i64) i64
//
// Objects travel as packed handles (entities.Handle.Pack). Message and
// name bytes are read from the memory set with WithFallbackMemory, else
// from the caller's own, and may be NUL terminated.
// A read that is out of bounds or larger than MaxRequestSize is raised as
// a native error. Native errors and contract violations abort the guest
// call and are reported as its error.
func RegisterShim(ctx context.Context, runtime wazero.Runtime, adapter *bridge.Adapter, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig(DefaultShimModule)
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &shim{adapter: adapter, cfg: &cfg}

	i64 := api.ValueTypeI64
	i32 := api.ValueTypeI32
	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(s.warning), []api.ValueType{i64}, nil).
		Export(hostfuncs.WarningFunc)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(s.error), []api.ValueType{i64}, nil).
		Export(hostfuncs.ErrorFunc)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(s.stringElt), []api.ValueType{i64, i32}, []api.ValueType{i64}).
		Export(hostfuncs.StringEltFunc)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(s.listIndex), []api.ValueType{i64, i64}, []api.ValueType{i32}).
		Export(hostfuncs.ListIndexFunc)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(s.print), []api.ValueType{i64}, []api.ValueType{i64}).
		Export(hostfuncs.PrintFunc)

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("failed to instantiate shim module %s: %w", cfg.ModuleName, err)
	}
	return nil
}

type shim struct {
	adapter *bridge.Adapter
	cfg     *AdapterConfig
}

// bytes reads the packed span from the caller. Failures are native errors.
func (s *shim) bytes(ctx context.Context, mod api.Module, fn string, packed uint64) []byte {
	b, errResp, ok := readRequest(mod, packed, s.cfg)
	if !ok {
		s.cfg.Logger.ErrorContext(ctx, "wazero: "+errResp.Message, "function", fn, "caller", callerName(ctx, mod))
		s.adapter.ForwardError(ctx, []byte(fn+": "+errResp.Message))
	}
	return b
}

func (s *shim) warning(ctx context.Context, mod api.Module, stack []uint64) {
	s.adapter.ForwardWarning(ctx, s.bytes(ctx, mod, hostfuncs.WarningFunc, stack[0]))
}

func (s *shim) error(ctx context.Context, mod api.Module, stack []uint64) {
	s.adapter.ForwardError(ctx, s.bytes(ctx, mod, hostfuncs.ErrorFunc, stack[0]))
}

func (s *shim) stringElt(_ context.Context, _ api.Module, stack []uint64) {
	vec := entities.UnpackHandle(stack[0])
	index := api.DecodeI32(stack[1])
	stack[0] = s.adapter.ExtractString(vec, int(index)).Pack()
}

func (s *shim) listIndex(ctx context.Context, mod api.Module, stack []uint64) {
	list := entities.UnpackHandle(stack[0])
	name := s.bytes(ctx, mod, hostfuncs.ListIndexFunc, stack[1])
	stack[0] = api.EncodeI32(int32(s.adapter.FindNamedIndex(list, name))) //nolint:gosec // G115: bounded by vector length
}

func (s *shim) print(ctx context.Context, _ api.Module, stack []uint64) {
	obj := entities.UnpackHandle(stack[0])
	stack[0] = s.adapter.DispatchPrint(ctx, obj).Pack()
}
