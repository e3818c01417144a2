// Package wazero exports the native boundary to WebAssembly guests running
// on the wazero runtime.
//
// Two host modules are available:
//
//   - RegisterShim exports the boundary operations with their native
//     signatures (module "rgo"): objects are packed handles, strings are
//     packed pointer+length spans in linear memory.
//   - RegisterWithRuntime exports every handler of a hostfuncs registry
//     (module "rgo_host") using JSON requests and responses exchanged
//     through the guest's "allocate" export.
//
// NewMemoryModule instantiates a memory-only module so the native runtime's
// arena lives in memory the guest can import and address directly.
//
// # Basic Usage
//
//	runtime := wazero.NewRuntime(ctx)
//	arena, err := wazero.NewMemoryModule(ctx, runtime, "arena", 1, 256)
//	if err != nil {
//	    return err
//	}
//	rt, err := sexp.New(sexp.WithMemory(arena.Memory()))
//	if err != nil {
//	    return err
//	}
//	adapter := bridge.NewAdapter(rt)
//
//	err = wazero.RegisterShim(ctx, runtime, adapter,
//	    wazero.WithFallbackMemory(arena.Memory()),
//	)
//
// # Custom Handlers
//
// For functions that don't fit either pattern, use WithCustomHandler:
//
//	wazero.RegisterShim(ctx, runtime, adapter,
//	    wazero.WithCustomHandler(wazero.CustomHandler{
//	        Name:        "collect",
//	        Handler:     collectHandler,
//	        ParamTypes:  []api.ValueType{},
//	        ResultTypes: []api.ValueType{api.ValueTypeI32},
//	    }),
//	)
package wazero
