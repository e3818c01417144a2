// Package host runs WebAssembly guests against a native runtime.
//
// An Executor owns a wazero runtime, the linear memory holding the native
// arena, the runtime itself and the boundary adapter. It exports the shim
// functions (module "rgo" by default) and the JSON host function registry
// (module "rgo_host") so guests can import either.
package host
