// Package hostfuncs exposes the native boundary as named host functions
// that take and return JSON. It has no WASM runtime dependencies: the
// registry can be driven directly, or exported to a guest by
// infrastructure/wazero.
//
// ShimBundle registers R_warning, R_error, R_gostring, getListElementIndex
// and print_sexp over a bridge.Adapter.
package hostfuncs
