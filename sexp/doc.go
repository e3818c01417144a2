// Package sexp is an in-process model of the native interpreter's object
// system, the collaborator on the other side of the boundary adapter.
//
// Objects live in a generation-checked arena and are referred to by
// entities.Handle. Character data (CHARSXP) is interned and stored
// NUL-terminated in a linear memory, so a string descriptor is a real
// offset into that memory. When the memory is a WebAssembly module's
// memory the offsets are guest pointers.
//
// The package reproduces the parts of the interpreter's C API that the
// boundary relies on:
//
//   - allocation and element access for the vector types
//   - the names attribute and generic attributes
//   - the protection stack, preserved objects and an explicit collector
//   - the warning channel, and the error channel which never returns
//   - a top-level boundary that stops an error from unwinding further
//
// Accessors treat contract violations (stale handles, wrong types,
// out-of-range indices) as programming errors and panic with a typed
// error from domain/errors.
//
// Example:
//
//	rt, err := sexp.New(sexp.WithConfig(cfg))
//	if err != nil {
//		return err
//	}
//	err = rt.TopLevel(func() {
//		v, _ := rt.NewCharacter("alpha", "beta")
//		rt.Protect(v)
//		defer rt.Unprotect(1)
//		rt.Warning(ctx, "something odd")
//	})
package sexp
