package ports

import (
	"context"

	"github.com/reglet-dev/sexpbridge/domain/entities"
)

// NativeRuntime is the slice of the embedded interpreter's C API that the
// boundary adapter consumes.
//
// Accessors do not check their preconditions beyond what is needed to fail
// loudly: a stale handle, a wrong type or an out-of-range index panics with
// a typed error from domain/errors.
type NativeRuntime interface {
	// TypeOf returns the type code of the object.
	TypeOf(h entities.Handle) entities.SEXPType

	// Length returns the element count of a vector, or 0 for other objects.
	Length(h entities.Handle) int

	// Info summarises the object for display.
	Info(h entities.Handle) entities.Info

	// StringElt returns element i of a character vector (a CHARSXP).
	StringElt(h entities.Handle, i int) entities.Handle

	// CharDescriptor returns the location of a CHARSXP's bytes.
	CharDescriptor(h entities.Handle) entities.StringDescriptor

	// Memory returns the linear memory holding CHARSXP bytes.
	Memory() LinearMemory

	// Names returns the names attribute of the object, or the nil handle.
	Names(h entities.Handle) entities.Handle

	// IsLive reports whether the handle names a live object.
	IsLive(h entities.Handle) bool

	// Warning emits a non-fatal diagnostic and returns.
	Warning(ctx context.Context, msg string)

	// Error emits a fatal diagnostic and never returns.
	Error(ctx context.Context, msg string)
}

// VectorReader is implemented by runtimes that expose the data of atomic
// vectors. Callers type-assert a NativeRuntime to it when they need more
// than character data.
type VectorReader interface {
	Integers(h entities.Handle) []int32
	Logicals(h entities.Handle) []int32
	Reals(h entities.Handle) []float64
	Complexes(h entities.Handle) []complex128
	RawBytes(h entities.Handle) []byte
	CharBytes(h entities.Handle) []byte
}
