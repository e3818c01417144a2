package sexp

import (
	"bytes"
	"context"
	"math"
	"strings"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
	"github.com/reglet-dev/sexpbridge/internal/abi"
)

// Missing-value markers of the integer and logical vector types.
const (
	NAInteger int32 = math.MinInt32
	NALogical int32 = math.MinInt32
)

// NAReal is the missing-value marker of double vectors: a NaN with low
// word 1954.
var NAReal = math.Float64frombits(0x7FF00000000007A2)

// IsNAReal reports whether f is NAReal rather than an ordinary NaN.
func IsNAReal(f float64) bool {
	return math.IsNaN(f) && uint32(math.Float64bits(f)) == 1954 //nolint:gosec // G115: low word
}

// newChar allocates a CHARSXP without consulting the cache.
func (r *Runtime) newChar(b []byte) (entities.Handle, error) {
	ptr, err := r.heap.alloc(len(b) + 1)
	if err != nil {
		return entities.NilHandle, err
	}
	r.mem.Write(ptr, abi.AppendNUL(b))
	return r.alloc(&object{typ: entities.CHARSXP, ptr: ptr, length: len(b)}), nil
}

// MkChar returns the CHARSXP for s, reusing the cached one when the same
// bytes are already live.
func (r *Runtime) MkChar(s string) (entities.Handle, error) {
	return r.MkCharBytes([]byte(s))
}

// MkCharBytes is MkChar for a byte slice. The bytes are copied. Bytes
// containing a NUL raise a native error, since a CHARSXP is read back as a
// NUL-terminated string.
func (r *Runtime) MkCharBytes(b []byte) (entities.Handle, error) {
	if bytes.IndexByte(b, 0) >= 0 {
		r.Error(context.Background(),
			"embedded nul in string: '"+strings.ReplaceAll(string(b), "\x00", `\0`)+"'")
	}
	if h, ok := r.cache[string(b)]; ok {
		return h, nil
	}
	h, err := r.newChar(b)
	if err != nil {
		return entities.NilHandle, err
	}
	r.cache[string(b)] = h
	return h, nil
}

// NAString returns the missing-value CHARSXP. Its bytes read "NA" but it is
// a different object from MkChar("NA").
func (r *Runtime) NAString() entities.Handle { return r.naString }

// BlankString returns the empty CHARSXP.
func (r *Runtime) BlankString() entities.Handle { return r.blank }

// NewString allocates a character vector of n empty strings.
func (r *Runtime) NewString(n int) entities.Handle {
	strs := make([]entities.Handle, n)
	for i := range strs {
		strs[i] = r.blank
	}
	return r.alloc(&object{typ: entities.STRSXP, strs: strs})
}

// NewCharacter allocates a character vector holding strs.
func (r *Runtime) NewCharacter(strs ...string) (entities.Handle, error) {
	elts := make([]entities.Handle, len(strs))
	for i, s := range strs {
		ch, err := r.MkChar(s)
		if err != nil {
			return entities.NilHandle, err
		}
		elts[i] = ch
	}
	return r.alloc(&object{typ: entities.STRSXP, strs: elts}), nil
}

// NewList allocates a generic vector of n NULL elements.
func (r *Runtime) NewList(n int) entities.Handle {
	return r.alloc(&object{typ: entities.VECSXP, elts: make([]entities.Handle, n)})
}

// NewInteger allocates an integer vector holding a copy of v.
func (r *Runtime) NewInteger(v ...int32) entities.Handle {
	return r.alloc(&object{typ: entities.INTSXP, ints: append([]int32{}, v...)})
}

// NewLogical allocates a logical vector. NALogical marks missing values.
func (r *Runtime) NewLogical(v ...int32) entities.Handle {
	return r.alloc(&object{typ: entities.LGLSXP, ints: append([]int32{}, v...)})
}

// NewReal allocates a double vector holding a copy of v.
func (r *Runtime) NewReal(v ...float64) entities.Handle {
	return r.alloc(&object{typ: entities.REALSXP, reals: append([]float64{}, v...)})
}

// NewComplex allocates a complex vector holding a copy of v.
func (r *Runtime) NewComplex(v ...complex128) entities.Handle {
	return r.alloc(&object{typ: entities.CPLXSXP, cplx: append([]complex128{}, v...)})
}

// NewRaw allocates a raw vector holding a copy of b.
func (r *Runtime) NewRaw(b []byte) entities.Handle {
	return r.alloc(&object{typ: entities.RAWSXP, raw: append([]byte{}, b...)})
}

// Symbol returns the interned symbol for name. Symbols are never collected.
func (r *Runtime) Symbol(name string) entities.Handle {
	if h, ok := r.symbols[name]; ok {
		return h
	}
	h := r.alloc(&object{typ: entities.SYMSXP, name: name})
	r.symbols[name] = h
	return h
}

// SymbolName returns the print name of a symbol.
func (r *Runtime) SymbolName(h entities.Handle) string {
	return r.derefType("PRINTNAME", h, entities.SYMSXP).name
}

// ScalarString allocates a length-one character vector.
func (r *Runtime) ScalarString(s string) (entities.Handle, error) {
	return r.NewCharacter(s)
}

// ScalarInteger allocates a length-one integer vector.
func (r *Runtime) ScalarInteger(v int32) entities.Handle { return r.NewInteger(v) }

// ScalarReal allocates a length-one double vector.
func (r *Runtime) ScalarReal(v float64) entities.Handle { return r.NewReal(v) }

// ScalarLogical allocates a length-one logical vector.
func (r *Runtime) ScalarLogical(v bool) entities.Handle {
	if v {
		return r.NewLogical(1)
	}
	return r.NewLogical(0)
}

// TypeOf returns the type code of the object.
func (r *Runtime) TypeOf(h entities.Handle) entities.SEXPType {
	return r.deref(h).typ
}

// Length returns the element count of a vector. A CHARSXP reports its byte
// count and a symbol reports 1.
func (r *Runtime) Length(h entities.Handle) int {
	obj := r.deref(h)
	switch obj.typ {
	case entities.CHARSXP:
		return obj.length
	case entities.STRSXP:
		return len(obj.strs)
	case entities.VECSXP:
		return len(obj.elts)
	case entities.INTSXP, entities.LGLSXP:
		return len(obj.ints)
	case entities.REALSXP:
		return len(obj.reals)
	case entities.CPLXSXP:
		return len(obj.cplx)
	case entities.RAWSXP:
		return len(obj.raw)
	case entities.SYMSXP:
		return 1
	}
	return 0
}

// Info summarises the object for display.
func (r *Runtime) Info(h entities.Handle) entities.Info {
	obj := r.deref(h)
	return entities.Info{
		Type:       obj.typ,
		Length:     r.Length(h),
		Attributes: len(obj.attrs),
		Protected:  r.isProtected(h),
	}
}

func (r *Runtime) checkIndex(op string, i, n int) {
	if i < 0 || i >= n {
		panic(&errors.BoundsError{Op: op, Index: i, Length: n})
	}
}

// StringElt returns element i of a character vector.
func (r *Runtime) StringElt(h entities.Handle, i int) entities.Handle {
	obj := r.derefType("STRING_ELT", h, entities.STRSXP)
	r.checkIndex("STRING_ELT", i, len(obj.strs))
	return obj.strs[i]
}

// SetStringElt stores the CHARSXP ch as element i of a character vector.
func (r *Runtime) SetStringElt(h entities.Handle, i int, ch entities.Handle) {
	obj := r.derefType("SET_STRING_ELT", h, entities.STRSXP)
	r.checkIndex("SET_STRING_ELT", i, len(obj.strs))
	r.derefType("SET_STRING_ELT", ch, entities.CHARSXP)
	obj.strs[i] = ch
}

// VectorElt returns element i of a generic vector.
func (r *Runtime) VectorElt(h entities.Handle, i int) entities.Handle {
	obj := r.derefType("VECTOR_ELT", h, entities.VECSXP)
	r.checkIndex("VECTOR_ELT", i, len(obj.elts))
	return obj.elts[i]
}

// SetVectorElt stores v as element i of a generic vector.
func (r *Runtime) SetVectorElt(h entities.Handle, i int, v entities.Handle) {
	obj := r.derefType("SET_VECTOR_ELT", h, entities.VECSXP)
	r.checkIndex("SET_VECTOR_ELT", i, len(obj.elts))
	r.deref(v)
	obj.elts[i] = v
}

// CharDescriptor returns the location of a CHARSXP's bytes in linear
// memory. The terminating NUL is not counted in Len.
func (r *Runtime) CharDescriptor(h entities.Handle) entities.StringDescriptor {
	obj := r.derefType("CHAR", h, entities.CHARSXP)
	return entities.StringDescriptor{Ptr: obj.ptr, Len: uint32(obj.length)} //nolint:gosec // G115: bounded by memory size
}

// CharBytes returns a view of a CHARSXP's bytes. The view aliases linear
// memory and must not be modified or kept past the next allocation.
func (r *Runtime) CharBytes(h entities.Handle) []byte {
	d := r.CharDescriptor(h)
	b, ok := r.mem.Read(d.Ptr, d.Len)
	if !ok {
		panic(&errors.BoundsError{Op: "CHAR", Index: int(d.Ptr), Length: int(r.mem.Size())})
	}
	return b
}

// Integers returns the backing slice of an integer vector.
func (r *Runtime) Integers(h entities.Handle) []int32 {
	return r.derefType("INTEGER", h, entities.INTSXP).ints
}

// Logicals returns the backing slice of a logical vector.
func (r *Runtime) Logicals(h entities.Handle) []int32 {
	return r.derefType("LOGICAL", h, entities.LGLSXP).ints
}

// Reals returns the backing slice of a double vector.
func (r *Runtime) Reals(h entities.Handle) []float64 {
	return r.derefType("REAL", h, entities.REALSXP).reals
}

// Complexes returns the backing slice of a complex vector.
func (r *Runtime) Complexes(h entities.Handle) []complex128 {
	return r.derefType("COMPLEX", h, entities.CPLXSXP).cplx
}

// RawBytes returns the backing slice of a raw vector.
func (r *Runtime) RawBytes(h entities.Handle) []byte {
	return r.derefType("RAW", h, entities.RAWSXP).raw
}
