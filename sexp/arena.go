package sexp

import (
	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
)

// object is the in-arena representation of a native value. Only the fields
// that belong to its type are populated.
type object struct {
	typ entities.SEXPType

	// CHARSXP: ptr is the offset of the NUL-terminated bytes, length the
	// byte count without the terminator.
	ptr    uint32
	length int

	strs  []entities.Handle // STRSXP
	elts  []entities.Handle // VECSXP
	ints  []int32           // INTSXP, LGLSXP
	reals []float64
	cplx  []complex128
	raw   []byte

	name  string // SYMSXP
	attrs []attr

	marked bool
}

type attr struct {
	tag   entities.Handle
	value entities.Handle
}

type slot struct {
	obj *object
	gen uint32
}

func (r *Runtime) alloc(obj *object) entities.Handle {
	if n := len(r.freeSlots); n > 0 {
		idx := r.freeSlots[n-1]
		r.freeSlots = r.freeSlots[:n-1]
		r.slots[idx].obj = obj
		return entities.Handle{Index: idx, Generation: r.slots[idx].gen}
	}
	idx := uint32(len(r.slots)) //nolint:gosec // G115: slot count stays far below 2^32
	r.slots = append(r.slots, slot{obj: obj, gen: 1})
	return entities.Handle{Index: idx, Generation: 1}
}

// release frees the slot and the object's linear memory. Every handle to
// the slot is stale afterwards.
func (r *Runtime) release(h entities.Handle) {
	s := &r.slots[h.Index]
	if s.obj.typ == entities.CHARSXP {
		r.heap.release(s.obj.ptr, s.obj.length+1)
	}
	s.obj = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	r.freeSlots = append(r.freeSlots, h.Index)
}

// deref resolves a handle, panicking with *errors.HandleError when it does
// not name a live object.
func (r *Runtime) deref(h entities.Handle) *object {
	if h.IsNil() {
		return r.slots[0].obj
	}
	if int(h.Index) >= len(r.slots) {
		panic(&errors.HandleError{Index: h.Index, Generation: h.Generation})
	}
	s := r.slots[h.Index]
	if s.obj == nil || s.gen != h.Generation {
		panic(&errors.HandleError{Index: h.Index, Generation: h.Generation, Current: s.gen})
	}
	return s.obj
}

func (r *Runtime) derefType(op string, h entities.Handle, want entities.SEXPType) *object {
	obj := r.deref(h)
	if obj.typ != want {
		panic(&errors.TypeError{Op: op, Want: want, Got: obj.typ})
	}
	return obj
}

// IsLive reports whether h names a live object. The nil handle is live.
func (r *Runtime) IsLive(h entities.Handle) bool {
	if h.IsNil() {
		return true
	}
	if int(h.Index) >= len(r.slots) {
		return false
	}
	s := r.slots[h.Index]
	return s.obj != nil && s.gen == h.Generation
}
