package sexp

import (
	"context"
	"fmt"

	"github.com/reglet-dev/sexpbridge/domain/entities"
)

// Protect pushes h onto the protection stack and returns it. Overflowing
// the stack raises an error through the fatal channel.
func (r *Runtime) Protect(h entities.Handle) entities.Handle {
	r.deref(h)
	if len(r.protect) >= r.cfg.ProtectStackSize {
		r.Error(context.Background(), "protect(): protection stack overflow")
	}
	r.protect = append(r.protect, h)
	return h
}

// Unprotect pops n handles off the protection stack.
func (r *Runtime) Unprotect(n int) {
	if n > len(r.protect) {
		r.Error(context.Background(), fmt.Sprintf("unprotect(): only %d protected items", len(r.protect)))
	}
	r.protect = r.protect[:len(r.protect)-n]
}

// ProtectDepth returns the number of handles on the protection stack.
func (r *Runtime) ProtectDepth() int {
	return len(r.protect)
}

// PreserveObject keeps h alive until a matching ReleaseObject.
func (r *Runtime) PreserveObject(h entities.Handle) {
	r.deref(h)
	r.preserved[h]++
}

// ReleaseObject undoes one PreserveObject.
func (r *Runtime) ReleaseObject(h entities.Handle) {
	switch n := r.preserved[h]; {
	case n > 1:
		r.preserved[h] = n - 1
	case n == 1:
		delete(r.preserved, h)
	}
}

func (r *Runtime) isProtected(h entities.Handle) bool {
	if r.preserved[h] > 0 {
		return true
	}
	for _, p := range r.protect {
		if p == h {
			return true
		}
	}
	return false
}

// Collect reclaims every object not reachable from the protection stack,
// the preserved set, the symbol table or the distinguished strings, and
// returns how many were freed. Handles to reclaimed objects go stale.
//
// Collection never happens implicitly; callers decide when it is safe.
func (r *Runtime) Collect() int {
	var stack []entities.Handle
	push := func(h entities.Handle) {
		if h.IsNil() {
			return
		}
		if obj := r.slots[h.Index].obj; obj != nil && !obj.marked {
			obj.marked = true
			stack = append(stack, h)
		}
	}

	push(r.naString)
	push(r.blank)
	for _, h := range r.symbols {
		push(h)
	}
	for h := range r.preserved {
		push(h)
	}
	for _, h := range r.protect {
		push(h)
	}

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		obj := r.slots[h.Index].obj
		for _, e := range obj.strs {
			push(e)
		}
		for _, e := range obj.elts {
			push(e)
		}
		for _, a := range obj.attrs {
			push(a.tag)
			push(a.value)
		}
	}

	freed := 0
	for i := 1; i < len(r.slots); i++ {
		obj := r.slots[i].obj
		if obj == nil {
			continue
		}
		if obj.marked {
			obj.marked = false
			continue
		}
		h := entities.Handle{Index: uint32(i), Generation: r.slots[i].gen} //nolint:gosec // G115: slot index
		if obj.typ == entities.CHARSXP {
			key := r.CharBytes(h)
			if r.cache[string(key)] == h {
				delete(r.cache, string(key))
			}
		}
		r.release(h)
		freed++
	}
	return freed
}
