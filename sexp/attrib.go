package sexp

import (
	"context"
	"fmt"

	"github.com/reglet-dev/sexpbridge/domain/entities"
)

// NamesSymbol returns the symbol the names attribute is stored under.
func (r *Runtime) NamesSymbol() entities.Handle { return r.namesSym }

// GetAttrib returns the attribute of h tagged name, or the nil handle.
func (r *Runtime) GetAttrib(h, name entities.Handle) entities.Handle {
	r.derefType("getAttrib", name, entities.SYMSXP)
	for _, a := range r.deref(h).attrs {
		if a.tag == name {
			return a.value
		}
	}
	return entities.NilHandle
}

// SetAttrib sets the attribute of h tagged name. Setting the nil handle
// removes the attribute. The NULL object carries no attributes.
func (r *Runtime) SetAttrib(h, name, value entities.Handle) {
	r.derefType("setAttrib", name, entities.SYMSXP)
	r.deref(value)
	if h.IsNil() {
		r.Error(context.Background(), "attempt to set an attribute on NULL")
	}
	obj := r.deref(h)
	for i, a := range obj.attrs {
		if a.tag != name {
			continue
		}
		if value.IsNil() {
			obj.attrs = append(obj.attrs[:i], obj.attrs[i+1:]...)
		} else {
			obj.attrs[i].value = value
		}
		return
	}
	if !value.IsNil() {
		obj.attrs = append(obj.attrs, attr{tag: name, value: value})
	}
}

// Names returns the names attribute of h, or the nil handle.
func (r *Runtime) Names(h entities.Handle) entities.Handle {
	return r.GetAttrib(h, r.namesSym)
}

// SetNames sets the names attribute. names must be a character vector of
// the same length as h, or the nil handle to remove it.
func (r *Runtime) SetNames(h, names entities.Handle) {
	if !names.IsNil() {
		r.derefType("names<-", names, entities.STRSXP)
		if got, want := r.Length(names), r.Length(h); got != want {
			r.Error(context.Background(), fmt.Sprintf("'names' attribute [%d] must be the same length as the vector [%d]", got, want))
		}
	}
	r.SetAttrib(h, r.namesSym, names)
}

// AttributeCount returns how many attributes h carries.
func (r *Runtime) AttributeCount(h entities.Handle) int {
	return len(r.deref(h).attrs)
}
