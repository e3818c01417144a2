package entities

import (
	"fmt"

	"github.com/reglet-dev/sexpbridge/internal/abi"
)

// Handle is an opaque reference to a native object. It names an arena slot
// and the generation of that slot at the time the handle was issued; once
// the slot is reclaimed the generation moves on and the handle goes stale.
//
// The zero Handle is the native NULL value.
type Handle struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// NilHandle refers to the native NULL value.
var NilHandle = Handle{}

// IsNil reports whether h refers to the native NULL value.
func (h Handle) IsNil() bool {
	return h.Index == 0
}

// Pack encodes the handle into a single uint64, generation in the high bits.
func (h Handle) Pack() uint64 {
	return uint64(h.Generation)<<32 | uint64(h.Index)
}

// UnpackHandle decodes a value produced by Handle.Pack.
func UnpackHandle(packed uint64) Handle {
	return Handle{
		Index:      uint32(packed),       //nolint:gosec // G115: low 32 bits
		Generation: uint32(packed >> 32), //nolint:gosec // G115: high 32 bits
	}
}

func (h Handle) String() string {
	if h.IsNil() {
		return "<NULL>"
	}
	return fmt.Sprintf("<%d#%d>", h.Index, h.Generation)
}

// StringDescriptor is a (pointer, length) pair describing bytes held in the
// native linear memory. It is built without copying, so it is only as valid
// as the native vector that owns the bytes.
type StringDescriptor struct {
	Ptr uint32 `json:"ptr"`
	Len uint32 `json:"len"`
}

// Pack encodes the descriptor as a packed pointer/length value.
// It panics for a null pointer with a non-zero length.
func (d StringDescriptor) Pack() uint64 {
	return abi.PackPtrLen(d.Ptr, d.Len)
}

// UnpackDescriptor decodes a packed pointer/length value.
func UnpackDescriptor(packed uint64) StringDescriptor {
	ptr, length := abi.UnpackPtrLen(packed)
	return StringDescriptor{Ptr: ptr, Len: length}
}

// IsNull reports whether the descriptor points nowhere.
func (d StringDescriptor) IsNull() bool {
	return d.Ptr == 0
}
