// Package abi implements the packed pointer/length encoding used on every
// call across the native boundary, and the C string conventions of the
// native side.
package abi

import (
	"bytes"
	"fmt"
)

// PtrHighBits is the shift applied to the pointer half of a packed value.
const PtrHighBits = 32

// PackPtrLen packs a pointer and length into a single uint64.
// Pointer is stored in the high 32 bits, length in the low 32 bits.
// Panics if ptr is 0 and length > 0, indicating an invalid state.
func PackPtrLen(ptr, length uint32) uint64 {
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: invalid pack - null pointer (0x0) with non-zero length (%d)", length))
	}
	return (uint64(ptr) << PtrHighBits) | uint64(length)
}

// UnpackPtrLen unpacks a uint64 into its original pointer and length.
// Panics if ptr is 0 and length > 0, indicating an invalid packed value.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> PtrHighBits) //nolint:gosec // G115: high 32 bits
	length = uint32(packed)             //nolint:gosec // G115: low 32 bits
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: invalid unpack - null pointer (0x0) with non-zero length (%d)", length))
	}
	return ptr, length
}

// CString returns the bytes of b up to, not including, the first NUL.
// A byte slice without a terminator is taken whole. No copy is made.
func CString(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// AppendNUL returns b followed by a NUL terminator in a new slice.
func AppendNUL(b []byte) []byte {
	out := make([]byte, len(b)+1)
	copy(out, b)
	return out
}
