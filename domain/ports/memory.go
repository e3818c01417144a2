package ports

// LinearMemory is a flat, byte-addressed memory that grows in pages.
// Offsets into it are the pointers handed across the boundary.
//
// The method set is a subset of wazero's api.Memory, so a WebAssembly
// module's memory can back the native runtime directly.
type LinearMemory interface {
	// Size returns the size in bytes.
	Size() uint32

	// Grow adds deltaPages pages and returns the previous page count.
	Grow(deltaPages uint32) (previousPages uint32, ok bool)

	// Read returns a view of byteCount bytes at offset. The view is not a
	// copy and is invalidated by Grow.
	Read(offset, byteCount uint32) ([]byte, bool)

	// Write copies v into memory at offset.
	Write(offset uint32, v []byte) bool
}
