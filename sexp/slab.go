package sexp

import "github.com/reglet-dev/sexpbridge/domain/entities"

// Slab is an in-process LinearMemory backed by a Go byte slice. It behaves
// like a WebAssembly memory: it grows in whole pages and a grow may move
// the backing array, invalidating earlier Read views.
type Slab struct {
	buf      []byte
	maxPages uint32
}

// NewSlab returns a slab of initialPages pages that may grow to maxPages.
func NewSlab(initialPages, maxPages uint32) *Slab {
	if maxPages < initialPages {
		maxPages = initialPages
	}
	return &Slab{
		buf:      make([]byte, int(initialPages)*entities.PageSize),
		maxPages: maxPages,
	}
}

// Size returns the size in bytes.
func (s *Slab) Size() uint32 {
	return uint32(len(s.buf)) //nolint:gosec // G115: at most 65536 pages
}

// Grow adds deltaPages pages, returning the previous page count.
func (s *Slab) Grow(deltaPages uint32) (uint32, bool) {
	prev := s.Size() / entities.PageSize
	if uint64(prev)+uint64(deltaPages) > uint64(s.maxPages) {
		return prev, false
	}
	if deltaPages == 0 {
		return prev, true
	}
	grown := make([]byte, int(prev+deltaPages)*entities.PageSize)
	copy(grown, s.buf)
	s.buf = grown
	return prev, true
}

// Read returns a view of byteCount bytes at offset.
func (s *Slab) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(s.buf)) {
		return nil, false
	}
	return s.buf[offset:end:end], true
}

// Write copies v into the slab at offset.
func (s *Slab) Write(offset uint32, v []byte) bool {
	end := uint64(offset) + uint64(len(v))
	if end > uint64(len(s.buf)) {
		return false
	}
	copy(s.buf[offset:end], v)
	return true
}
