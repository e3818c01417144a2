package sexp

import (
	"math"
	"sort"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
	"github.com/reglet-dev/sexpbridge/domain/ports"
)

const (
	// heapBase is the first offset handed out; offset 0 stays the null pointer.
	heapBase  = 8
	heapAlign = 8
)

type block struct {
	ptr, size uint32
}

// heap allocates byte ranges in a linear memory. It keeps a bump pointer
// and an address-ordered free list that is coalesced on every free.
type heap struct {
	mem   ports.LinearMemory
	next  uint32
	free  []block
	live  int
	limit int
}

func newHeap(mem ports.LinearMemory, limit int) *heap {
	return &heap{mem: mem, next: heapBase, limit: limit}
}

func alignUp(n uint32) uint32 {
	return (n + heapAlign - 1) &^ (heapAlign - 1)
}

func (h *heap) alloc(n int) (uint32, error) {
	if n <= 0 || n > math.MaxUint32-heapAlign {
		return 0, &errors.AllocationError{Requested: n, Current: h.live, Limit: h.limit}
	}
	size := alignUp(uint32(n)) //nolint:gosec // G115: checked above
	if h.live+int(size) > h.limit {
		return 0, &errors.AllocationError{Requested: n, Current: h.live, Limit: h.limit}
	}

	for i, b := range h.free {
		if b.size < size {
			continue
		}
		if b.size == size {
			h.free = append(h.free[:i], h.free[i+1:]...)
		} else {
			h.free[i] = block{ptr: b.ptr + size, size: b.size - size}
		}
		h.live += int(size)
		return b.ptr, nil
	}

	end := uint64(h.next) + uint64(size)
	if end > math.MaxUint32 {
		return 0, &errors.AllocationError{Requested: n, Current: h.live, Limit: h.limit}
	}
	if have := uint64(h.mem.Size()); end > have {
		pages := (end - have + entities.PageSize - 1) / entities.PageSize
		if _, ok := h.mem.Grow(uint32(pages)); !ok { //nolint:gosec // G115: end fits in 32 bits
			return 0, &errors.AllocationError{Requested: n, Current: h.live, Limit: h.limit}
		}
	}
	ptr := h.next
	h.next = uint32(end)
	h.live += int(size)
	return ptr, nil
}

func (h *heap) release(ptr uint32, n int) {
	if ptr == 0 || n <= 0 {
		return
	}
	size := alignUp(uint32(n)) //nolint:gosec // G115: allocated sizes fit
	h.live -= int(size)
	if h.live <= 0 {
		h.live = 0
		h.next = heapBase
		h.free = h.free[:0]
		return
	}

	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].ptr > ptr })
	h.free = append(h.free, block{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = block{ptr: ptr, size: size}

	// Merge with the following block, then with the preceding one.
	if i+1 < len(h.free) && h.free[i].ptr+h.free[i].size == h.free[i+1].ptr {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].ptr+h.free[i-1].size == h.free[i].ptr {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
		i--
	}
	// A free block that ends at the bump pointer is handed back to it.
	if last := h.free[len(h.free)-1]; last.ptr+last.size == h.next {
		h.next = last.ptr
		h.free = h.free[:len(h.free)-1]
	}
}
