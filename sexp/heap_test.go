package sexp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
)

func TestSlab(t *testing.T) {
	s := NewSlab(1, 2)
	assert.Equal(t, uint32(entities.PageSize), s.Size())

	require.True(t, s.Write(10, []byte("abc")))
	b, ok := s.Read(10, 3)
	require.True(t, ok)
	assert.Equal(t, "abc", string(b))

	_, ok = s.Read(entities.PageSize-1, 2)
	assert.False(t, ok)
	assert.False(t, s.Write(entities.PageSize-1, []byte("ab")))

	prev, ok := s.Grow(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), prev)
	assert.Equal(t, uint32(2*entities.PageSize), s.Size())

	b, ok = s.Read(10, 3)
	require.True(t, ok)
	assert.Equal(t, "abc", string(b), "grow preserves contents")

	_, ok = s.Grow(1)
	assert.False(t, ok, "max pages reached")
}

func TestHeap_AllocAlignsAndSkipsNull(t *testing.T) {
	h := newHeap(NewSlab(1, 1), entities.PageSize)

	a, err := h.alloc(3)
	require.NoError(t, err)
	b, err := h.alloc(9)
	require.NoError(t, err)

	assert.Equal(t, uint32(heapBase), a)
	assert.Equal(t, uint32(heapBase+8), b)
	assert.Equal(t, 24, h.live)
}

func TestHeap_ReusesFreedBlocks(t *testing.T) {
	h := newHeap(NewSlab(1, 1), entities.PageSize)

	a, err := h.alloc(16)
	require.NoError(t, err)
	b, err := h.alloc(16)
	require.NoError(t, err)
	_, err = h.alloc(16)
	require.NoError(t, err)

	h.release(a, 16)
	h.release(b, 16)
	require.Len(t, h.free, 1, "adjacent blocks coalesce")
	assert.Equal(t, block{ptr: a, size: 32}, h.free[0])

	c, err := h.alloc(24)
	require.NoError(t, err)
	assert.Equal(t, a, c, "first fit")
	assert.Equal(t, block{ptr: a + 24, size: 8}, h.free[0])
}

func TestHeap_ReturnsTailToBumpPointer(t *testing.T) {
	h := newHeap(NewSlab(1, 1), entities.PageSize)

	a, err := h.alloc(8)
	require.NoError(t, err)
	b, err := h.alloc(8)
	require.NoError(t, err)

	h.release(b, 8)
	assert.Empty(t, h.free)
	assert.Equal(t, b, h.next)

	h.release(a, 8)
	assert.Equal(t, uint32(heapBase), h.next)
	assert.Zero(t, h.live)
}

func TestHeap_Limits(t *testing.T) {
	t.Run("live byte limit", func(t *testing.T) {
		h := newHeap(NewSlab(1, 4), 64)
		_, err := h.alloc(64)
		require.NoError(t, err)

		_, err = h.alloc(1)
		var allocErr *errors.AllocationError
		require.ErrorAs(t, err, &allocErr)
		assert.Equal(t, 64, allocErr.Current)
	})

	t.Run("memory cannot grow", func(t *testing.T) {
		h := newHeap(NewSlab(1, 1), 4*entities.PageSize)
		_, err := h.alloc(entities.PageSize)
		assert.Error(t, err)
	})

	t.Run("non-positive size", func(t *testing.T) {
		h := newHeap(NewSlab(1, 1), entities.PageSize)
		_, err := h.alloc(0)
		assert.Error(t, err)
	})
}
