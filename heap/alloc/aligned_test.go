package alloc

import (
	"testing"

	"github.com/joshuapare/buddykit/heap"
	"github.com/joshuapare/buddykit/internal/format"
	"github.com/stretchr/testify/require"
)

func TestAllocAligned_ShiftsPayload(t *testing.T) {
	a, region := newCompact(t, 4096)

	ref, buf, err := a.AllocAligned(100, 256)
	require.NoError(t, err)
	require.Equal(t, Ref(256), ref)
	require.Len(t, buf, 100)
	require.Zero(t, heap.Addr(buf)%256)

	delta, ok := format.ReadShim(region, uint64(ref))
	require.True(t, ok)
	require.Equal(t, uint32(256), delta)

	usable, err := a.UsableSize(ref)
	require.NoError(t, err)
	require.Equal(t, uint64(256), usable)
	require.Equal(t, 1, a.Stats().AlignedAllocs)

	require.NoError(t, a.Free(ref))
	require.Equal(t, map[int]int{12: 1}, freeSizes(a))
	_, ok = format.ReadShim(region, uint64(ref))
	require.False(t, ok, "Free must clear the shim")
}

func TestAllocAligned_SmallAlignmentUsesAlloc(t *testing.T) {
	a, _ := newCompact(t, 1024)
	for _, align := range []int{1, 8, 16} {
		ref, buf, err := a.AllocAligned(40, align)
		require.NoError(t, err)
		require.Len(t, buf, 40)
		require.Zero(t, heap.Addr(buf)%uintptr(align))
		require.NoError(t, a.Free(ref))
	}
	require.Equal(t, 3, a.Stats().AlignedAllocs)
	require.Equal(t, map[int]int{10: 1}, freeSizes(a))
}

func TestAllocAligned_InnerBlock(t *testing.T) {
	a, region := newCompact(t, 4096)

	first, _, err := a.Alloc(8)
	require.NoError(t, err)

	// Served from the class-7 block at 128; the plain payload at 144 is
	// shifted up to 192.
	ref, buf, err := a.AllocAligned(30, 64)
	require.NoError(t, err)
	require.Equal(t, Ref(192), ref)
	require.Zero(t, heap.Addr(buf)%64)

	delta, ok := format.ReadShim(region, uint64(ref))
	require.True(t, ok)
	require.Equal(t, uint32(64), delta)

	require.NoError(t, a.Free(ref))
	require.NoError(t, a.Free(first))
	require.Equal(t, map[int]int{12: 1}, freeSizes(a))
}

func TestAllocAligned_Errors(t *testing.T) {
	a, _ := newCompact(t, 1024)

	for _, align := range []int{0, -8, 3, 48, MaxAlignment * 2} {
		_, _, err := a.AllocAligned(10, align)
		require.ErrorIs(t, err, ErrBadAlignment, "align=%d", align)
	}
	_, _, err := a.AllocAligned(0, 256)
	require.ErrorIs(t, err, ErrZeroSize)

	_, _, err = a.AllocAligned(600, 512)
	require.ErrorIs(t, err, ErrNoSpace)
	require.Equal(t, map[int]int{10: 1}, freeSizes(a))
}

func TestAllocAligned_Mixed(t *testing.T) {
	a, _ := newCompact(t, 1<<16)

	var refs []Ref
	aligns := []int{32, 64, 128, 256, 512, 1024, 4096}
	for i, align := range aligns {
		ref, buf, err := a.AllocAligned(50+i*40, align)
		require.NoError(t, err)
		require.Zero(t, heap.Addr(buf)%uintptr(align), "align=%d", align)
		for j := range buf {
			buf[j] = 0xEE
		}
		refs = append(refs, ref)
	}
	for _, ref := range refs {
		require.NoError(t, a.Free(ref))
	}
	require.Equal(t, map[int]int{16: 1}, freeSizes(a))
	require.False(t, a.Poisoned())
}
