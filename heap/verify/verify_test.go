package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/buddykit/heap/alloc"
	"github.com/joshuapare/buddykit/internal/testutil"
)

// fakeHeap is a hand-built Inspector for injecting broken states.
type fakeHeap struct {
	capacity uint64
	min, max int
	blocks   []alloc.Block
	lists    map[int][]uint64
	stats    alloc.Stats
	walkErr  error
}

func (f *fakeHeap) Capacity() uint64 { return f.capacity }
func (f *fakeHeap) MinClass() int    { return f.min }
func (f *fakeHeap) MaxClass() int    { return f.max }
func (f *fakeHeap) Stats() alloc.Stats {
	return f.stats
}

func (f *fakeHeap) Walk(fn func(alloc.Block) bool) error {
	if f.walkErr != nil {
		return f.walkErr
	}
	for _, b := range f.blocks {
		if !fn(b) {
			break
		}
	}
	return nil
}

func (f *fakeHeap) FreeBlocks(k int) []uint64 { return f.lists[k] }

func (f *fakeHeap) FreeBytes() uint64 {
	var n uint64
	for k, offs := range f.lists {
		n += uint64(len(offs)) * alloc.SizeOf(k)
	}
	return n
}

// healthy mirrors a 1024-byte arena after one 100-byte allocation.
func healthy() *fakeHeap {
	return &fakeHeap{
		capacity: 1024,
		min:      5,
		max:      10,
		blocks: []alloc.Block{
			{Offset: 0, Class: 7},
			{Offset: 128, Class: 7, Free: true},
			{Offset: 256, Class: 8, Free: true},
			{Offset: 512, Class: 9, Free: true},
		},
		lists: map[int][]uint64{7: {128}, 8: {256}, 9: {512}},
		stats: alloc.Stats{LiveBlocks: 1, BytesInUse: 128},
	}
}

func requireType(t *testing.T, err error, typ string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %T", err)
	require.Equal(t, typ, verr.Type, "message: %s", verr.Message)
	return verr
}

func TestAllInvariants_Healthy(t *testing.T) {
	require.NoError(t, AllInvariants(healthy()))
}

func TestAllInvariants_RealAllocator(t *testing.T) {
	a, err := alloc.New(testutil.Region(t, 1<<14), &alloc.ConfigCompact)
	require.NoError(t, err)
	require.NoError(t, AllInvariants(a))

	var refs []alloc.Ref
	for _, n := range []int{10, 100, 1000, 33, 500, 7} {
		ref, _, err := a.Alloc(n)
		require.NoError(t, err)
		refs = append(refs, ref)
		require.NoError(t, AllInvariants(a))
	}
	for _, ref := range refs {
		require.NoError(t, a.Free(ref))
		require.NoError(t, AllInvariants(a))
	}
}

func TestConservation_Gap(t *testing.T) {
	h := healthy()
	h.blocks = append(h.blocks[:1], h.blocks[2:]...)
	verr := requireType(t, Conservation(h), "Conservation")
	require.Equal(t, int64(256), verr.Offset)
}

func TestConservation_FreeBytesMismatch(t *testing.T) {
	h := healthy()
	h.lists[5] = []uint64{0}
	requireType(t, Conservation(h), "Conservation")
}

func TestConservation_StatsMismatch(t *testing.T) {
	h := healthy()
	h.stats.LiveBlocks = 2
	requireType(t, Conservation(h), "Conservation")
}

func TestAlignment_Misplaced(t *testing.T) {
	h := healthy()
	h.blocks[2] = alloc.Block{Offset: 256, Class: 9, Free: true}
	verr := requireType(t, Alignment(h), "Alignment")
	require.Equal(t, int64(256), verr.Offset)
}

func TestAlignment_ClassRange(t *testing.T) {
	h := healthy()
	h.blocks[0].Class = 4
	requireType(t, Alignment(h), "Alignment")
}

func TestFreeListConsistency_Missing(t *testing.T) {
	h := healthy()
	h.lists[8] = nil
	verr := requireType(t, FreeListConsistency(h), "FreeListConsistency")
	require.Equal(t, int64(256), verr.Offset)
}

func TestFreeListConsistency_Duplicate(t *testing.T) {
	h := healthy()
	h.lists[7] = []uint64{128, 128}
	verr := requireType(t, FreeListConsistency(h), "FreeListConsistency")
	require.Contains(t, verr.Message, "twice")
}

func TestFreeListConsistency_WrongList(t *testing.T) {
	h := healthy()
	h.lists[7] = []uint64{128, 0}
	verr := requireType(t, FreeListConsistency(h), "FreeListConsistency")
	require.Equal(t, int64(0), verr.Offset)
}

func TestCoalescing_Unmerged(t *testing.T) {
	h := healthy()
	h.blocks[0].Free = true
	h.lists[7] = []uint64{0, 128}
	verr := requireType(t, Coalescing(h), "Coalescing")
	require.Equal(t, int64(0), verr.Offset)
}

func TestWalkError(t *testing.T) {
	h := healthy()
	h.walkErr = errors.New("bad header")
	requireType(t, AllInvariants(h), "Walk")
}

func TestNoOverlap(t *testing.T) {
	require.NoError(t, NoOverlap(nil))
	require.NoError(t, NoOverlap([]Region{{Off: 64, Len: 32}, {Off: 0, Len: 64}, {Off: 96, Len: 1}}))

	err := NoOverlap([]Region{{Off: 0, Len: 65}, {Off: 64, Len: 32}})
	verr := requireType(t, err, "NoOverlap")
	require.Equal(t, int64(64), verr.Offset)
}

func TestValidationError_String(t *testing.T) {
	err := &ValidationError{Type: "Coalescing", Message: "oops", Offset: 0x40}
	require.Equal(t, "Coalescing at offset 0x40: oops", err.Error())

	err = &ValidationError{Type: "Conservation", Message: "oops", Offset: -1}
	require.Equal(t, "Conservation: oops", err.Error())
}
