package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireKind(t *testing.T, err error, kind CorruptionKind) {
	t.Helper()
	require.ErrorIs(t, err, ErrCorrupt)
	var cerr *CorruptionError
	require.True(t, errors.As(err, &cerr), "want *CorruptionError, got %T", err)
	require.Equal(t, kind, cerr.Kind)
}

func TestFree_DoubleFree(t *testing.T) {
	a, _ := newCompact(t, 1024)
	ref, _, err := a.Alloc(100)
	require.NoError(t, err)
	require.NoError(t, a.Free(ref))

	err = a.Free(ref)
	requireKind(t, err, KindDoubleFree)
	require.True(t, a.Poisoned())
}

func TestFree_DoubleFreeWithoutMerge(t *testing.T) {
	a, _ := newCompact(t, 1024)
	r1, _, err := a.Alloc(100)
	require.NoError(t, err)
	_, _, err = a.Alloc(100)
	require.NoError(t, err)

	require.NoError(t, a.Free(r1))
	requireKind(t, a.Free(r1), KindDoubleFree)
}

func TestFree_ForeignRefs(t *testing.T) {
	tests := []struct {
		name string
		ref  Ref
		kind CorruptionKind
	}{
		{"unaligned", 17, KindForeignRef},
		{"past end", 4096, KindForeignRef},
		{"below header", 8, KindForeignRef},
		{"inside payload", 48, KindBadHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newCompact(t, 1024)
			_, _, err := a.Alloc(100)
			require.NoError(t, err)

			requireKind(t, a.Free(tt.ref), tt.kind)
		})
	}
}

func TestPoison_BlocksEverything(t *testing.T) {
	a, region := newCompact(t, 1024)
	ref, _, err := a.Alloc(100)
	require.NoError(t, err)

	first := a.Free(Ref(17))
	requireKind(t, first, KindForeignRef)

	_, _, err = a.Alloc(10)
	require.Same(t, first, err)
	_, _, err = a.AllocAligned(10, 256)
	require.Same(t, first, err)
	require.Same(t, first, a.Free(ref))
	_, err = a.Release()
	require.Same(t, first, err)

	require.NoError(t, a.Init(region))
	require.False(t, a.Poisoned())
	_, _, err = a.Alloc(10)
	require.NoError(t, err)
}

func TestAlloc_DetectsDamagedFreeList(t *testing.T) {
	a, region := newCompact(t, 1024)
	_, _, err := a.Alloc(100)
	require.NoError(t, err)

	// Smash the tag of the free class-7 block at 128.
	copy(region[128:132], []byte{0, 0, 0, 0})

	_, _, err = a.Alloc(100)
	requireKind(t, err, KindFreeList)
	require.True(t, a.Poisoned())
}

func TestFree_DamagedHeader(t *testing.T) {
	a, region := newCompact(t, 1024)
	ref, _, err := a.Alloc(100)
	require.NoError(t, err)

	region[5] = 0 // check byte
	requireKind(t, a.Free(ref), KindBadHeader)
}

func TestWalk_ReportsDamage(t *testing.T) {
	a, region := newCompact(t, 1024)
	_, _, err := a.Alloc(100)
	require.NoError(t, err)

	region[256] = 0x42
	err = a.Walk(func(Block) bool { return true })
	requireKind(t, err, KindBadHeader)
	require.False(t, a.Poisoned(), "Walk only reports")
}

func TestCorruptionError_Message(t *testing.T) {
	err := &CorruptionError{Kind: KindDoubleFree, Offset: 0x80, Detail: "again"}
	require.Equal(t, "alloc: double_free at 0x80: again", err.Error())
	require.ErrorIs(t, err, ErrCorrupt)
	require.NotErrorIs(t, err, ErrNoSpace)
}
