package alloc

import (
	"fmt"
	"log/slog"
	"math/bits"
	"os"

	"github.com/joshuapare/buddykit/heap"
	"github.com/joshuapare/buddykit/internal/buf"
	"github.com/joshuapare/buddykit/internal/format"
)

// Runtime debug flag for allocation logging - controlled by BUDDY_LOG_ALLOC env var.
var logAlloc = os.Getenv("BUDDY_LOG_ALLOC") != ""

// Allocator is a buddy allocator over one arena.
type Allocator struct {
	cfg  Config
	data []byte // Managed part of the region, len == capacity

	capacity uint64
	minClass int
	maxClass int

	free freeTable

	// Non-nil once corruption was detected; returned by every call until Init.
	poison *CorruptionError

	stats Stats

	log    *slog.Logger
	purger Purger
}

// New validates cfg, applies opts and initializes the allocator over region.
// A nil cfg selects DefaultConfig.
func New(region []byte, cfg *Config, opts ...Option) (*Allocator, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Allocator{
		cfg: *cfg,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.Init(region); err != nil {
		return nil, err
	}
	return a, nil
}

// Init (re)builds the allocator over region. All previous references
// become invalid. The region base must be aligned to Config.Alignment.
// A zero Allocator may be initialized directly and uses DefaultConfig.
func (a *Allocator) Init(region []byte) error {
	if a.cfg == (Config{}) {
		a.cfg = DefaultConfig
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.log == nil {
		a.log = slog.New(slog.DiscardHandler)
	}

	minBlock := uint64(a.cfg.MinBlockSize)
	if uint64(len(region)) < minBlock {
		return fmt.Errorf("%w: %d < %d bytes", ErrArenaTooSmall, len(region), minBlock)
	}
	if addr := heap.Addr(region); addr%uintptr(a.cfg.Alignment) != 0 {
		return fmt.Errorf("%w: base 0x%X, alignment %d", ErrMisaligned, addr, a.cfg.Alignment)
	}

	capacity := format.AlignDown(uint64(len(region)), minBlock)
	a.data = region[:capacity:capacity]
	a.capacity = capacity
	a.minClass = a.cfg.MinClass()
	a.maxClass = bits.Len64(capacity) - 1
	a.poison = nil
	a.stats = Stats{}
	a.free.reset(a.data)

	// Largest self-aligned power-of-two blocks first.
	for off := uint64(0); off < capacity; {
		k := bits.Len64(capacity-off) - 1
		if off != 0 {
			k = min(k, bits.TrailingZeros64(off))
		}
		format.PutFree(a.data, off, uint8(k))
		a.free.push(k, off)
		off += SizeOf(k)
	}

	if logAlloc {
		debugLogf("Init: capacity=%d, tail=%d, classes=[%d,%d]",
			capacity, uint64(len(region))-capacity, a.minClass, a.maxClass)
	}
	return nil
}

// Alloc returns a reference to at least n usable bytes and a slice of
// length n over them. The contents are not cleared.
func (a *Allocator) Alloc(n int) (Ref, []byte, error) {
	if a.poison != nil {
		return NilRef, nil, a.poison
	}
	if n <= 0 {
		return NilRef, nil, ErrZeroSize
	}
	a.stats.AllocCalls++

	off, k, err := a.allocBlock(uint64(n))
	if err != nil {
		return NilRef, nil, err
	}
	ref := off + uint64(a.cfg.HeaderSize)
	end := off + SizeOf(k)
	return Ref(ref), a.data[ref : ref+uint64(n) : end], nil
}

// allocBlock takes a block able to hold n payload bytes, splitting as
// needed, and marks it allocated.
func (a *Allocator) allocBlock(n uint64) (uint64, int, error) {
	if n > a.capacity {
		return a.noSpace(n)
	}
	need, err := a.cfg.ClassFor(n)
	if err != nil || need > a.maxClass {
		return a.noSpace(n)
	}
	k, ok := a.free.firstFrom(need)
	if !ok {
		return a.noSpace(n)
	}

	off, _ := a.free.pop(k)
	if !format.IsFreeClass(a.data, off, uint8(k)) {
		return 0, 0, a.corrupt(&CorruptionError{
			Kind:   KindFreeList,
			Offset: off,
			Detail: fmt.Sprintf("slot %d entry is not a free class-%d block", k, k),
		})
	}

	for k > need {
		k--
		buddy := off + SizeOf(k)
		format.PutFree(a.data, buddy, uint8(k))
		a.free.push(k, buddy)
		a.stats.Splits++
		if logAlloc {
			debugLogf("split: off=%d class=%d buddy=%d", off, k, buddy)
		}
	}

	format.PutUsed(a.data, off, uint8(k), a.cfg.HeaderSize)
	a.stats.LiveBlocks++
	a.stats.BytesInUse += SizeOf(k)
	a.stats.PeakBytesInUse = max(a.stats.PeakBytesInUse, a.stats.BytesInUse)
	return off, k, nil
}

func (a *Allocator) noSpace(n uint64) (uint64, int, error) {
	a.stats.AllocFailed++
	if logAlloc {
		debugLogf("Alloc(%d): FAILED, largest free=%d", n, a.LargestFree())
	}
	a.logger().Warn("allocation failed",
		slog.Uint64("size", n),
		slog.Uint64("free_bytes", a.FreeBytes()),
		slog.Uint64("largest_free", a.LargestFree()))
	return 0, 0, ErrNoSpace
}

// Free returns the block behind ref to the allocator, merging it with free
// buddies. Freeing NilRef is a no-op.
func (a *Allocator) Free(ref Ref) error {
	if a.poison != nil {
		return a.poison
	}
	if ref == NilRef {
		return nil
	}
	a.stats.FreeCalls++

	off, k, shimmed, err := a.resolve(ref)
	if err != nil {
		return a.corrupt(err)
	}
	if shimmed {
		format.ClearShim(a.data, uint64(ref))
	}
	a.stats.LiveBlocks--
	a.stats.BytesInUse -= SizeOf(k)

	for k < a.maxClass {
		size := SizeOf(k)
		buddy := buddyOf(off, k)
		if buddy+size > a.capacity || !format.IsFreeClass(a.data, buddy, uint8(k)) {
			break
		}
		a.free.remove(k, buddy)
		if buddy < off {
			format.ClearHeader(a.data, off)
			off = buddy
		} else {
			format.ClearHeader(a.data, buddy)
		}
		k++
		a.stats.Merges++
		if logAlloc {
			debugLogf("merge: off=%d class=%d", off, k)
		}
	}

	format.PutFree(a.data, off, uint8(k))
	a.free.push(k, off)
	return nil
}

// buddyOf returns the offset of the class-k block paired with off.
func buddyOf(off uint64, k int) uint64 {
	return off ^ SizeOf(k)
}

// resolve maps ref to its allocated block, recognizing the aligned shim.
func (a *Allocator) resolve(ref Ref) (off uint64, k int, shimmed bool, cerr *CorruptionError) {
	r := uint64(ref)
	header := uint64(a.cfg.HeaderSize)
	foreign := func(detail string) *CorruptionError {
		return &CorruptionError{Kind: KindForeignRef, Offset: r, Detail: detail}
	}

	if r < header || r >= a.capacity {
		return 0, 0, false, foreign("outside arena")
	}
	if !format.IsAligned(r, uint64(a.cfg.Alignment)) {
		return 0, 0, false, foreign("not payload aligned")
	}

	off = r - header
	delta, shimmed := format.ReadShim(a.data, r)
	if shimmed {
		d := uint64(delta)
		if d < header+format.ShimSize || d > r {
			return 0, 0, false, foreign(fmt.Sprintf("bad shim delta %d", delta))
		}
		off = r - d
	}

	blk, err := format.ParseBlock(a.data, off)
	if err != nil {
		return 0, 0, false, &CorruptionError{Kind: KindBadHeader, Offset: off, Err: err}
	}
	if blk.Free {
		return 0, 0, false, &CorruptionError{Kind: KindDoubleFree, Offset: off}
	}
	k = int(blk.Class)
	size := SizeOf(k)
	_, fits := buf.Range(a.capacity, off, size)
	switch {
	case k < a.minClass || k > a.maxClass:
		return 0, 0, false, &CorruptionError{Kind: KindBadHeader, Offset: off,
			Detail: fmt.Sprintf("class %d outside [%d,%d]", k, a.minClass, a.maxClass)}
	case !format.IsAligned(off, size) || !fits:
		return 0, 0, false, &CorruptionError{Kind: KindBadHeader, Offset: off,
			Detail: fmt.Sprintf("class-%d block misplaced", k)}
	case shimmed && r-off >= size:
		return 0, 0, false, foreign("shim points outside its block")
	}
	return off, k, shimmed, nil
}

// corrupt poisons the allocator with err and returns it.
func (a *Allocator) corrupt(err *CorruptionError) error {
	a.poison = err
	if logAlloc {
		debugLogf("CORRUPT: %v", err)
	}
	a.logger().Error("heap corruption", slog.String("kind", string(err.Kind)),
		slog.Uint64("offset", err.Offset), slog.String("error", err.Error()))
	return err
}

// logger returns the configured logger, or a discarding one on an
// Allocator that was never initialized.
func (a *Allocator) logger() *slog.Logger {
	if a.log == nil {
		a.log = slog.New(slog.DiscardHandler)
	}
	return a.log
}

// Poisoned reports whether corruption was detected since the last Init.
func (a *Allocator) Poisoned() bool {
	return a.poison != nil
}

// debugLogf prints debug messages if BUDDY_LOG_ALLOC is set.
func debugLogf(format string, args ...any) {
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] "+format+"\n", args...)
	}
}
