// Package alloc implements a buddy allocator over a single fixed arena.
//
// # Overview
//
// The allocator is handed one contiguous region at Init and never grows or
// shrinks it. Memory is carved into power-of-two blocks. Allocation pops the
// smallest free block that fits and splits it in halves until it matches the
// request; deallocation marks the block free and merges it with its buddy for
// as long as the buddy is free and of the same size.
//
// # Usage Example
//
//	ar, err := heap.NewArena(1 << 20)
//	if err != nil {
//	    return err
//	}
//	defer ar.Close()
//
//	a, err := alloc.New(ar.Bytes(), &alloc.ConfigCompact, alloc.WithPurger(ar))
//	if err != nil {
//	    return err
//	}
//
//	ref, buf, err := a.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	// Later
//	err = a.Free(ref)
//
// # Size Classes
//
// A block of class k spans 1<<k bytes including its header. Class bounds
// come from the configuration and the arena:
//
//	MinClass = log2(Config.MinBlockSize)
//	MaxClass = log2(largest power of two <= managed arena length)
//
// A request of n bytes is served from the class given by Config.Policy.
// With HeaderThenRound (the default) that is the class of n+HeaderSize,
// floored at MinClass.
//
// # Block Headers
//
// Every block starts with an 8-byte record holding a magic tag, the class
// and a check byte. Free blocks also carry prev/next links to their
// neighbours in the free list for their class. See internal/format for the
// byte layout. The payload handed to callers starts Config.HeaderSize bytes
// after the block start.
//
// # References
//
// A Ref is the arena-relative offset of a payload. NilRef (0) is never
// returned by a successful allocation and freeing it is a no-op.
//
// # Arenas That Are Not a Power of Two
//
// Init covers the region with the largest self-aligned power-of-two blocks
// that fit, largest first. Bytes past the last multiple of MinBlockSize are
// left unmanaged. Merging never crosses the end of the managed range.
//
// # Corruption
//
// A double free, a foreign reference or a damaged header is reported as a
// *CorruptionError (errors.Is(err, ErrCorrupt)). The allocator is then
// poisoned: every later Alloc, AllocAligned and Free returns the same error
// until Init is called again.
//
// # Debugging
//
// Set BUDDY_LOG_ALLOC to any non-empty value to trace splits, merges and
// failed allocations on stderr. WithLogger attaches a *slog.Logger that
// receives exhaustion warnings and corruption errors.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize whole
// calls externally. Independent allocators on independent arenas may be used
// in parallel.
//
// # Related Packages
//
//   - github.com/joshuapare/buddykit/heap: Arena memory from the OS
//   - github.com/joshuapare/buddykit/heap/verify: Invariant checks
//   - github.com/joshuapare/buddykit/internal/format: Block header layout
package alloc
