// Package heap provides the memory region a buddy allocator manages.
//
// # Overview
//
// An Arena is a single contiguous, page-aligned region obtained from the
// operating system once and never resized. On Linux, macOS and FreeBSD it is
// an anonymous private mapping (mmap); on Windows it is a VirtualAlloc
// reservation; elsewhere it falls back to an over-allocated Go slice shifted
// to the requested alignment.
//
// Memory obtained this way lives outside the Go heap on the mapped
// platforms, so large arenas add no GC scanning cost.
//
// # Usage Example
//
//	ar, err := heap.NewArena(1 << 20)
//	if err != nil {
//	    return err
//	}
//	defer ar.Close()
//
//	a, err := alloc.New(ar.Bytes(), nil, alloc.WithPurger(ar))
//
// # Page Release
//
// Purge tells the OS that whole pages inside a range are no longer needed.
// On Linux the pages read back as zero afterwards; callers must never purge
// bytes that carry live metadata.
//
// # Thread Safety
//
// Arena methods are not synchronized. Close must not race with any use of
// Bytes.
//
// # Related Packages
//
//   - github.com/joshuapare/buddykit/heap/alloc: Buddy allocator over an arena
//   - github.com/joshuapare/buddykit/heap/verify: Invariant checks
package heap
