// Package format houses the on-arena layout of buddy block headers. The
// allocator and the verifier share it as the one definition of what a
// block looks like in memory.
package format

const (
	// BlockFreeMagic tags a block that is resident in a free list.
	// Layout (little-endian):
	//   0x00  EF BE EF FE
	BlockFreeMagic uint32 = 0xFEEFBEEF

	// BlockUsedMagic tags a block that has been handed out to a caller.
	BlockUsedMagic uint32 = 0xA110CA7E

	// AlignedShimMagic tags the 8-byte shim written immediately before a
	// payload that was shifted to satisfy an aligned allocation.
	AlignedShimMagic uint32 = 0xA1167ED0
)

// Block header layout. Every block, free or allocated, starts with the
// 8-byte record. Free blocks additionally carry their free-list links in
// the 16 bytes that follow.
//
//	0x00  magic  uint32
//	0x04  class  uint8   (log2 of the block size)
//	0x05  check  uint8   (^class)
//	0x06  -      uint16  (reserved, zero)
//	0x08  prev   uint64  (free only)
//	0x10  next   uint64  (free only)
const (
	MagicOffset    = 0x00
	ClassOffset    = 0x04
	CheckOffset    = 0x05
	ReservedOffset = 0x06
	PrevOffset     = 0x08
	NextOffset     = 0x10

	// HeaderRecordSize is the part of the header present on every block.
	HeaderRecordSize = 8

	// LinkRecordSize is the header record plus free-list links.
	// No block may be smaller than this.
	LinkRecordSize = 24
)

// Aligned allocation shim, stored at payload-ShimSize.
//
//	0x00  magic  uint32 (AlignedShimMagic)
//	0x04  delta  uint32 (payload offset - block offset)
const (
	ShimSize        = 8
	ShimMagicOffset = 0x00
	ShimDeltaOffset = 0x04
)

const (
	// NilOffset marks the absence of a link.
	NilOffset = ^uint64(0)

	// MinHeaderSize is the smallest header overhead that still fits the record.
	MinHeaderSize = HeaderRecordSize

	// MinBlockFloor is the smallest block any configuration may use.
	MinBlockFloor = 32

	// CacheLineSize is the default alignment (Cortex-A7 cache line).
	CacheLineSize = 64

	// PageSize is the fallback page size used when the OS does not report one.
	PageSize = 4096
)
