package format

import "fmt"

// Block is a decoded block header.
//
// Block header layout (little-endian):
//
//	Offset  Size  Description
//	0x00    4     Magic. BlockFreeMagic or BlockUsedMagic.
//	0x04    1     Class k. The block spans 1<<k bytes including the header.
//	0x05    1     Check byte, always ^k.
//	0x06    2     Reserved.
//	0x08    8     Previous free block offset (free blocks only).
//	0x10    8     Next free block offset (free blocks only).
type Block struct {
	Offset uint64 // Offset relative to the start of the arena
	Class  uint8  // log2 of the block size
	Free   bool   // True when tagged BlockFreeMagic
}

// Size returns the block length in bytes, header included.
func (b Block) Size() uint64 { return uint64(1) << b.Class }

// End returns the offset one past the last byte of the block.
func (b Block) End() uint64 { return b.Offset + b.Size() }

// ParseBlock decodes the header at off. It fails on a truncated buffer, an
// unknown magic, a class/check mismatch or a non-zero reserved field. It
// does not check alignment, which depends on allocator configuration.
func ParseBlock(b []byte, off uint64) (Block, error) {
	if off > uint64(len(b)) || uint64(len(b))-off < HeaderRecordSize {
		return Block{}, fmt.Errorf("block at 0x%X: %w", off, ErrTruncated)
	}
	o := int(off)
	magic := ReadU32(b, o+MagicOffset)
	var free bool
	switch magic {
	case BlockFreeMagic:
		free = true
	case BlockUsedMagic:
	default:
		return Block{}, fmt.Errorf("block at 0x%X: magic 0x%08X: %w", off, magic, ErrSignatureMismatch)
	}
	class := b[o+ClassOffset]
	if b[o+CheckOffset] != ^class {
		return Block{}, fmt.Errorf("block at 0x%X: %w", off, ErrBadCheck)
	}
	if r := ReadU16(b, o+ReservedOffset); r != 0 {
		return Block{}, fmt.Errorf("block at 0x%X: reserved 0x%04X: %w", off, r, ErrBadCheck)
	}
	return Block{Offset: off, Class: class, Free: free}, nil
}

// IsFreeClass reports whether the header at off is a well-formed free block
// of the given class. It never fails; malformed or short headers report false.
func IsFreeClass(b []byte, off uint64, class uint8) bool {
	if off > uint64(len(b)) || uint64(len(b))-off < HeaderRecordSize {
		return false
	}
	o := int(off)
	return ReadU32(b, o+MagicOffset) == BlockFreeMagic &&
		b[o+ClassOffset] == class &&
		b[o+CheckOffset] == ^class
}

// PutFree writes a free header with cleared links at off.
func PutFree(b []byte, off uint64, class uint8) {
	o := int(off)
	putRecord(b, o, BlockFreeMagic, class)
	PutU64(b, o+PrevOffset, NilOffset)
	PutU64(b, o+NextOffset, NilOffset)
}

// PutUsed writes an allocated header at off and zeroes bytes
// [off+HeaderRecordSize, off+headerSize), which covers stale links and any
// header padding.
func PutUsed(b []byte, off uint64, class uint8, headerSize int) {
	o := int(off)
	putRecord(b, o, BlockUsedMagic, class)
	clear(b[o+HeaderRecordSize : o+max(headerSize, LinkRecordSize)])
}

func putRecord(b []byte, o int, magic uint32, class uint8) {
	PutU32(b, o+MagicOffset, magic)
	b[o+ClassOffset] = class
	b[o+CheckOffset] = ^class
	PutU16(b, o+ReservedOffset, 0)
}

// Prev returns the previous-link of the free block at off.
func Prev(b []byte, off uint64) uint64 { return ReadU64(b, int(off)+PrevOffset) }

// Next returns the next-link of the free block at off.
func Next(b []byte, off uint64) uint64 { return ReadU64(b, int(off)+NextOffset) }

// SetPrev stores the previous-link of the free block at off.
func SetPrev(b []byte, off, v uint64) { PutU64(b, int(off)+PrevOffset, v) }

// SetNext stores the next-link of the free block at off.
func SetNext(b []byte, off, v uint64) { PutU64(b, int(off)+NextOffset, v) }

// PutShim writes an aligned-allocation shim ending at payload.
func PutShim(b []byte, payload uint64, delta uint32) {
	o := int(payload) - ShimSize
	PutU32(b, o+ShimMagicOffset, AlignedShimMagic)
	PutU32(b, o+ShimDeltaOffset, delta)
}

// ReadShim returns the delta stored in the shim ending at payload, and
// whether a shim is present at all.
func ReadShim(b []byte, payload uint64) (uint32, bool) {
	if payload < ShimSize || payload > uint64(len(b)) {
		return 0, false
	}
	o := int(payload) - ShimSize
	if ReadU32(b, o+ShimMagicOffset) != AlignedShimMagic {
		return 0, false
	}
	return ReadU32(b, o+ShimDeltaOffset), true
}

// ClearShim removes the shim ending at payload.
func ClearShim(b []byte, payload uint64) {
	o := int(payload) - ShimSize
	clear(b[o : o+ShimSize])
}

// ClearHeader wipes the header record at off. Used when a block is absorbed
// by a merge so no stale tag survives inside the merged block.
func ClearHeader(b []byte, off uint64) {
	o := int(off)
	clear(b[o : o+HeaderRecordSize])
}
