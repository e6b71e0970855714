package alloc

import "math/bits"

// NumSlots is the number of free lists, one per possible class.
const NumSlots = bits.UintSize

// MaxAlignment is the largest alignment AllocAligned accepts.
const MaxAlignment = 1 << 30

// ClassOf returns the smallest k with 1<<k >= n.
func ClassOf(n uint64) (int, error) {
	if n == 0 {
		return 0, ErrZeroSize
	}
	k := bits.Len64(n - 1)
	if k >= NumSlots {
		return 0, ErrNoSpace
	}
	return k, nil
}

// SizeOf returns the byte length of a class-k block.
func SizeOf(k int) uint64 {
	return uint64(1) << uint(k)
}

// ClassInfo describes one block class under a configuration.
type ClassInfo struct {
	Class      int
	BlockSize  uint64
	MaxPayload uint64 // Largest request served by this class
}

// Classes lists every class from MinClass up to the largest block that fits
// in capacity bytes.
func (c *Config) Classes(capacity uint64) []ClassInfo {
	if capacity < uint64(c.MinBlockSize) {
		return nil
	}
	top := bits.Len64(capacity) - 1
	out := make([]ClassInfo, 0, top-c.MinClass()+1)
	for k := c.MinClass(); k <= top; k++ {
		size := SizeOf(k)
		payload := size - uint64(c.HeaderSize)
		if c.Policy == ClampThenRound && payload < uint64(c.MinBlockSize) {
			// Clamped requests never fit here.
			payload = 0
		}
		out = append(out, ClassInfo{Class: k, BlockSize: size, MaxPayload: payload})
	}
	return out
}
