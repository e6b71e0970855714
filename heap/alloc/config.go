package alloc

import (
	"fmt"
	"strings"

	"github.com/joshuapare/buddykit/internal/format"
)

// Policy selects how a request size maps to a block class.
type Policy uint8

const (
	// HeaderThenRound adds the header to the request, rounds up to a power
	// of two and raises the result to MinBlockSize.
	HeaderThenRound Policy = iota

	// ClampThenRound raises the request to MinBlockSize first, then adds
	// the header and rounds up. Small requests land one class higher than
	// with HeaderThenRound.
	ClampThenRound
)

func (p Policy) String() string {
	switch p {
	case HeaderThenRound:
		return "header-then-round"
	case ClampThenRound:
		return "clamp-then-round"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// Config defines block geometry for an allocator.
type Config struct {
	// Name for this configuration (for reports and benchmarks)
	Name string

	HeaderSize   int    // Bytes between block start and payload
	MinBlockSize int    // Smallest block, header included (power of two)
	Alignment    int    // Payload alignment for plain Alloc (power of two)
	Policy       Policy // Request size to class mapping
}

// Predefined configurations.
var (
	// ConfigCacheLine keeps every payload on its own 64-byte cache line.
	// Header 64, minimum block 128.
	ConfigCacheLine = Config{
		Name:         "CacheLine",
		HeaderSize:   format.CacheLineSize,
		MinBlockSize: 2 * format.CacheLineSize,
		Alignment:    format.CacheLineSize,
		Policy:       HeaderThenRound,
	}

	// ConfigCompact trades alignment for density.
	// Header 16, minimum block 32.
	ConfigCompact = Config{
		Name:         "Compact",
		HeaderSize:   16,
		MinBlockSize: format.MinBlockFloor,
		Alignment:    16,
		Policy:       HeaderThenRound,
	}

	// Default configuration (used if none specified).
	DefaultConfig = ConfigCacheLine
)

// maxHeaderSize keeps the aligned-allocation shim delta within 32 bits.
const maxHeaderSize = 1 << 16

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch {
	case c.HeaderSize < format.MinHeaderSize || c.HeaderSize > maxHeaderSize:
		return fmt.Errorf("%w: header size %d outside [%d, %d]",
			ErrBadConfig, c.HeaderSize, format.MinHeaderSize, maxHeaderSize)
	case c.Alignment < format.ShimSize || !format.IsPow2(uint64(c.Alignment)):
		return fmt.Errorf("%w: alignment %d must be a power of two >= %d",
			ErrBadConfig, c.Alignment, format.ShimSize)
	case c.HeaderSize%c.Alignment != 0:
		return fmt.Errorf("%w: header size %d not a multiple of alignment %d",
			ErrBadConfig, c.HeaderSize, c.Alignment)
	case c.MinBlockSize < format.MinBlockFloor || !format.IsPow2(uint64(c.MinBlockSize)):
		return fmt.Errorf("%w: minimum block %d must be a power of two >= %d",
			ErrBadConfig, c.MinBlockSize, format.MinBlockFloor)
	case c.MinBlockSize <= c.HeaderSize:
		return fmt.Errorf("%w: minimum block %d leaves no payload after %d-byte header",
			ErrBadConfig, c.MinBlockSize, c.HeaderSize)
	case c.MinBlockSize < c.Alignment:
		return fmt.Errorf("%w: minimum block %d smaller than alignment %d",
			ErrBadConfig, c.MinBlockSize, c.Alignment)
	case c.Policy > ClampThenRound:
		return fmt.Errorf("%w: unknown %s", ErrBadConfig, c.Policy)
	}
	return nil
}

// MinClass returns the class of MinBlockSize.
func (c *Config) MinClass() int {
	k, _ := ClassOf(uint64(c.MinBlockSize))
	return k
}

// ClassFor returns the block class that serves a request of n bytes under
// the configured policy. It does not consider any arena limit.
func (c *Config) ClassFor(n uint64) (int, error) {
	if n == 0 {
		return 0, ErrZeroSize
	}
	if c.Policy == ClampThenRound {
		n = max(n, uint64(c.MinBlockSize))
	}
	need := n + uint64(c.HeaderSize)
	if need < n {
		return 0, ErrNoSpace
	}
	k, err := ClassOf(need)
	if err != nil {
		return 0, err
	}
	return max(k, c.MinClass()), nil
}

// ConfigByName looks up a predefined configuration, case-insensitively.
func ConfigByName(name string) (Config, bool) {
	for _, c := range []Config{ConfigCacheLine, ConfigCompact} {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Config{}, false
}
