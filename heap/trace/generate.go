package trace

import (
	"math/rand"
	"slices"
)

// GenerateOptions shapes a synthetic workload.
type GenerateOptions struct {
	MaxSize      int     // Allocation sizes are uniform in [1, MaxSize]
	FreeRatio    float64 // Chance a step frees a live allocation
	AlignedRatio float64 // Chance an allocation requests alignment
	Alignments   []int   // Candidate alignments for aligned requests
	Drain        bool    // Free every remaining allocation at the end
}

// DefaultGenerateOptions is a mixed workload of small and medium requests.
var DefaultGenerateOptions = GenerateOptions{
	MaxSize:      2048,
	FreeRatio:    0.4,
	AlignedRatio: 0.1,
	Alignments:   []int{128, 256, 1024, 4096},
	Drain:        true,
}

// Generate produces n steps of a random workload. Frees only name live
// ids, so every generated trace is valid. With Drain set the trace ends
// with frees for all remaining ids, in id order.
func Generate(rng *rand.Rand, n int, opts GenerateOptions) []Op {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultGenerateOptions.MaxSize
	}
	ops := make([]Op, 0, n)
	var live []int
	nextID := 1

	for range n {
		if len(live) > 0 && rng.Float64() < opts.FreeRatio {
			i := rng.Intn(len(live))
			ops = append(ops, Free(live[i]))
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}
		size := 1 + rng.Intn(opts.MaxSize)
		if len(opts.Alignments) > 0 && rng.Float64() < opts.AlignedRatio {
			align := opts.Alignments[rng.Intn(len(opts.Alignments))]
			ops = append(ops, AllocAligned(nextID, size, align))
		} else {
			ops = append(ops, Alloc(nextID, size))
		}
		live = append(live, nextID)
		nextID++
	}

	if opts.Drain {
		slices.Sort(live)
		for _, id := range live {
			ops = append(ops, Free(id))
		}
	}
	return ops
}
