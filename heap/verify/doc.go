// Package verify checks the structural invariants of a buddy allocator.
//
// # Overview
//
// The checks walk the arena block by block and compare what they find with
// the allocator's free lists and counters. They are meant for tests, fuzzing
// and the buddyctl tool; none of them modify the allocator.
//
// Validation categories:
//   - Conservation: block sizes sum to the managed capacity
//   - Alignment: every block is aligned to its own size
//   - FreeListConsistency: free lists hold exactly the free blocks, once each
//   - Coalescing: no two free buddies of equal size were left unmerged
//   - NoOverlap: caller-held payload ranges are disjoint
//
// # Quick Start
//
//	if err := verify.AllInvariants(a); err != nil {
//	    fmt.Printf("Validation failed: %v\n", err)
//	}
//
// # ValidationError
//
// All validation functions return *ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string         // Error category (e.g., "Conservation")
//	    Message string         // Human-readable description
//	    Offset  int64          // Arena offset where the error occurred (-1 if N/A)
//	    Details map[string]any // Additional context
//	}
package verify
