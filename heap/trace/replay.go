package trace

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/buddykit/heap/alloc"
)

// Result summarizes a replay.
type Result struct {
	Ops      int // Operations applied
	Allocs   int // Successful allocations
	Frees    int // Successful frees
	Failures int // Allocations that returned ErrNoSpace
	Skipped  int // Frees of ids whose allocation had failed
	Live     int // Allocations still held at the end

	PeakBytesInUse uint64
}

// Player applies operations to an allocator one at a time, tracking which
// reference belongs to which trace id.
type Player struct {
	a      *alloc.Allocator
	refs   map[int]alloc.Ref
	failed map[int]struct{}
	res    Result
}

// NewPlayer returns a Player driving a.
func NewPlayer(a *alloc.Allocator) *Player {
	return &Player{
		a:      a,
		refs:   make(map[int]alloc.Ref),
		failed: make(map[int]struct{}),
	}
}

// Apply performs op. Allocations that fail with ErrNoSpace are counted, and
// later frees of their ids are skipped. Any other allocator error or a free
// of an unknown id is returned. Payloads are filled with a byte derived from
// the id.
func (p *Player) Apply(op Op) error {
	if err := op.Validate(); err != nil {
		return err
	}

	switch op.Op {
	case OpAlloc:
		if _, dup := p.refs[op.ID]; dup {
			return fmt.Errorf("%w: id %d allocated twice", ErrBadOp, op.ID)
		}
		var (
			ref alloc.Ref
			buf []byte
			err error
		)
		if op.Align > 0 {
			ref, buf, err = p.a.AllocAligned(op.Size, op.Align)
		} else {
			ref, buf, err = p.a.Alloc(op.Size)
		}
		switch {
		case errors.Is(err, alloc.ErrNoSpace):
			p.res.Failures++
			p.failed[op.ID] = struct{}{}
		case err != nil:
			return fmt.Errorf("trace: op %d alloc id %d: %w", p.res.Ops, op.ID, err)
		default:
			fillByte := byte(op.ID)
			for i := range buf {
				buf[i] = fillByte
			}
			p.refs[op.ID] = ref
			p.res.Allocs++
		}

	case OpFree:
		ref, ok := p.refs[op.ID]
		if !ok {
			if _, was := p.failed[op.ID]; !was {
				return fmt.Errorf("%w: free of id %d at op %d", ErrUnknownID, op.ID, p.res.Ops)
			}
			delete(p.failed, op.ID)
			p.res.Skipped++
			break
		}
		if err := p.a.Free(ref); err != nil {
			return fmt.Errorf("trace: op %d free id %d: %w", p.res.Ops, op.ID, err)
		}
		delete(p.refs, op.ID)
		p.res.Frees++
	}
	p.res.Ops++
	return nil
}

// Ref returns the live reference for a trace id.
func (p *Player) Ref(id int) (alloc.Ref, bool) {
	ref, ok := p.refs[id]
	return ref, ok
}

// Result returns the counters so far.
func (p *Player) Result() Result {
	res := p.res
	res.Live = len(p.refs)
	res.PeakBytesInUse = p.a.Stats().PeakBytesInUse
	return res
}

// checkEvery is how many operations run between context checks.
const checkEvery = 256

// Replay applies every operation from src to a through a Player. It stops
// at the first error or when ctx is canceled.
func Replay(ctx context.Context, a *alloc.Allocator, src Source) (Result, error) {
	p := NewPlayer(a)
	for n := 0; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return p.Result(), err
			}
		}
		op, err := src.Next()
		if errors.Is(err, io.EOF) {
			return p.Result(), nil
		}
		if err != nil {
			return p.Result(), err
		}
		if err := p.Apply(op); err != nil {
			return p.Result(), err
		}
	}
}
