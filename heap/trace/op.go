package trace

import "fmt"

// Operation kinds.
const (
	OpAlloc = "alloc"
	OpFree  = "free"
)

// Op is one trace record.
type Op struct {
	Op    string `json:"op"`
	ID    int    `json:"id"`
	Size  int    `json:"size,omitempty"`
	Align int    `json:"align,omitempty"`
}

// Alloc returns an allocation record.
func Alloc(id, size int) Op {
	return Op{Op: OpAlloc, ID: id, Size: size}
}

// AllocAligned returns an aligned allocation record.
func AllocAligned(id, size, align int) Op {
	return Op{Op: OpAlloc, ID: id, Size: size, Align: align}
}

// Free returns a free record.
func Free(id int) Op {
	return Op{Op: OpFree, ID: id}
}

// Validate checks field combinations. It does not track ids.
func (o Op) Validate() error {
	switch o.Op {
	case OpAlloc:
		if o.Size <= 0 {
			return fmt.Errorf("%w: alloc id %d with size %d", ErrBadOp, o.ID, o.Size)
		}
		if o.Align < 0 || o.Align&(o.Align-1) != 0 {
			return fmt.Errorf("%w: alloc id %d with align %d", ErrBadOp, o.ID, o.Align)
		}
	case OpFree:
		if o.Size != 0 || o.Align != 0 {
			return fmt.Errorf("%w: free id %d carries size or align", ErrBadOp, o.ID)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrBadOp, o.Op)
	}
	return nil
}
