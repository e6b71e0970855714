package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Writer encodes operations as JSON lines.
type Writer struct {
	codec io.WriteCloser
	buf   *bufio.Writer
	enc   *json.Encoder
	count int
}

// NewWriter returns a Writer on w compressed with c. Close must be called
// to flush; it does not close w.
func NewWriter(w io.Writer, c Codec) (*Writer, error) {
	cw, err := compressor(w, c)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(cw)
	return &Writer{codec: cw, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Write appends one operation.
func (w *Writer) Write(op Op) error {
	if err := op.Validate(); err != nil {
		return err
	}
	if err := w.enc.Encode(op); err != nil {
		return fmt.Errorf("trace: write op %d: %w", w.count, err)
	}
	w.count++
	return nil
}

// Count returns the number of operations written.
func (w *Writer) Count() int { return w.count }

// Close flushes buffered and compressed data. The compressor is released
// even when the flush fails.
func (w *Writer) Close() error {
	var flushErr error
	if err := w.buf.Flush(); err != nil {
		flushErr = fmt.Errorf("trace: flush: %w", err)
	}
	return errors.Join(flushErr, w.codec.Close())
}

// Reader decodes operations written by Writer.
type Reader struct {
	dec     *json.Decoder
	release func()
	line    int
}

// NewReader returns a Reader on r compressed with c.
func NewReader(r io.Reader, c Codec) (*Reader, error) {
	dr, release, err := decompressor(r, c)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bufio.NewReader(dr))
	dec.DisallowUnknownFields()
	return &Reader{dec: dec, release: release}, nil
}

// Next returns the next operation, or io.EOF at the end of the stream.
func (r *Reader) Next() (Op, error) {
	var op Op
	if err := r.dec.Decode(&op); err != nil {
		if errors.Is(err, io.EOF) {
			return Op{}, io.EOF
		}
		return Op{}, fmt.Errorf("trace: record %d: %w", r.line+1, err)
	}
	r.line++
	if err := op.Validate(); err != nil {
		return Op{}, fmt.Errorf("trace: record %d: %w", r.line, err)
	}
	return op, nil
}

// Close releases decoder resources. It does not close the source.
func (r *Reader) Close() {
	r.release()
}

// Source yields operations until io.EOF.
type Source interface {
	Next() (Op, error)
}

// SliceSource replays a fixed slice of operations.
type SliceSource struct {
	ops []Op
	pos int
}

// NewSliceSource returns a Source over ops.
func NewSliceSource(ops []Op) *SliceSource {
	return &SliceSource{ops: ops}
}

// Next returns the next operation, or io.EOF.
func (s *SliceSource) Next() (Op, error) {
	if s.pos >= len(s.ops) {
		return Op{}, io.EOF
	}
	op := s.ops[s.pos]
	s.pos++
	return op, nil
}

// ReadAll drains src into a slice.
func ReadAll(src Source) ([]Op, error) {
	var ops []Op
	for {
		op, err := src.Next()
		if errors.Is(err, io.EOF) {
			return ops, nil
		}
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
	}
}

// WriteAll writes ops to w with codec c. On a failed write the operations
// before it are still flushed and the codec is closed.
func WriteAll(w io.Writer, c Codec, ops []Op) error {
	tw, err := NewWriter(w, c)
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := tw.Write(op); err != nil {
			return errors.Join(err, tw.Close())
		}
	}
	return tw.Close()
}
