package seriallog

import (
	"bytes"
	"fmt"
	"iter"
)

// Reassembler turns an arbitrarily chunked byte stream into newline-terminated
// records. It owns a fixed-capacity buffer whose first n bytes hold the
// unconsumed tail of everything fed so far: zero or more complete records
// followed by at most one partial record.
//
// A '\r' is rewritten to a space as soon as it enters the buffer, so CRLF and
// bare CR sources come out the same. Only '\n' ends a record, and the '\n' is
// kept as the last byte of the record.
//
// Consuming a chunk is a two-phase step: Records yields the complete records
// (scan and emit), then Compact moves the remainder after the last yielded
// record to the front of the buffer. Drain runs both phases.
type Reassembler struct {
	buf     []byte
	n       int // bytes held
	cut     int // end of the last record yielded since the previous Compact
	scanned int // bytes already searched for '\n'

	substitute  bool
	placeholder byte
}

// ReassemblerOption configures a Reassembler.
type ReassemblerOption func(*Reassembler)

// WithNulPlaceholder replaces every NUL byte with b before the newline scan.
func WithNulPlaceholder(b byte) ReassemblerOption {
	return func(r *Reassembler) {
		r.substitute = true
		r.placeholder = b
	}
}

// NewReassembler allocates a Reassembler holding at most capacity bytes.
// The capacity must exceed the largest burst the device writes without a
// newline; a burst larger than that is reported as ErrOverflow.
func NewReassembler(capacity int, opts ...ReassemblerOption) (*Reassembler, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: buffer capacity must be positive, got %d", ErrInvalidConfig, capacity)
	}
	r := &Reassembler{buf: make([]byte, capacity)}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Cap returns the buffer capacity.
func (r *Reassembler) Cap() int { return len(r.buf) }

// Tail returns the free part of the buffer. A caller may read device bytes
// straight into it and then report how many arrived with Commit.
func (r *Reassembler) Tail() []byte { return r.buf[r.n:] }

// Commit accounts for k bytes written into the slice last returned by Tail.
func (r *Reassembler) Commit(k int) error {
	if k < 0 || k > len(r.buf)-r.n {
		return r.overflow()
	}
	r.normalize(r.buf[r.n : r.n+k])
	r.n += k
	return nil
}

// Ingest copies p into the buffer. If p does not fit, nothing is copied and
// ErrOverflow is returned.
func (r *Reassembler) Ingest(p []byte) error {
	if len(p) > len(r.buf)-r.n {
		return r.overflow()
	}
	return r.Commit(copy(r.buf[r.n:], p))
}

// Records yields every complete record not yet yielded. The slices alias the
// internal buffer and are only valid until the next Compact, Commit or Ingest.
// An empty read yields nothing; two adjacent delimiters yield an empty record
// consisting of the single '\n'.
func (r *Reassembler) Records() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for r.scanned < r.n {
			i := bytes.IndexByte(r.buf[r.scanned:r.n], '\n')
			if i < 0 {
				r.scanned = r.n
				return
			}
			end := r.scanned + i + 1
			rec := r.buf[r.cut:end]
			r.cut, r.scanned = end, end
			if !yield(rec) {
				return
			}
		}
	}
}

// Compact moves the bytes after the last yielded record to the front of the
// buffer. When the buffer is full and holds no delimiter, no further byte can
// ever complete a record and ErrOverflow is returned.
func (r *Reassembler) Compact() error {
	if r.cut > 0 {
		copy(r.buf, r.buf[r.cut:r.n])
		r.n -= r.cut
		r.scanned -= r.cut
		r.cut = 0
	}
	if r.n == len(r.buf) && bytes.IndexByte(r.buf[:r.n], '\n') < 0 {
		return r.overflow()
	}
	return nil
}

// Drain hands every complete record to emit and compacts the buffer. It stops
// at the first emit error; records not yet emitted stay buffered.
func (r *Reassembler) Drain(emit func([]byte) error) error {
	var err error
	for rec := range r.Records() {
		if err = emit(rec); err != nil {
			break
		}
	}
	if err != nil {
		return err
	}
	return r.Compact()
}

// Pending returns the buffered bytes that do not yet form a complete record,
// once Compact has run. The slice aliases the internal buffer.
func (r *Reassembler) Pending() []byte { return r.buf[r.cut:r.n] }

// Flush returns a copy of the pending bytes and empties the buffer. It is the
// final read of a stream that ends without a trailing newline.
func (r *Reassembler) Flush() []byte {
	rest := bytes.Clone(r.buf[r.cut:r.n])
	r.n, r.cut, r.scanned = 0, 0, 0
	return rest
}

func (r *Reassembler) normalize(p []byte) {
	for i, b := range p {
		switch {
		case b == '\r':
			p[i] = ' '
		case b == 0 && r.substitute:
			p[i] = r.placeholder
		}
	}
}

func (r *Reassembler) overflow() error {
	return fmt.Errorf("%w (capacity %d bytes)", ErrOverflow, len(r.buf))
}
