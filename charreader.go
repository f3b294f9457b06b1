package charred

import "io"

// CharReader chains a BufferSupplier's successive chunks into one logically
// infinite, position-addressable rune stream with one-character pushback
// (spec.md section 4.2). Tokenizers are expected to call Chunk()/Position()
// once per chunk and run a tight index-based loop rather than calling
// ReadRune repeatedly; ReadRune exists for the cases (escape lookahead,
// quote-peek) that don't fit that shape.
type CharReader struct {
	supplier BufferSupplier
	chunk    []rune
	pos      int
	eos      bool
}

// NewCharReader constructs a CharReader and primes its first chunk. An EOF
// on the very first Next() is not an error here -- it just means the
// CharReader starts already at end-of-stream, which AtEOS reports.
func NewCharReader(supplier BufferSupplier) (*CharReader, error) {
	r := &CharReader{supplier: supplier}
	if err := r.NextBuffer(); err != nil && err != io.EOF {
		return nil, err
	}
	return r, nil
}

// Chunk returns the current chunk. Its reference does not change between
// NextBuffer calls (spec.md section 4.2 invariant), so callers may cache it
// across a tight scanning loop.
func (r *CharReader) Chunk() []rune {
	return r.chunk
}

// Position returns the current index within Chunk().
func (r *CharReader) Position() int {
	return r.pos
}

// SetPosition repositions within the current chunk. Used by tokenizers that
// scan ahead with their own loop and then report back where they stopped.
func (r *CharReader) SetPosition(i int) {
	r.pos = i
}

// AtEOS reports whether the stream is exhausted: the supplier has returned
// io.EOF and the current chunk has been fully consumed.
func (r *CharReader) AtEOS() bool {
	return r.eos && r.pos >= len(r.chunk)
}

// NextBuffer advances to the next chunk from the supplier. Between calls the
// current chunk reference is stable (spec.md section 4.2).
func (r *CharReader) NextBuffer() error {
	buf, err := r.supplier.Next()
	if err != nil {
		r.chunk = nil
		r.pos = 0
		if err == io.EOF {
			r.eos = true
		}
		return err
	}
	r.chunk = buf
	r.pos = 0
	r.eos = false
	return nil
}

// ReadRune returns the next rune, or io.EOF at end of stream.
func (r *CharReader) ReadRune() (rune, error) {
	for {
		if r.pos < len(r.chunk) {
			c := r.chunk[r.pos]
			r.pos++
			return c, nil
		}
		if r.eos {
			return 0, io.EOF
		}
		if err := r.NextBuffer(); err != nil {
			return 0, err
		}
	}
}

// ReadFull fills dst completely or returns the count actually read together
// with the error (io.EOF, or an upstream error) that stopped it short.
func (r *CharReader) ReadFull(dst []rune) (int, error) {
	n := 0
	for n < len(dst) {
		c, err := r.ReadRune()
		if err != nil {
			return n, err
		}
		dst[n] = c
		n++
	}
	return n, nil
}

// Pushback revokes the last rune read from the current chunk. Pushback
// crossing a chunk boundary -- pos already at 0 -- is a Usage error, matching
// spec.md's "pushing back further than the start of the current chunk is a
// programming error."
func (r *CharReader) Pushback() error {
	if r.pos <= 0 {
		return newUsageErr("pushback past the start of the current chunk")
	}
	r.pos--
	return nil
}

// Close closes the underlying supplier, which transitively stops any async
// producer and joins its goroutine.
func (r *CharReader) Close() error {
	return r.supplier.Close()
}

// loggingSupplier is implemented by BufferSuppliers that can log secondary
// errors encountered during their own Close (currently AsyncQueueSupplier;
// the synchronous suppliers have only one failure path and nothing to log
// that the returned error doesn't already carry).
type loggingSupplier interface {
	SetLogger(Logger)
}

// SetLogger attaches l to the underlying supplier if it supports logging,
// propagating a Logger installed on a RowReader down to the Close chain
// that can actually produce a secondary, swallowed error.
func (r *CharReader) SetLogger(l Logger) {
	if s, ok := r.supplier.(loggingSupplier); ok {
		s.SetLogger(l)
	}
}
