package charred

import (
	"bufio"
	"io"
	"strings"
)

// CSVReader is the RowReader of spec.md section 4.6: it loops the
// csvTokenizer's per-field tokens, materializes each row through an
// ArrayVisitor (immutable or mutable row profile), and honors an optional
// column allow/block list resolved against the first row it sees.
type CSVReader struct {
	dialect    Dialect
	charReader *CharReader
	tok        *csvTokenizer
	buf        *CharBuffer
	visitor    ArrayVisitor
	logger     Logger
	done       bool
}

// NewCSVReader opens a CSVReader over src with trim defaults of true
// (spec.md section 9's Open Question, decided for the supplier-facing
// API -- see DESIGN.md). src is decoded as UTF-8 text via bufio, the
// upstream character-decoding collaborator spec.md treats as out of scope.
func NewCSVReader(src io.Reader, opts ...DialectOption) (*CSVReader, error) {
	d := DefaultDialect()
	for _, o := range opts {
		o(&d)
	}
	return newCSVReaderFromRuneSource(bufio.NewReader(src), d)
}

// NewLegacyCSVReader opens a CSVReader with both trim defaults flipped to
// false, matching the stricter no-surprise convention of a drop-in
// compatibility entry point (spec.md section 9's Open Question).
func NewLegacyCSVReader(src io.Reader, opts ...DialectOption) (*CSVReader, error) {
	d := LegacyDialect()
	for _, o := range opts {
		o(&d)
	}
	return newCSVReaderFromRuneSource(bufio.NewReader(src), d)
}

func newCSVReaderFromRuneSource(src io.RuneReader, d Dialect) (*CSVReader, error) {
	supplier := NewAllocatingSupplier(src, DefaultChunkSize())
	return newCSVReaderFromSupplier(supplier, d)
}

// NewCSVReaderFromSupplier builds a CSVReader directly over a caller-built
// BufferSupplier, the seam used by NewAsyncCSVReader and by callers who want
// to control chunking themselves.
func NewCSVReaderFromSupplier(supplier BufferSupplier, opts ...DialectOption) (*CSVReader, error) {
	d := DefaultDialect()
	for _, o := range opts {
		o(&d)
	}
	return newCSVReaderFromSupplier(supplier, d)
}

// NewAsyncCSVReader wires a rotating BufferSupplier through an
// AsyncQueueSupplier (spec.md sections 4.4/4.5): a dedicated producer
// goroutine decodes and chunks src while this reader's goroutine tokenizes,
// decoupling I/O from parsing the way the teacher's own chunked channel
// pipeline does.
func NewAsyncCSVReader(src io.Reader, queueDepth int, opts ...DialectOption) (*CSVReader, error) {
	chunkSize := DefaultChunkSize()
	poolDepth := DefaultRotationDepth(queueDepth)

	rotating, err := NewRotatingSupplier(bufio.NewReader(src), chunkSize, poolDepth)
	if err != nil {
		return nil, err
	}
	async := NewAsyncQueueSupplier(rotating, queueDepth)

	d := DefaultDialect()
	for _, o := range opts {
		o(&d)
	}
	return newCSVReaderFromSupplier(async, d)
}

func newCSVReaderFromSupplier(supplier BufferSupplier, d Dialect) (*CSVReader, error) {
	cr, err := NewCharReader(supplier)
	if err != nil {
		return nil, err
	}
	if err := stripLeadingBOM(cr); err != nil {
		return nil, err
	}

	r := &CSVReader{dialect: d, charReader: cr}
	r.buf = NewCharBuffer(d.TrimLeadingWhitespace, d.TrimTrailingWhitespace, d.NilOnEmpty)
	r.tok = newCSVTokenizer(cr, &r.dialect, r.buf)
	if d.Profile == ProfileMutable {
		r.visitor = &MutableArrayVisitor{}
	} else {
		r.visitor = ImmutableArrayVisitor{}
	}
	return r, nil
}

// stripLeadingBOM discards a leading U+FEFF byte-order mark, if present, so
// that a BOM never shows up as part of the first field (spec.md section 8's
// "CSV file consisting only of a BOM... yields zero rows" boundary case).
func stripLeadingBOM(cr *CharReader) error {
	r, err := cr.ReadRune()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	if r != '\uFEFF' {
		return cr.Pushback()
	}
	return nil
}

// WithReaderLogger attaches a Logger used for Close-time secondary errors,
// propagating it down to the async supplier (if any) where such errors
// actually arise.
func (r *CSVReader) WithReaderLogger(l Logger) *CSVReader {
	r.logger = l
	r.charReader.SetLogger(l)
	return r
}

// readOneField reads a single field to completion, transparently looping
// through any quoted section it opens.
func (r *CSVReader) readOneField() (csvToken, error) {
	for {
		tok, err := r.tok.nextField()
		if err != nil {
			return 0, err
		}
		if tok == tokQuoteOpen {
			if err := r.tok.readQuotedContent(); err != nil {
				return 0, err
			}
			continue
		}
		return tok, nil
	}
}

// ReadRow reads the next row. It returns io.EOF once the stream is
// genuinely exhausted, distinguishing a CSV that ends with a trailing
// newline (no further row) from one that does not (spec.md section 4.6).
func (r *CSVReader) ReadRow() (interface{}, error) {
	if r.done {
		return nil, io.EOF
	}

	for {
		r.tok.BeginRow()
		acc := r.visitor.NewArray()
		fieldIdx := 0
		fieldCount := 0
		var lastTok csvToken
		commentRow := false

		for {
			r.buf.Clear()
			tok, err := r.readOneField()
			if err != nil {
				r.done = true
				return nil, err
			}

			if tok == tokComment {
				if err := r.tok.skipCommentLine(); err != nil {
					r.done = true
					return nil, err
				}
				commentRow = true
				break
			}

			// A lone trailing field consisting only of whitespace (or nothing
			// at all) at true end of stream is not a row: it's the "file is
			// empty or all whitespace" boundary case (spec.md section 8),
			// checked against the trimmed text rather than the raw buffer so
			// an all-whitespace file still yields zero rows.
			if tok == tokEOF && fieldCount == 0 && strings.TrimSpace(r.buf.RawString()) == "" {
				r.done = true
				return nil, io.EOF
			}

			val, ok := r.tok.TakeFastValue()
			if !ok {
				val = r.buf.Value(r.dialect.Table)
			}
			if r.dialect.Allow.Emit(fieldIdx) && r.dialect.Block.Emit(fieldIdx) {
				acc = r.visitor.OnValue(acc, val)
			}
			fieldCount++
			fieldIdx++
			lastTok = tok

			if tok == tokEOL || tok == tokEOF {
				break
			}
		}

		if commentRow {
			continue
		}

		row := r.visitor.Finalize(acc)
		unresolved := (r.dialect.Allow != nil && !r.dialect.Allow.resolved) ||
			(r.dialect.Block != nil && !r.dialect.Block.resolved)
		r.resolveSelectors(row)
		if fields, ok := row.([]interface{}); ok && unresolved {
			// The first row was read before the selectors could be resolved
			// against it; apply them to that row now.
			kept := r.visitor.NewArray()
			for i, f := range fields {
				if r.dialect.Allow.Emit(i) && r.dialect.Block.Emit(i) {
					kept = r.visitor.OnValue(kept, f)
				}
			}
			row = r.visitor.Finalize(kept)
		}

		if lastTok == tokEOF {
			r.done = true
		}
		return row, nil
	}
}

func (r *CSVReader) resolveSelectors(row interface{}) {
	fields, ok := row.([]interface{})
	if !ok {
		return
	}
	if r.dialect.Allow != nil && !r.dialect.Allow.resolved {
		r.dialect.Allow.resolve(fields)
	}
	if r.dialect.Block != nil && !r.dialect.Block.resolved {
		r.dialect.Block.resolve(fields)
	}
}

// ReadAll reads every remaining row.
func (r *CSVReader) ReadAll() ([]interface{}, error) {
	var rows []interface{}
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

// Close closes the underlying CharReader (and transitively any async
// supplier, joining its producer goroutine). Close is idempotent; a
// secondary error masked by the one returned here is logged via the
// reader's Logger, matching spec.md section 7's teardown policy.
func (r *CSVReader) Close() error {
	return r.charReader.Close()
}
