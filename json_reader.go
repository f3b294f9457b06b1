package charred

import (
	"bufio"
	"io"
)

// EOFPolicy controls what JSONReader.ReadValue does when it finds no more
// top-level values, the configurable policy spec.md section 4.7 calls for.
type EOFPolicy int

const (
	// EOFError returns an EndOfInput error (the default).
	EOFError EOFPolicy = iota
	// EOFValue returns a fixed caller-supplied value with a nil error.
	EOFValue
	// EOFThunk invokes a caller-supplied function for the value.
	EOFThunk
)

// JSONReader is the C9 component: a recursive-descent parser that
// materializes values through an ArrayVisitor/ObjectVisitor pair, supporting
// repeated reads of multiple top-level values from the same stream.
type JSONReader struct {
	charReader *CharReader
	lnr        *LineNumberReader
	tok        *jsonTokenizer
	buf        *CharBuffer

	arrayVisitor  ArrayVisitor
	objectVisitor ObjectVisitor
	// table canonicalizes object keys (spec.md section 4.7): the default
	// immutable object visitor's own KeyFn then optionally maps the
	// canonicalized string on to a namespaced identifier.
	table *StringTable

	eofPolicy EOFPolicy
	eofValue  interface{}
	eofThunk  func() (interface{}, error)

	logger Logger
}

// JSONOption configures a JSONReader at construction time.
type JSONOption func(*JSONReader)

func WithArrayVisitor(v ArrayVisitor) JSONOption   { return func(r *JSONReader) { r.arrayVisitor = v } }
func WithObjectVisitor(v ObjectVisitor) JSONOption { return func(r *JSONReader) { r.objectVisitor = v } }
func WithKeyTable(table *StringTable) JSONOption { return func(r *JSONReader) { r.table = table } }

// DoubleFn overrides the default real-number constructor for a JSON number
// literal that contains '.', 'e', or 'E' (spec.md section 4.7's "double-fn"),
// given the literal's raw text.
type DoubleFn func(text string) (interface{}, error)

// WithBigDecimal selects *big.Float in place of float64 for real-number
// literals (spec.md section 4.7's "bigdec"). The literal is parsed at
// big.Float's default 64-bit mantissa precision: the result is a binary
// float, not an exact decimal, and digits beyond that precision are rounded.
// A WithDoubleFn override, if also given, takes precedence.
func WithBigDecimal(v bool) JSONOption {
	return func(r *JSONReader) { r.tok.bigDecimal = v }
}

// WithDoubleFn overrides the default real-number constructor entirely.
func WithDoubleFn(fn DoubleFn) JSONOption {
	return func(r *JSONReader) { r.tok.doubleFn = fn }
}

// WithEOFValue sets the EOF policy to return v once the stream is exhausted.
func WithEOFValue(v interface{}) JSONOption {
	return func(r *JSONReader) {
		r.eofPolicy = EOFValue
		r.eofValue = v
	}
}

// WithEOFThunk sets the EOF policy to invoke fn once the stream is
// exhausted.
func WithEOFThunk(fn func() (interface{}, error)) JSONOption {
	return func(r *JSONReader) {
		r.eofPolicy = EOFThunk
		r.eofThunk = fn
	}
}

// NewJSONReader opens a JSONReader over src. Values default to immutable
// array/object visitors (map[interface{}]interface{} / []interface{}) and
// object keys are plain Go strings; WithKeyTable interns them, and an object
// visitor with a KeyFn, given through WithObjectVisitor, maps them further.
func NewJSONReader(src io.Reader, opts ...JSONOption) (*JSONReader, error) {
	lnr := NewLineNumberReader(bufio.NewReader(src))
	supplier := NewAllocatingSupplier(lnr, DefaultChunkSize())
	cr, err := NewCharReader(supplier)
	if err != nil {
		return nil, err
	}

	r := &JSONReader{
		charReader:    cr,
		lnr:           lnr,
		arrayVisitor:  ImmutableArrayVisitor{},
		objectVisitor: &ImmutableObjectVisitor{},
	}
	r.buf = NewCharBuffer(false, false, false)
	r.tok = newJSONTokenizer(cr, lnr, r.buf)
	for _, o := range opts {
		o(r)
	}
	r.tok.table = r.table
	return r, nil
}

func (r *JSONReader) nextToken() (jsonToken, error) {
	return r.tok.next()
}

func (r *JSONReader) posErr(format string, args ...interface{}) error {
	return newInputShapeErr(r.lnr.Line(), r.lnr.Column(), format, args...)
}

// ReadValue reads one top-level value, or applies the configured EOFPolicy
// once the stream holds nothing but trailing whitespace.
func (r *JSONReader) ReadValue() (interface{}, error) {
	if err := r.tok.skipWhitespace(); err != nil {
		return nil, err
	}
	tok, err := r.nextToken()
	if err != nil {
		return nil, err
	}
	if tok == tokJSONEOF {
		switch r.eofPolicy {
		case EOFValue:
			return r.eofValue, nil
		case EOFThunk:
			return r.eofThunk()
		default:
			return nil, newEndOfInputErr(r.lnr.Line(), r.lnr.Column(), "no more JSON values")
		}
	}
	return r.readValueFromToken(tok)
}

func (r *JSONReader) readValueFromToken(tok jsonToken) (interface{}, error) {
	switch tok {
	case tokObjectOpen:
		return r.readObject()
	case tokArrayOpen:
		return r.readArray()
	case tokString:
		if v, ok := r.tok.TakeFastValue(); ok {
			return v, nil
		}
		return r.buf.Value(r.table), nil
	case tokNumber:
		return r.tok.number, nil
	case tokTrue:
		return true, nil
	case tokFalse:
		return false, nil
	case tokNull:
		return nil, nil
	case tokJSONEOF:
		return nil, newEndOfInputErr(r.lnr.Line(), r.lnr.Column(), "unexpected end of input, expected a value")
	default:
		return nil, r.posErr("unexpected token, expected a value")
	}
}

func (r *JSONReader) readArray() (interface{}, error) {
	acc := r.arrayVisitor.NewArray()

	tok, err := r.nextToken()
	if err != nil {
		return nil, err
	}
	if tok == tokArrayClose {
		return r.arrayVisitor.Finalize(acc), nil
	}

	for {
		v, err := r.readValueFromToken(tok)
		if err != nil {
			return nil, err
		}
		acc = r.arrayVisitor.OnValue(acc, v)

		tok, err = r.nextToken()
		if err != nil {
			return nil, err
		}
		switch tok {
		case tokArrayClose:
			return r.arrayVisitor.Finalize(acc), nil
		case tokComma:
			tok, err = r.nextToken()
			if err != nil {
				return nil, err
			}
			if tok == tokArrayClose {
				return nil, r.posErr("trailing comma in array")
			}
		default:
			return nil, r.posErr("expected ',' or ']' in array")
		}
	}
}

func (r *JSONReader) readObject() (interface{}, error) {
	acc := r.objectVisitor.NewObject()

	tok, err := r.nextToken()
	if err != nil {
		return nil, err
	}
	if tok == tokObjectClose {
		return r.objectVisitor.Finalize(acc), nil
	}

	for {
		if tok != tokString {
			return nil, r.posErr("expected a string key in object")
		}
		var key interface{}
		if v, ok := r.tok.TakeFastValue(); ok {
			key = v
		} else {
			key = r.buf.Value(r.table)
		}
		keyStr, _ := key.(string)

		colon, err := r.nextToken()
		if err != nil {
			return nil, err
		}
		if colon != tokColon {
			return nil, r.posErr("expected ':' after object key")
		}

		valTok, err := r.nextToken()
		if err != nil {
			return nil, err
		}
		v, err := r.readValueFromToken(valTok)
		if err != nil {
			return nil, err
		}
		acc = r.objectVisitor.OnKV(acc, keyStr, v)

		tok, err = r.nextToken()
		if err != nil {
			return nil, err
		}
		switch tok {
		case tokObjectClose:
			return r.objectVisitor.Finalize(acc), nil
		case tokComma:
			tok, err = r.nextToken()
			if err != nil {
				return nil, err
			}
			if tok == tokObjectClose {
				return nil, r.posErr("trailing comma in object")
			}
		default:
			return nil, r.posErr("expected ',' or '}' in object")
		}
	}
}

// ReadAll reads every remaining top-level value and stops at end of stream
// with a nil error, regardless of the reader's configured EOFPolicy.
func (r *JSONReader) ReadAll() ([]interface{}, error) {
	var values []interface{}
	for {
		if err := r.tok.skipWhitespace(); err != nil {
			return values, err
		}
		tok, err := r.nextToken()
		if err != nil {
			return values, err
		}
		if tok == tokJSONEOF {
			return values, nil
		}
		v, err := r.readValueFromToken(tok)
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
}

// WithReaderLogger attaches a Logger used for Close-time secondary errors,
// propagating it down to the async supplier (if any) where such errors
// actually arise, mirroring CSVReader.WithReaderLogger.
func (r *JSONReader) WithReaderLogger(l Logger) *JSONReader {
	r.logger = l
	r.charReader.SetLogger(l)
	return r
}

// Close closes the underlying CharReader (and transitively any async
// supplier, joining its producer goroutine). A secondary error masked by
// the one returned here is logged via the reader's Logger, matching
// spec.md section 7's teardown policy.
func (r *JSONReader) Close() error {
	return r.charReader.Close()
}
