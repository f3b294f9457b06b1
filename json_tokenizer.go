package charred

import (
	"io"
	"math/big"
	"strconv"
)

// jsonToken is a structural lexeme spec.md section 4.7 names: punctuation
// plus the three literal keywords and the two multi-character classes
// (string, number) whose content the tokenizer decodes inline into the
// reader's shared CharBuffer rather than returning raw text.
type jsonToken int

const (
	tokObjectOpen jsonToken = iota
	tokObjectClose
	tokArrayOpen
	tokArrayClose
	tokComma
	tokColon
	tokString
	tokNumber
	tokTrue
	tokFalse
	tokNull
	tokJSONEOF
)

// jsonTokenizer turns a LineNumberReader-wrapped CharReader into jsonTokens,
// decoding string escapes and number literals as it goes. Position
// information for error messages comes from the LineNumberReader, which
// CharReader is itself layered on (see NewJSONReader).
type jsonTokenizer struct {
	r   *CharReader
	lnr *LineNumberReader
	buf *CharBuffer

	// number holds the decoded value after a tokNumber.
	number interface{}

	// table canonicalizes string/key values when set (mirrors JSONReader's
	// own table field; kept here too so decodeString's fast path can intern
	// without routing through JSONReader).
	table *StringTable

	// stringValue/stringValueValid carry the zero-copy fast-path result of
	// spec.md section 4.1, reused for JSON strings per section 4.7: set by
	// decodeString when a string has no escapes and closes within the
	// current chunk, letting the caller skip buf.Value() entirely.
	stringValue      interface{}
	stringValueValid bool

	// bigDecimal and doubleFn configure decodeNumber's real-number
	// construction (spec.md section 4.7's "bigdec"/"double-fn" options,
	// wired through JSONReader's WithBigDecimal/WithDoubleFn). doubleFn, if
	// set, takes precedence over bigDecimal.
	bigDecimal bool
	doubleFn   DoubleFn

	// pending holds runes that decodeString's surrogate lookahead consumed
	// but must replay, in LIFO order (the next readRune pops the last one
	// pushed). CharReader itself only supports a single rune of pushback,
	// which isn't enough to rewind the two runes a failed "\uDCxx" lookahead
	// can consume.
	pending []rune
}

// readRune returns the next pending replayed rune if any, else reads a new
// one from the underlying CharReader.
func (t *jsonTokenizer) readRune() (rune, error) {
	if n := len(t.pending); n > 0 {
		r := t.pending[n-1]
		t.pending = t.pending[:n-1]
		return r, nil
	}
	return t.r.ReadRune()
}

// unreadRune queues r to be replayed by the next readRune call, ahead of
// anything already queued.
func (t *jsonTokenizer) unreadRune(r rune) {
	t.pending = append(t.pending, r)
}

func newJSONTokenizer(r *CharReader, lnr *LineNumberReader, buf *CharBuffer) *jsonTokenizer {
	return &jsonTokenizer{r: r, lnr: lnr, buf: buf}
}

func isJSONWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// skipWhitespace advances past JSON whitespace, leaving the next
// significant character unread.
func (t *jsonTokenizer) skipWhitespace() error {
	for {
		r, err := t.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !isJSONWhitespace(r) {
			return t.r.Pushback()
		}
	}
}

// next reads the next token, skipping leading whitespace. For tokString the
// decoded text is left in t.buf; for tokNumber the decoded value is left in
// t.number.
func (t *jsonTokenizer) next() (jsonToken, error) {
	if err := t.skipWhitespace(); err != nil {
		return 0, err
	}

	r, err := t.r.ReadRune()
	if err != nil {
		if err == io.EOF {
			return tokJSONEOF, nil
		}
		return 0, err
	}

	switch r {
	case '{':
		return tokObjectOpen, nil
	case '}':
		return tokObjectClose, nil
	case '[':
		return tokArrayOpen, nil
	case ']':
		return tokArrayClose, nil
	case ',':
		return tokComma, nil
	case ':':
		return tokColon, nil
	case '"':
		if err := t.decodeString(); err != nil {
			return 0, err
		}
		return tokString, nil
	case 't':
		if err := t.expectLiteral("rue"); err != nil {
			return 0, err
		}
		return tokTrue, nil
	case 'f':
		if err := t.expectLiteral("alse"); err != nil {
			return 0, err
		}
		return tokFalse, nil
	case 'n':
		if err := t.expectLiteral("ull"); err != nil {
			return 0, err
		}
		return tokNull, nil
	case '-':
		return t.decodeNumber(r)
	default:
		if isDigit(r) {
			return t.decodeNumber(r)
		}
		return 0, t.inputShapeErr("unexpected character %q", r)
	}
}

func (t *jsonTokenizer) inputShapeErr(format string, args ...interface{}) error {
	return newInputShapeErr(t.lnr.Line(), t.lnr.Column(), format, args...)
}

func (t *jsonTokenizer) expectLiteral(rest string) error {
	for _, want := range rest {
		r, err := t.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				return t.inputShapeErr("unexpected end of input inside literal")
			}
			return err
		}
		if r != want {
			return t.inputShapeErr("invalid literal, expected %q", want)
		}
	}
	return nil
}

// decodeString consumes the body of a JSON string (the opening quote has
// already been read) into t.buf, honoring the escapes of spec.md section
// 4.7. Unpaired surrogate escapes round-trip as their raw 16-bit value, the
// one permissive extension to RFC 8259 the spec calls out.
func (t *jsonTokenizer) decodeString() error {
	t.buf.Clear()
	t.stringValueValid = false
	if t.tryFastString() {
		return nil
	}
	for {
		r, err := t.readRune()
		if err != nil {
			if err == io.EOF {
				return t.inputShapeErr("unterminated string")
			}
			return err
		}
		if r == '"' {
			return nil
		}
		if r != '\\' {
			t.buf.AppendRune(r)
			continue
		}

		esc, err := t.readRune()
		if err != nil {
			if err == io.EOF {
				return t.inputShapeErr("unterminated escape")
			}
			return err
		}
		switch esc {
		case '"', '\\', '/':
			t.buf.AppendRune(esc)
		case 'b':
			t.buf.AppendRune('\b')
		case 'f':
			t.buf.AppendRune('\f')
		case 'n':
			t.buf.AppendRune('\n')
		case 'r':
			t.buf.AppendRune('\r')
		case 't':
			t.buf.AppendRune('\t')
		case 'u':
			cp, err := t.decodeHex4()
			if err != nil {
				return err
			}
			if cp >= 0xD800 && cp <= 0xDBFF {
				lo, ok, err := t.tryDecodeLowSurrogate()
				if err != nil {
					return err
				}
				if ok {
					combined := 0x10000 + (rune(cp)-0xD800)*0x400 + (rune(lo) - 0xDC00)
					t.buf.AppendRune(combined)
					continue
				}
			}
			t.buf.AppendRune(rune(cp))
		default:
			return t.inputShapeErr("invalid escape %q", esc)
		}
	}
}

// tryFastString attempts the zero-copy fast path for a string with no
// escapes that closes within the current chunk. It consumes nothing and
// returns false if the string doesn't qualify (an escape or the chunk
// boundary comes first), leaving decodeString's normal rune-by-rune loop to
// take over from the same position.
func (t *jsonTokenizer) tryFastString() bool {
	chunk := t.r.Chunk()
	n := len(chunk)
	pos := t.r.Position()

	for i := pos; i < n; i++ {
		switch chunk[i] {
		case '"':
			t.stringValue = t.buf.ValueFromChunk(chunk, pos, i, t.table)
			t.stringValueValid = true
			t.r.SetPosition(i + 1)
			return true
		case '\\':
			return false
		}
	}
	return false
}

// TakeFastValue returns the zero-copy value produced by the most recent
// decodeString call, if any. JSONReader checks this before falling back to
// buf.Value().
func (t *jsonTokenizer) TakeFastValue() (interface{}, bool) {
	return t.stringValue, t.stringValueValid
}

func (t *jsonTokenizer) decodeHex4() (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		r, err := t.readRune()
		if err != nil {
			if err == io.EOF {
				return 0, t.inputShapeErr("unterminated unicode escape")
			}
			return 0, err
		}
		d, ok := hexDigit(r)
		if !ok {
			return 0, t.inputShapeErr("invalid hex digit %q in unicode escape", r)
		}
		v = v<<4 | uint32(d)
	}
	return v, nil
}

// tryDecodeLowSurrogate peeks for a "\uDCxx"-shaped low surrogate following
// a high surrogate. Any way the peek can fail to be a valid low surrogate --
// no backslash, a non-"u" escape ("\uD800\n" is well-formed JSON), or a
// "\uXXXX" whose value isn't in the low-surrogate range -- means the high
// surrogate is unpaired (spec.md section 9: unpaired surrogates pass through
// as-is), and everything this peek consumed is replayed through t.pending so
// decodeString reprocesses it as fresh escape content.
func (t *jsonTokenizer) tryDecodeLowSurrogate() (uint32, bool, error) {
	r1, err := t.r.ReadRune()
	if err != nil {
		if err == io.EOF {
			return 0, false, nil
		}
		return 0, false, err
	}
	if r1 != '\\' {
		if perr := t.r.Pushback(); perr != nil {
			return 0, false, perr
		}
		return 0, false, nil
	}

	r2, err := t.r.ReadRune()
	if err != nil {
		if err == io.EOF {
			// "\uD800\" at end of input: replay the backslash so
			// decodeString's own EOF handling reports it as an unterminated
			// escape.
			t.unreadRune(r1)
			return 0, false, nil
		}
		return 0, false, err
	}
	if r2 != 'u' {
		t.unreadRune(r2)
		t.unreadRune(r1)
		return 0, false, nil
	}

	cp, hex, err := t.peekHex4()
	if err != nil {
		return 0, false, err
	}
	if cp < 0xDC00 || cp > 0xDFFF {
		consumed := append([]rune{r1, r2}, hex...)
		for i := len(consumed) - 1; i >= 0; i-- {
			t.unreadRune(consumed[i])
		}
		return 0, false, nil
	}
	return cp, true, nil
}

// peekHex4 reads four hex digits like decodeHex4, additionally returning the
// runes it consumed so tryDecodeLowSurrogate can replay them verbatim when
// they turn out not to form a low surrogate.
func (t *jsonTokenizer) peekHex4() (uint32, []rune, error) {
	var v uint32
	runes := make([]rune, 0, 4)
	for i := 0; i < 4; i++ {
		r, err := t.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				return 0, runes, t.inputShapeErr("unterminated unicode escape")
			}
			return 0, runes, err
		}
		runes = append(runes, r)
		d, ok := hexDigit(r)
		if !ok {
			return 0, runes, t.inputShapeErr("invalid hex digit %q in unicode escape", r)
		}
		v = v<<4 | uint32(d)
	}
	return v, runes, nil
}

func hexDigit(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10, true
	}
	return 0, false
}

// decodeNumber consumes a JSON number literal starting with first (already
// read), deciding among int64, *big.Int, and a real-number value (the
// doubleFn result, *big.Float, or float64) per spec.md section 4.7's
// precision policy.
func (t *jsonTokenizer) decodeNumber(first rune) (jsonToken, error) {
	t.buf.Clear()
	t.buf.AppendRune(first)

	isFloat := false
	for {
		r, err := t.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		switch {
		case isDigit(r):
			t.buf.AppendRune(r)
		case r == '.' || r == 'e' || r == 'E' || r == '+' || r == '-':
			isFloat = isFloat || r == '.' || r == 'e' || r == 'E'
			t.buf.AppendRune(r)
		default:
			if perr := t.r.Pushback(); perr != nil {
				return 0, perr
			}
			goto decode
		}
	}

decode:
	text := t.buf.RawString()
	if isFloat {
		if t.doubleFn != nil {
			v, err := t.doubleFn(text)
			if err != nil {
				return 0, t.inputShapeErr("double-fn rejected number literal %q: %v", text, err)
			}
			t.number = v
			return tokNumber, nil
		}
		if t.bigDecimal {
			bf, ok := new(big.Float).SetString(text)
			if !ok {
				return 0, t.inputShapeErr("invalid number literal %q", text)
			}
			t.number = bf
			return tokNumber, nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, t.inputShapeErr("invalid number literal %q", text)
		}
		t.number = f
		return tokNumber, nil
	}

	if iv, err := strconv.ParseInt(text, 10, 64); err == nil {
		t.number = iv
		return tokNumber, nil
	}
	bi, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return 0, t.inputShapeErr("invalid number literal %q", text)
	}
	t.number = bi
	return tokNumber, nil
}
