package charred

import "io"

// csvToken is one of the five token kinds from spec.md section 3: the
// tokenizer emits one per call, accumulating the current field's unquoted
// text into the shared CharBuffer as a side effect.
type csvToken int

const (
	tokFieldSep csvToken = iota
	tokEOL
	tokEOF
	tokQuoteOpen
	tokComment
)

// csvTokenizer is the per-row tokenizer of spec.md section 4.6/4.9: a
// state-free scanner across rows (its per-row state lives in atRowStart,
// which a RowReader resets via BeginRow for each new row; only the
// currentLine counter for error messages carries over) that is resumable
// across CharReader buffer boundaries.
type csvTokenizer struct {
	r           *CharReader
	d           *Dialect
	buf         *CharBuffer
	atRowStart  bool
	currentLine int

	// fieldValue/fieldValueValid carry the zero-copy fast-path result of
	// spec.md section 4.1: set by the most recent nextField call when a
	// field terminates within the same chunk it started in and nothing has
	// been appended to buf yet, so the caller can use this instead of
	// buf.Value(), skipping the copy through buf entirely.
	fieldValue      interface{}
	fieldValueValid bool
}

func newCSVTokenizer(r *CharReader, d *Dialect, buf *CharBuffer) *csvTokenizer {
	return &csvTokenizer{r: r, d: d, buf: buf, currentLine: 1}
}

// BeginRow resets the row-start flag that gates comment detection: a
// comment marker only starts a comment row when it is the very first
// character of the row, per spec.md section 4.6 ("enableComment flag still
// true").
func (t *csvTokenizer) BeginRow() {
	t.atRowStart = true
}

// nextSpecialRune returns the index of the first separator, line terminator,
// quote, or (if enabled) escape character at or after start, scanning a
// single chunk. This is the hot-path fast scan: the common case of a long
// run of plain field characters is handled by one pass here rather than a
// switch per rune.
func nextSpecialRune(chunk []rune, start int, d *Dialect) int {
	for i := start; i < len(chunk); i++ {
		c := chunk[i]
		if c == d.Separator || c == '\n' || c == '\r' || c == d.Quote {
			return i
		}
		if d.Escape != 0 && c == d.Escape {
			return i
		}
	}
	return -1
}

// nextField scans raw (non-quoted) field content into t.buf until it hits a
// field separator, a line terminator, a quote at the start of the field
// (deferred to readQuotedContent), a comment marker at the start of the
// row, or end of stream. When a field separator or line terminator is found
// in the same chunk the field started in, before anything has been appended
// to buf, the field's value is materialized straight from the chunk (see
// TakeFastValue) instead of being copied through buf.
func (t *csvTokenizer) nextField() (csvToken, error) {
	d := t.d
	buf := t.buf
	t.fieldValueValid = false

outer:
	for {
		chunk := t.r.Chunk()
		n := len(chunk)
		pos := t.r.Position()

		if pos >= n {
			if err := t.r.NextBuffer(); err != nil {
				if err == io.EOF {
					return tokEOF, nil
				}
				return 0, err
			}
			continue outer
		}

		if t.atRowStart {
			t.atRowStart = false
			if d.Comment != 0 && chunk[pos] == d.Comment {
				t.r.SetPosition(pos + 1)
				return tokComment, nil
			}
		}

		fieldStart := pos
		for pos < n {
			idx := nextSpecialRune(chunk, pos, d)
			if idx == -1 {
				buf.AppendRunes(chunk, pos, n)
				t.r.SetPosition(n)
				continue outer
			}

			c := chunk[idx]
			isTerminator := c == d.Separator || c == '\n' || c == '\r'
			if buf.Len() == 0 && isTerminator {
				t.fieldValue = buf.ValueFromChunk(chunk, fieldStart, idx, d.Table)
				t.fieldValueValid = true
				pos = idx
			} else if idx > pos {
				buf.AppendRunes(chunk, pos, idx)
				pos = idx
			}

			switch {
			case c == d.Separator:
				t.r.SetPosition(pos + 1)
				return tokFieldSep, nil

			case c == '\n':
				t.r.SetPosition(pos + 1)
				t.currentLine++
				return tokEOL, nil

			case c == '\r':
				t.r.SetPosition(pos + 1)
				t.currentLine++
				nxt, err := t.r.ReadRune()
				if err == nil {
					if nxt != '\n' {
						if perr := t.r.Pushback(); perr != nil {
							return 0, perr
						}
					}
				} else if err != io.EOF {
					return 0, err
				}
				return tokEOL, nil

			case d.Escape != 0 && c == d.Escape:
				t.r.SetPosition(pos + 1)
				nxt, err := t.r.ReadRune()
				if err != nil {
					if err == io.EOF {
						return tokEOF, nil
					}
					return 0, err
				}
				buf.AppendRune(nxt)
				continue outer

			case c == d.Quote && buf.Len() == 0:
				t.r.SetPosition(pos + 1)
				return tokQuoteOpen, nil

			default:
				// A quote that isn't at the start of the field is a literal
				// character (spec.md scenario 3: `a,3"` keeps its quote).
				buf.AppendRune(c)
				pos++
			}
		}
		t.r.SetPosition(pos)
	}
}

// TakeFastValue returns the zero-copy value produced by the most recent
// nextField call, if any. CSVReader.ReadRow checks this before falling back
// to buf.Value().
func (t *csvTokenizer) TakeFastValue() (interface{}, bool) {
	return t.fieldValue, t.fieldValueValid
}

// readQuotedContent consumes the quoted section opened by a preceding
// tokQuoteOpen, appending content to t.buf. A doubled quote is an escaped
// literal quote; a single quote ends the section (the following character,
// if any, is pushed back so nextField resumes scanning it as plain field
// content). EOS inside the quoted section is a recoverable InputShape
// error, matching spec.md section 4.6.
func (t *csvTokenizer) readQuotedContent() error {
	d := t.d
	buf := t.buf

	for {
		chunk := t.r.Chunk()
		n := len(chunk)
		pos := t.r.Position()

		quoteIdx := -1
		for i := pos; i < n; i++ {
			if chunk[i] == d.Quote {
				quoteIdx = i
				break
			}
		}

		if quoteIdx == -1 {
			buf.AppendRunes(chunk, pos, n)
			t.r.SetPosition(n)
			if err := t.r.NextBuffer(); err != nil {
				if err == io.EOF {
					return newInputShapeErr(t.currentLine, 0, "unterminated quoted field")
				}
				return err
			}
			continue
		}

		buf.AppendRunes(chunk, pos, quoteIdx)
		t.r.SetPosition(quoteIdx + 1)

		nxt, err := t.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				return nil // quote closed exactly at end of stream
			}
			return err
		}
		if nxt == d.Quote {
			buf.AppendRune(d.Quote)
			continue
		}
		if perr := t.r.Pushback(); perr != nil {
			return perr
		}
		return nil
	}
}

// skipCommentLine drains the remainder of a comment row after a tokComment,
// discarding its content.
func (t *csvTokenizer) skipCommentLine() error {
	for {
		chunk := t.r.Chunk()
		n := len(chunk)
		pos := t.r.Position()

		for i := pos; i < n; i++ {
			if chunk[i] == '\n' {
				t.r.SetPosition(i + 1)
				t.currentLine++
				return nil
			}
			if chunk[i] == '\r' {
				t.r.SetPosition(i + 1)
				t.currentLine++
				nxt, err := t.r.ReadRune()
				if err == nil {
					if nxt != '\n' {
						if perr := t.r.Pushback(); perr != nil {
							return perr
						}
					}
				} else if err != io.EOF {
					return err
				}
				return nil
			}
		}
		t.r.SetPosition(n)
		if err := t.r.NextBuffer(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
