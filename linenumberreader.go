package charred

import "io"

// LineNumberReader is the optional front-end of spec.md section 4.3: it
// normalizes \r, \n, and \r\n to a single \n while tracking 1-based line and
// column, with its own one-step pushback independent of CharReader's. The
// JSON reader feeds its CharReader's supplier from one of these purely for
// position reporting in error messages; CSV does not need it since its own tokenizer
// already does CRLF lookahead directly against chunks.
type LineNumberReader struct {
	src io.RuneReader

	line, column         int
	prevLine, prevColumn int

	hasPending bool
	pending    rune

	pushedBack bool
	lastRune   rune

	atEOS bool
}

// NewLineNumberReader wraps src, starting at line 1, column 0 (the column
// becomes 1 after the first rune is read).
func NewLineNumberReader(src io.RuneReader) *LineNumberReader {
	return &LineNumberReader{src: src, line: 1}
}

// Line returns the current 1-based line.
func (l *LineNumberReader) Line() int { return l.line }

// Column returns the current 1-based column.
func (l *LineNumberReader) Column() int { return l.column }

// ReadRune returns the next normalized rune, or io.EOF at end of stream.
// Its signature matches io.RuneReader so a LineNumberReader can itself feed
// a BufferSupplier.
func (l *LineNumberReader) ReadRune() (rune, int, error) {
	if l.pushedBack {
		l.pushedBack = false
		return l.apply(l.lastRune), 1, nil
	}
	if l.atEOS {
		return 0, 0, io.EOF
	}
	r, err := l.nextLogical()
	if err != nil {
		l.atEOS = true
		return 0, 0, err
	}
	return l.apply(r), 1, nil
}

// apply advances line/column bookkeeping for a just-produced rune, saving
// the prior position so Pushback can restore it exactly.
func (l *LineNumberReader) apply(r rune) rune {
	l.prevLine, l.prevColumn = l.line, l.column
	l.lastRune = r
	if r == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
	return r
}

// nextLogical reads one normalized rune from src, collapsing \r and \r\n
// into a single \n. A lone \r at the end of a buffer must peek the next
// character to decide whether to swallow a following \n; if that peeked
// character isn't \n, it is buffered as pending so the next call returns it
// first.
func (l *LineNumberReader) nextLogical() (rune, error) {
	var r rune
	if l.hasPending {
		r = l.pending
		l.hasPending = false
	} else {
		var err error
		r, _, err = l.src.ReadRune()
		if err != nil {
			return 0, err
		}
	}

	if r == '\r' {
		nr, _, err := l.src.ReadRune()
		switch {
		case err == nil && nr == '\n':
			// both consumed, collapse to one \n
		case err == nil:
			l.hasPending = true
			l.pending = nr
		case err != io.EOF:
			return 0, err
		}
		r = '\n'
	}
	return r, nil
}

// Pushback restores the last rune read from this LineNumberReader (not from
// its upstream src) along with the line/column it was read at. A pushback
// after EOS is a silent no-op, matching spec.md section 4.3.
func (l *LineNumberReader) Pushback() error {
	if l.atEOS {
		return nil
	}
	if l.pushedBack {
		return newUsageErr("line number reader pushback past the last character read")
	}
	l.pushedBack = true
	l.line, l.column = l.prevLine, l.prevColumn
	return nil
}
