package charred

import (
	"bufio"
	"fmt"
	"io"
)

// Newline selects the line terminator CSVWriter emits between rows.
type Newline int

const (
	NewlineLF Newline = iota
	NewlineCR
	NewlineCRLF
)

// QuotePolicy decides whether a field's already-stringified text must be
// quoted. The default, QuoteMinimal, mirrors fieldNeedsQuote from the
// teacher's sibling writer: quote only when the field contains the
// separator, the quote character, or a line terminator.
type QuotePolicy func(field string, separator, quote rune) bool

// QuoteMinimal quotes a field only when required to round-trip it.
func QuoteMinimal(field string, separator, quote rune) bool {
	for _, r := range field {
		if r == separator || r == quote || r == '\n' || r == '\r' {
			return true
		}
	}
	return false
}

// QuoteAlways quotes every field unconditionally.
func QuoteAlways(field string, separator, quote rune) bool { return true }

// CSVWriter is the C8 component of spec.md section 4.6: it stringifies each
// row value with Stringify (or fmt.Sprint by default) and writes a quoted or
// bare CSV field, buffering through a bufio.Writer the way the teacher's
// writer.go does.
type CSVWriter struct {
	dst *bufio.Writer

	Separator rune
	Quote     rune
	Newline   Newline
	Quoting   QuotePolicy

	// Stringify converts a row value into its field text. The zero value
	// uses fmt.Sprint, sufficient for the string/nil/numeric values a
	// CSVReader produces; callers with richer value types (spec.md's
	// Keyword, for instance) supply their own.
	Stringify func(v interface{}) string

	err error
}

// WriterOption mutates a CSVWriter at construction time.
type WriterOption func(*CSVWriter)

func WithWriterSeparator(r rune) WriterOption { return func(w *CSVWriter) { w.Separator = r } }
func WithWriterQuote(r rune) WriterOption     { return func(w *CSVWriter) { w.Quote = r } }
func WithWriterNewline(n Newline) WriterOption {
	return func(w *CSVWriter) { w.Newline = n }
}
func WithQuotePolicy(p QuotePolicy) WriterOption { return func(w *CSVWriter) { w.Quoting = p } }
func WithStringifier(f func(v interface{}) string) WriterOption {
	return func(w *CSVWriter) { w.Stringify = f }
}

// NewCSVWriter builds a CSVWriter over dst with comma separator, double-quote
// quoting, LF newlines, and QuoteMinimal quoting.
func NewCSVWriter(dst io.Writer, opts ...WriterOption) *CSVWriter {
	w := &CSVWriter{
		dst:       bufio.NewWriter(dst),
		Separator: ',',
		Quote:     '"',
		Newline:   NewlineLF,
		Quoting:   QuoteMinimal,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *CSVWriter) stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if w.Stringify != nil {
		return w.Stringify(v)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// WriteRow writes one row. row must range over its fields in order; []
// interface{} and []string both satisfy this via the two helpers below, so
// WriteRow itself takes the already-expanded field list.
func (w *CSVWriter) WriteRow(fields []interface{}) error {
	if w.err != nil {
		return w.err
	}
	for i, f := range fields {
		if i > 0 {
			if err := w.writeRune(w.Separator); err != nil {
				return w.fail(err)
			}
		}
		if err := w.writeField(w.stringify(f)); err != nil {
			return w.fail(err)
		}
	}
	return w.fail(w.writeNewline())
}

// WriteStringRow is a convenience wrapper for the common case of
// already-stringified fields.
func (w *CSVWriter) WriteStringRow(fields []string) error {
	if w.err != nil {
		return w.err
	}
	for i, f := range fields {
		if i > 0 {
			if err := w.writeRune(w.Separator); err != nil {
				return w.fail(err)
			}
		}
		if err := w.writeField(f); err != nil {
			return w.fail(err)
		}
	}
	return w.fail(w.writeNewline())
}

// WriteAll writes every row in rows, flushing once at the end.
func (w *CSVWriter) WriteAll(rows [][]interface{}) error {
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (w *CSVWriter) writeField(field string) error {
	needsQuote := w.Quoting != nil && w.Quoting(field, w.Separator, w.Quote)
	if !needsQuote {
		_, err := w.dst.WriteString(field)
		return err
	}

	if err := w.writeRune(w.Quote); err != nil {
		return err
	}
	start := 0
	runes := []rune(field)
	for i, r := range runes {
		if r == w.Quote {
			if start < i {
				if _, err := w.dst.WriteString(string(runes[start:i])); err != nil {
					return err
				}
			}
			if err := w.writeRune(w.Quote); err != nil {
				return err
			}
			if err := w.writeRune(w.Quote); err != nil {
				return err
			}
			start = i + 1
		}
	}
	if start < len(runes) {
		if _, err := w.dst.WriteString(string(runes[start:])); err != nil {
			return err
		}
	}
	return w.writeRune(w.Quote)
}

func (w *CSVWriter) writeNewline() error {
	switch w.Newline {
	case NewlineCRLF:
		_, err := w.dst.WriteString("\r\n")
		return err
	case NewlineCR:
		return w.dst.WriteByte('\r')
	default:
		return w.dst.WriteByte('\n')
	}
}

func (w *CSVWriter) writeRune(r rune) error {
	_, err := w.dst.WriteRune(r)
	return err
}

func (w *CSVWriter) fail(err error) error {
	if err != nil {
		w.err = err
	}
	return err
}

// Flush flushes any buffered output to the underlying io.Writer.
func (w *CSVWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.dst.Flush()
}

// Error reports the first error this writer encountered.
func (w *CSVWriter) Error() error { return w.err }
