package charred

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Sentinel error categories from spec.md section 7. Callers distinguish them
// with errors.Is; the wrapped form (via eris) carries the stack frame where
// the category was raised plus whatever position/context a ParseError adds.
var (
	// ErrInputShape covers malformed CSV (EOS inside a quote) and malformed
	// JSON (unexpected token, missing colon/comma, invalid number or escape,
	// non-string key, trailing comma, empty entry).
	ErrInputShape = eris.New("charred: malformed input")

	// ErrNumericRange is raised when the JSON writer is asked to emit NaN or
	// +/-Inf, which JSON has no representation for.
	ErrNumericRange = eris.New("charred: number has no JSON representation")

	// ErrEndOfInput is raised when a reader reaches end-of-stream while a
	// value was still required. Kept distinct from ErrInputShape so callers
	// can treat "ran out of input" as recoverable where "garbled input" is
	// not.
	ErrEndOfInput = eris.New("charred: unexpected end of input")

	// ErrUsage covers caller misconfiguration: a multi-character value for a
	// single-character option, pushback past the one-character limit, or a
	// rotating buffer pool sized below its minimum.
	ErrUsage = eris.New("charred: invalid usage")
)

// ParseError carries the position of an InputShape or EndOfInput failure.
// It participates in errors.Is/errors.As via Unwrap, matching the teacher's
// own *ParseError{Line, Column, Err} shape.
type ParseError struct {
	Line   int
	Column int
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("charred: parse error at line %d, column %d (offset %d): %v", e.Line, e.Column, e.Offset, e.Err)
	}
	return fmt.Sprintf("charred: parse error at line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newInputShapeErr(line, col int, format string, args ...interface{}) error {
	return &ParseError{
		Line:   line,
		Column: col,
		Err:    eris.Wrap(ErrInputShape, fmt.Sprintf(format, args...)),
	}
}

func newEndOfInputErr(line, col int, context string) error {
	return &ParseError{
		Line:   line,
		Column: col,
		Err:    eris.Wrap(ErrEndOfInput, context),
	}
}

func newUsageErr(format string, args ...interface{}) error {
	return eris.Wrap(ErrUsage, fmt.Sprintf(format, args...))
}

func newNumericRangeErr(format string, args ...interface{}) error {
	return eris.Wrap(ErrNumericRange, fmt.Sprintf(format, args...))
}
