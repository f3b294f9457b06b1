package charred

import "unicode"

// CharBuffer is a growable rune accumulator: the scratchpad every tokenizer
// in this package fills a field or string value into before turning it into
// a Go string. It grows geometrically like spec.md section 4.1 requires and
// never shrinks its backing array on Clear, so a single buffer can be reused
// across an entire row or document without reallocating.
type CharBuffer struct {
	data   []rune
	length int

	// TrimLeading skips leading Unicode whitespace when producing a value.
	TrimLeading bool
	// TrimTrailing skips trailing Unicode whitespace when producing a value.
	TrimTrailing bool
	// NilOnEmpty reports the post-trim empty string as nil rather than "".
	NilOnEmpty bool
}

// NewCharBuffer returns an empty buffer with the given trim/nil policy.
func NewCharBuffer(trimLeading, trimTrailing, nilOnEmpty bool) *CharBuffer {
	return &CharBuffer{
		TrimLeading:  trimLeading,
		TrimTrailing: trimTrailing,
		NilOnEmpty:   nilOnEmpty,
	}
}

func (b *CharBuffer) grow(minCap int) {
	if minCap <= len(b.data) {
		return
	}
	newCap := len(b.data)
	if newCap == 0 {
		newCap = 32
	}
	for newCap < minCap {
		newCap *= 2
	}
	nd := make([]rune, newCap)
	copy(nd, b.data[:b.length])
	b.data = nd
}

// AppendRune appends a single code point.
func (b *CharBuffer) AppendRune(r rune) {
	b.grow(b.length + 1)
	b.data[b.length] = r
	b.length++
}

// AppendRunes appends src[start:end].
func (b *CharBuffer) AppendRunes(src []rune, start, end int) {
	n := end - start
	if n <= 0 {
		return
	}
	b.grow(b.length + n)
	copy(b.data[b.length:], src[start:end])
	b.length += n
}

// AppendString appends every rune of s.
func (b *CharBuffer) AppendString(s string) {
	for _, r := range s {
		b.AppendRune(r)
	}
}

// Clear resets the logical length to zero. Capacity is retained.
func (b *CharBuffer) Clear() {
	b.length = 0
}

// Len reports the current logical length.
func (b *CharBuffer) Len() int {
	return b.length
}

// RawString returns the buffer's accumulated content verbatim, bypassing
// trim/nil policy. The JSON number decoder uses this: a number literal's
// digits are never subject to a field's trim settings.
func (b *CharBuffer) RawString() string {
	return string(b.data[:b.length])
}

func trimRange(data []rune, lo, hi int, trimLeading, trimTrailing bool) (int, int) {
	if trimLeading {
		for lo < hi && unicode.IsSpace(data[lo]) {
			lo++
		}
	}
	if trimTrailing {
		for hi > lo && unicode.IsSpace(data[hi-1]) {
			hi--
		}
	}
	return lo, hi
}

// Value materializes the buffer's accumulated content, honoring
// TrimLeading/TrimTrailing/NilOnEmpty. The result is a string, or nil when
// NilOnEmpty is set and the post-trim content is empty. When table is
// non-nil the string is interned through it.
func (b *CharBuffer) Value(table *StringTable) interface{} {
	lo, hi := trimRange(b.data, 0, b.length, b.TrimLeading, b.TrimTrailing)
	if lo == hi {
		if b.NilOnEmpty {
			return nil
		}
		return ""
	}
	if table != nil {
		return table.Intern(b.data, lo, hi)
	}
	return string(b.data[lo:hi])
}

// ValueFromChunk is the fast path described in spec.md section 4.1: when the
// buffer is still empty, a value spanning a single chunk range can be
// materialized directly from that chunk without ever copying into the
// buffer's own backing array. If the buffer already holds content (a value
// that started in one chunk and crossed into another), this falls back to
// appending chunk into the buffer first.
func (b *CharBuffer) ValueFromChunk(chunk []rune, start, end int, table *StringTable) interface{} {
	if b.length != 0 {
		b.AppendRunes(chunk, start, end)
		return b.Value(table)
	}
	lo, hi := trimRange(chunk, start, end, b.TrimLeading, b.TrimTrailing)
	if lo == hi {
		if b.NilOnEmpty {
			return nil
		}
		return ""
	}
	if table != nil {
		return table.Intern(chunk, lo, hi)
	}
	return string(chunk[lo:hi])
}
