package charred

// RowProfile selects how RowReader materializes each row: an Immutable row
// is a freshly allocated, append-only slice handed to the caller; a Mutable
// row reuses the same backing slice across calls, avoiding per-row
// allocation at the cost of the caller needing to copy anything it wants to
// retain past the next Read (spec.md section 4.6, "persistent sequence vs.
// mutable list").
type RowProfile int

const (
	// ProfileImmutable returns a fresh slice per row.
	ProfileImmutable RowProfile = iota
	// ProfileMutable reuses the RowReader's internal slice across rows.
	ProfileMutable
)

// Dialect holds every CSV knob from spec.md section 6.
type Dialect struct {
	Separator rune
	Quote     rune
	// Escape is the escape character; 0 disables escape handling.
	Escape rune
	// Comment is the comment-row marker; 0 disables comment rows.
	Comment rune

	TrimLeadingWhitespace  bool
	TrimTrailingWhitespace bool
	NilOnEmpty             bool

	Profile RowProfile

	Allow *ColumnSelector
	Block *ColumnSelector

	// Table, when non-nil, interns every field value through a shared
	// CanonicalStringTable (spec.md section 4.5) instead of allocating a
	// fresh string per field.
	Table *StringTable
}

// DefaultDialect matches the Open Question decision in spec.md section 9:
// trim defaults are true for the supplier-facing API (this one); the
// drop-in-compatible entry point (NewLegacyCSVReader) flips both to false to
// match encoding/csv's stricter, no-surprise convention. See DESIGN.md.
func DefaultDialect() Dialect {
	return Dialect{
		Separator:              ',',
		Quote:                  '"',
		Escape:                 0,
		Comment:                '#',
		TrimLeadingWhitespace:  true,
		TrimTrailingWhitespace: true,
		NilOnEmpty:             false,
		Profile:                ProfileImmutable,
	}
}

// LegacyDialect is DefaultDialect with both trim flags flipped to false, for
// the backward-compatible entry point.
func LegacyDialect() Dialect {
	d := DefaultDialect()
	d.TrimLeadingWhitespace = false
	d.TrimTrailingWhitespace = false
	return d
}

// DialectOption mutates a Dialect at construction time.
type DialectOption func(*Dialect)

func WithSeparator(r rune) DialectOption { return func(d *Dialect) { d.Separator = r } }
func WithQuote(r rune) DialectOption     { return func(d *Dialect) { d.Quote = r } }
func WithEscape(r rune) DialectOption    { return func(d *Dialect) { d.Escape = r } }
func WithComment(r rune) DialectOption   { return func(d *Dialect) { d.Comment = r } }

func WithTrimLeadingWhitespace(v bool) DialectOption {
	return func(d *Dialect) { d.TrimLeadingWhitespace = v }
}
func WithTrimTrailingWhitespace(v bool) DialectOption {
	return func(d *Dialect) { d.TrimTrailingWhitespace = v }
}
func WithNilOnEmpty(v bool) DialectOption { return func(d *Dialect) { d.NilOnEmpty = v } }
func WithRowProfile(p RowProfile) DialectOption {
	return func(d *Dialect) { d.Profile = p }
}

// WithColumnAllowList restricts emitted fields to the given 0-based indices
// or column names (resolved against the first row read).
func WithColumnAllowList(cols ...interface{}) DialectOption {
	return func(d *Dialect) { d.Allow = newColumnSelector(cols, true) }
}

// WithColumnBlockList excludes the given 0-based indices or column names.
func WithColumnBlockList(cols ...interface{}) DialectOption {
	return func(d *Dialect) { d.Block = newColumnSelector(cols, false) }
}

// WithStringTable interns every field value through table rather than
// allocating a fresh string per field. Sharing one table across many
// parses of small documents is the scenario spec.md section 9 calls out
// ("Canonical tables as shared state").
func WithStringTable(table *StringTable) DialectOption {
	return func(d *Dialect) { d.Table = table }
}

// ParseSingleRune validates that s is exactly one code point, the Usage
// check spec.md section 7 requires for drop-in constructors that still
// accept string-typed dialect options.
func ParseSingleRune(s string) (rune, error) {
	rs := []rune(s)
	if len(rs) != 1 {
		return 0, newUsageErr("expected a single-character option, got %q", s)
	}
	return rs[0], nil
}

// ColumnSelector is the row predicate of spec.md's glossary: a bitset of
// accepted column indices, resolved once the first row has been read: names
// are matched against that row's fields, 0-based indices are taken as given.
type ColumnSelector struct {
	items    []interface{}
	allow    bool
	resolved bool
	mask     map[int]bool
}

func newColumnSelector(items []interface{}, allow bool) *ColumnSelector {
	return &ColumnSelector{items: items, allow: allow}
}

func (c *ColumnSelector) resolve(header []interface{}) {
	c.mask = make(map[int]bool, len(c.items))
	for _, it := range c.items {
		switch v := it.(type) {
		case int:
			c.mask[v] = true
		case string:
			for i, h := range header {
				if hs, ok := h.(string); ok && hs == v {
					c.mask[i] = true
				}
			}
		}
	}
	c.resolved = true
}

// Emit reports whether column idx should be emitted. Before the selector has
// been resolved against a header row (e.g. while that very header row is
// being read), everything is emitted.
func (c *ColumnSelector) Emit(idx int) bool {
	if c == nil || !c.resolved {
		return true
	}
	_, in := c.mask[idx]
	if c.allow {
		return in
	}
	return !in
}
