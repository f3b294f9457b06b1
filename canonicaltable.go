package charred

// StringTable is the CanonicalStringTable of spec.md section 4.5: an
// open-addressed array of bucket heads, each bucket a singly linked chain,
// that returns one shared string instance per unique character range.
// It is not safe for concurrent mutation (spec.md section 5) -- sharing one
// across parser instances is the caller's responsibility, threaded in via a
// parser-factory rather than hidden behind package-level state.
type StringTable struct {
	buckets []*tableEntry
	mask    uint32
	size    int
}

type tableEntry struct {
	hash  uint32
	value string
	next  *tableEntry
}

const stringTableLoadFactor = 0.75

// NewStringTable returns an empty table with power-of-two initial capacity.
func NewStringTable() *StringTable {
	return &StringTable{buckets: make([]*tableEntry, 16), mask: 15}
}

// Len reports the number of distinct interned strings.
func (t *StringTable) Len() int {
	return t.size
}

func hashRuneRange(data []rune, start, end int) uint32 {
	h := uint32(0)
	for i := start; i < end; i++ {
		h = 31*h + uint32(data[i])
	}
	return h
}

// rangeEqualsString compares a rune range against a string's own runes
// without allocating: data holds code points directly, s is decoded as we
// walk it.
func rangeEqualsString(data []rune, start, end int, s string) bool {
	i := start
	for _, r := range s {
		if i >= end || data[i] != r {
			return false
		}
		i++
	}
	return i == end
}

// Intern returns the canonical string for data[start:end], constructing and
// storing a fresh one only if no equal string is already present.
func (t *StringTable) Intern(data []rune, start, end int) string {
	h := hashRuneRange(data, start, end)
	idx := h & t.mask
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.hash == h && rangeEqualsString(data, start, end, e.value) {
			return e.value
		}
	}

	s := string(data[start:end])
	t.buckets[idx] = &tableEntry{hash: h, value: s, next: t.buckets[idx]}
	t.size++

	if float64(t.size) > float64(len(t.buckets))*stringTableLoadFactor {
		t.rehash()
	}
	return s
}

// rehash doubles capacity and splits each existing chain into two by the bit
// just above the old mask, preserving each chain's relative order so lookups
// never degrade into a single long list under adversarial insert order.
func (t *StringTable) rehash() {
	oldBuckets := t.buckets
	newBuckets := make([]*tableEntry, len(oldBuckets)*2)
	splitBit := uint32(len(oldBuckets))

	for i, head := range oldBuckets {
		var loHead, loTail, hiHead, hiTail *tableEntry
		for e := head; e != nil; {
			next := e.next
			e.next = nil
			if e.hash&splitBit == 0 {
				if loTail == nil {
					loHead = e
				} else {
					loTail.next = e
				}
				loTail = e
			} else {
				if hiTail == nil {
					hiHead = e
				} else {
					hiTail.next = e
				}
				hiTail = e
			}
			e = next
		}
		newBuckets[i] = loHead
		newBuckets[i+len(oldBuckets)] = hiHead
	}

	t.buckets = newBuckets
	t.mask = uint32(len(newBuckets) - 1)
}
