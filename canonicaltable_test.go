package charred

import "testing"

func TestStringTableInternDeduplicates(t *testing.T) {
	table := NewStringTable()
	data := []rune("hello world")

	a := table.Intern(data, 0, 5)
	b := table.Intern(data, 6, 11)
	c := table.Intern([]rune("hello"), 0, 5)

	if a == b {
		t.Errorf("distinct ranges %q and %q interned to the same string", string(data[0:5]), string(data[6:11]))
	}
	if a != c {
		t.Errorf("equal ranges interned to different instances: %q != %q", a, c)
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
}

func TestStringTableRehashPreservesLookups(t *testing.T) {
	table := NewStringTable()
	values := make([]string, 0, 64)
	for i := 0; i < 64; i++ {
		s := string(rune('a'+i%26)) + string(rune('A'+i%26)) + string(rune('0'+i%10))
		values = append(values, s)
		table.Intern([]rune(s), 0, len(s))
	}

	for _, s := range values {
		got := table.Intern([]rune(s), 0, len(s))
		if got != s {
			t.Errorf("after rehash, Intern(%q) = %q", s, got)
		}
	}
}

func TestRangeEqualsString(t *testing.T) {
	data := []rune("abcdef")
	if !rangeEqualsString(data, 1, 4, "bcd") {
		t.Errorf("rangeEqualsString should match bcd")
	}
	if rangeEqualsString(data, 1, 4, "bce") {
		t.Errorf("rangeEqualsString should not match bce")
	}
	if rangeEqualsString(data, 1, 4, "bc") {
		t.Errorf("rangeEqualsString should not match a shorter string")
	}
}
