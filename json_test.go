package charred

import (
	"bytes"
	"math"
	"math/big"
	"reflect"
	"strings"
	"testing"
)

func readOneValue(t *testing.T, input string, opts ...JSONOption) interface{} {
	t.Helper()
	r, err := NewJSONReader(strings.NewReader(input), opts...)
	if err != nil {
		t.Fatalf("NewJSONReader: %v", err)
	}
	defer r.Close()
	v, err := r.ReadValue()
	if err != nil {
		t.Fatalf("ReadValue(%q): %v", input, err)
	}
	return v
}

func TestJSONReaderPrimitives(t *testing.T) {
	cases := []struct {
		input string
		want  interface{}
	}{
		{"null", nil},
		{"true", true},
		{"false", false},
		{`"hello"`, "hello"},
		{"0", int64(0)},
		{"-0", int64(0)},
		{"42", int64(42)},
		{"-17", int64(-17)},
		{"3.25", 3.25},
		{"1e3", 1000.0},
	}
	for _, c := range cases {
		got := readOneValue(t, c.input)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ReadValue(%q) = %#v, want %#v", c.input, got, c.want)
		}
	}
}

func TestJSONReaderLargeIntegerPromotesToBigInt(t *testing.T) {
	got := readOneValue(t, "99999999999999999999999999")
	bi, ok := got.(*big.Int)
	if !ok {
		t.Fatalf("got %T, want *big.Int", got)
	}
	want, _ := new(big.Int).SetString("99999999999999999999999999", 10)
	if bi.Cmp(want) != 0 {
		t.Errorf("got %v, want %v", bi, want)
	}
}

func TestJSONReaderArrayAndObject(t *testing.T) {
	got := readOneValue(t, `{"a":1,"b":[1,2,3],"c":{"nested":true}}`)
	m, ok := got.(map[interface{}]interface{})
	if !ok {
		t.Fatalf("got %T, want map[interface{}]interface{}", got)
	}
	if m["a"] != int64(1) {
		t.Errorf(`m["a"] = %v, want 1`, m["a"])
	}
	arr, ok := m["b"].([]interface{})
	if !ok || !reflect.DeepEqual(arr, []interface{}{int64(1), int64(2), int64(3)}) {
		t.Errorf(`m["b"] = %v`, m["b"])
	}
	nested, ok := m["c"].(map[interface{}]interface{})
	if !ok || nested["nested"] != true {
		t.Errorf(`m["c"] = %v`, m["c"])
	}
}

func TestJSONReaderStringEscapes(t *testing.T) {
	got := readOneValue(t, `"a\tb\n\"c\"A"`)
	want := "a\tb\n\"c\"A"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJSONReaderSurrogatePair(t *testing.T) {
	// U+1F600 GRINNING FACE encoded as a surrogate pair.
	got := readOneValue(t, `"\uD83D`+`\uDE00"`)
	want := "\U0001F600"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJSONReaderUnpairedHighSurrogatePassesThrough(t *testing.T) {
	// A Go string literal cannot spell a lone surrogate with a \u escape, so
	// the expected values give U+D800 as its raw three-byte form ED A0 80.
	cases := []struct {
		input string
		want  string
	}{
		{`"\uD800\n"`, "\xed\xa0\x80\n"},
		{`"\uD800\uD800"`, "\xed\xa0\x80\xed\xa0\x80"},
		{`"\uD800\\"`, "\xed\xa0\x80\\"},
		{`"\uD800"`, "\xed\xa0\x80"},
	}
	for _, c := range cases {
		got := readOneValue(t, c.input)
		if got != c.want {
			t.Errorf("ReadValue(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}

func TestJSONReaderBigDecimal(t *testing.T) {
	const text = "3.1415926535897932384626433832795"
	got := readOneValue(t, text, WithBigDecimal(true))
	bf, ok := got.(*big.Float)
	if !ok {
		t.Fatalf("got %T, want *big.Float", got)
	}
	want, ok := new(big.Float).SetString(text)
	if !ok {
		t.Fatalf("SetString(%q) failed", text)
	}
	if bf.Cmp(want) != 0 {
		t.Errorf("got %v, want %v", bf, want)
	}
}

func TestJSONReaderDoubleFnOverridesBigDecimal(t *testing.T) {
	var seen string
	fn := func(text string) (interface{}, error) {
		seen = text
		return "literal:" + text, nil
	}
	got := readOneValue(t, "2.5", WithBigDecimal(true), WithDoubleFn(fn))
	if got != "literal:2.5" {
		t.Errorf("got %v, want %q", got, "literal:2.5")
	}
	if seen != "2.5" {
		t.Errorf("doubleFn saw %q, want %q", seen, "2.5")
	}
}

func TestJSONReaderTrailingCommaIsError(t *testing.T) {
	r, err := NewJSONReader(strings.NewReader(`{"a":1,}`))
	if err != nil {
		t.Fatalf("NewJSONReader: %v", err)
	}
	defer r.Close()
	if _, err := r.ReadValue(); err == nil {
		t.Errorf("expected an error for a trailing comma")
	}
}

func TestJSONReaderMultipleTopLevelValues(t *testing.T) {
	r, err := NewJSONReader(strings.NewReader("1 2 3"))
	if err != nil {
		t.Fatalf("NewJSONReader: %v", err)
	}
	defer r.Close()
	values, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []interface{}{int64(1), int64(2), int64(3)}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("got %v, want %v", values, want)
	}
}

func TestJSONWriterCompact(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	if err := w.WriteValue([]interface{}{int64(1), "two", nil, true}); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := `[1,"two",null,true]`
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestJSONWriterEscapesUnicodeBySwitch(t *testing.T) {
	const accented = "café"

	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	if err := w.WriteString(accented); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	w.Flush()
	want := "\"caf\\u00e9\""
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	w2 := NewJSONWriter(&buf, WithEscapeUnicode(false))
	if err := w2.WriteString(accented); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	w2.Flush()
	want2 := "\"" + accented + "\""
	if buf.String() != want2 {
		t.Errorf("got %q, want %q", buf.String(), want2)
	}
}

func TestJSONWriterRejectsNaNAndInf(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	if err := w.WriteNumber(math.NaN()); err == nil {
		t.Errorf("expected an error writing NaN")
	}
	if err := w.WriteNumber(math.Inf(1)); err == nil {
		t.Errorf("expected an error writing +Inf")
	}
	if err := w.WriteNumber(math.Inf(-1)); err == nil {
		t.Errorf("expected an error writing -Inf")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	inputs := []string{
		`{"name":"alice","age":30,"tags":["a","b"],"active":true,"extra":null}`,
	}
	for _, in := range inputs {
		r, err := NewJSONReader(strings.NewReader(in))
		if err != nil {
			t.Fatalf("NewJSONReader: %v", err)
		}
		v, err := r.ReadValue()
		r.Close()
		if err != nil {
			t.Fatalf("ReadValue: %v", err)
		}

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		if err := w.WriteValue(v); err != nil {
			t.Fatalf("WriteValue: %v", err)
		}
		w.Flush()

		r2, err := NewJSONReader(strings.NewReader(buf.String()))
		if err != nil {
			t.Fatalf("NewJSONReader (round trip): %v", err)
		}
		defer r2.Close()
		v2, err := r2.ReadValue()
		if err != nil {
			t.Fatalf("ReadValue (round trip): %v", err)
		}
		if !reflect.DeepEqual(v, v2) {
			t.Errorf("round trip mismatch: %v vs %v", v, v2)
		}
	}
}
