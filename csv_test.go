package charred

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"
)

func readAllRows(t *testing.T, r *CSVReader) [][]interface{} {
	t.Helper()
	var rows [][]interface{}
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadRow: %v", err)
		}
		fields, ok := row.([]interface{})
		if !ok {
			t.Fatalf("row is %T, want []interface{}", row)
		}
		rows = append(rows, fields)
	}
	return rows
}

func TestCSVReaderBasic(t *testing.T) {
	input := "a,b,c\n1,2,3\n"
	r, err := NewCSVReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	defer r.Close()

	rows := readAllRows(t, r)
	want := [][]interface{}{
		{"a", "b", "c"},
		{"1", "2", "3"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestCSVReaderQuotedFieldWithEmbeddedQuoteAndComma(t *testing.T) {
	input := `a,"b,""x""",c` + "\n"
	r, err := NewCSVReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	defer r.Close()

	rows := readAllRows(t, r)
	want := [][]interface{}{{"a", `b,"x"`, "c"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestCSVReaderQuoteNotAtFieldStartIsLiteral(t *testing.T) {
	// spec.md scenario: `a,3"` keeps its quote since it doesn't open the field.
	input := `a,3"` + "\n"
	r, err := NewCSVReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	defer r.Close()

	rows := readAllRows(t, r)
	want := [][]interface{}{{"a", `3"`}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestCSVReaderCommentRow(t *testing.T) {
	input := "a,b\n#a comment,ignored\nc,d\n"
	r, err := NewCSVReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	defer r.Close()

	rows := readAllRows(t, r)
	want := [][]interface{}{{"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestCSVReaderTrailingNewlineVsNoTerminator(t *testing.T) {
	for _, input := range []string{"a,b\n", "a,b", "a,b\r\n", "a,b\r"} {
		r, err := NewCSVReader(strings.NewReader(input))
		if err != nil {
			t.Fatalf("NewCSVReader(%q): %v", input, err)
		}
		rows := readAllRows(t, r)
		r.Close()
		want := [][]interface{}{{"a", "b"}}
		if !reflect.DeepEqual(rows, want) {
			t.Errorf("input %q: rows = %v, want %v", input, rows, want)
		}
	}
}

func TestCSVReaderChunkSizeIndependence(t *testing.T) {
	var b strings.Builder
	b.WriteString("h1,h2,h3\n")
	for i := 0; i < 200; i++ {
		b.WriteString("field one,\"field, two\",field three\n")
	}
	input := b.String()

	var prev [][]interface{}
	for _, chunkSize := range []int{2, 7, 1024} {
		supplier := NewAllocatingSupplier(strings.NewReader(input), chunkSize)
		r, err := NewCSVReaderFromSupplier(supplier)
		if err != nil {
			t.Fatalf("chunk size %d: %v", chunkSize, err)
		}
		rows := readAllRows(t, r)
		r.Close()
		if prev != nil && !reflect.DeepEqual(prev, rows) {
			t.Fatalf("chunk size %d produced different rows than a prior chunk size", chunkSize)
		}
		prev = rows
	}
}

func TestCSVReaderColumnAllowList(t *testing.T) {
	input := "name,age,city\nalice,30,nyc\n"
	r, err := NewCSVReader(strings.NewReader(input), WithColumnAllowList("name", "city"))
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	defer r.Close()

	rows := readAllRows(t, r)
	want := [][]interface{}{{"name", "city"}, {"alice", "nyc"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestCSVWriterQuotesOnlyWhenNecessary(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	if err := w.WriteStringRow([]string{"plain", `has,comma`, "has\"quote", "clean"}); err != nil {
		t.Fatalf("WriteStringRow: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "plain,\"has,comma\",\"has\"\"quote\",clean\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	rows := [][]interface{}{
		{"alpha", "be,ta", `ga"mma`},
		{"1", "2", "3"},
	}

	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	r, err := NewCSVReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	defer r.Close()

	got := readAllRows(t, r)
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("round trip = %v, want %v", got, rows)
	}
}

func TestCSVReaderEmptyAndWhitespaceOnlyYieldsZeroRows(t *testing.T) {
	for _, input := range []string{"", "   ", "\ufeff", "\ufeff   \n  "} {
		r, err := NewCSVReader(strings.NewReader(input))
		if err != nil {
			t.Fatalf("NewCSVReader(%q): %v", input, err)
		}
		rows := readAllRows(t, r)
		r.Close()
		if len(rows) != 0 {
			t.Errorf("input %q: rows = %v, want none", input, rows)
		}
	}
}

func TestCSVReaderStripsLeadingBOM(t *testing.T) {
	input := "\ufeffa,b\n1,2\n"
	r, err := NewCSVReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	defer r.Close()

	rows := readAllRows(t, r)
	want := [][]interface{}{{"a", "b"}, {"1", "2"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestCSVWriterNewlineCR(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, WithWriterNewline(NewlineCR))
	if err := w.WriteStringRow([]string{"a", "b"}); err != nil {
		t.Fatalf("WriteStringRow: %v", err)
	}
	if err := w.WriteStringRow([]string{"c", "d"}); err != nil {
		t.Fatalf("WriteStringRow: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "a,b\rc,d\r"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestConcatCSVSkipsHeadersAfterFirst(t *testing.T) {
	inputs := []string{
		"name,age\nalice,30\n",
		"name,age\nbob,40\n",
	}

	var got [][]interface{}
	sink := func(row interface{}) error {
		got = append(got, row.([]interface{}))
		return nil
	}

	openers := make([]func() (*CSVReader, error), len(inputs))
	for i, in := range inputs {
		in := in
		openers[i] = func() (*CSVReader, error) { return NewCSVReader(strings.NewReader(in)) }
	}

	if err := ConcatCSV(true, sink, openers...); err != nil {
		t.Fatalf("ConcatCSV: %v", err)
	}

	want := [][]interface{}{
		{"name", "age"},
		{"alice", "30"},
		{"bob", "40"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got = %v, want %v", got, want)
	}
}
