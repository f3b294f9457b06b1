package charred

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/go-kit/log"
)

func TestCharReaderReadRuneAndPushback(t *testing.T) {
	supplier := NewAllocatingSupplier(strings.NewReader("abc"), 2)
	r, err := NewCharReader(supplier)
	if err != nil {
		t.Fatalf("NewCharReader: %v", err)
	}
	defer r.Close()

	for _, want := range []rune{'a', 'b'} {
		got, err := r.ReadRune()
		if err != nil {
			t.Fatalf("ReadRune: %v", err)
		}
		if got != want {
			t.Errorf("ReadRune() = %q, want %q", got, want)
		}
	}
	if err := r.Pushback(); err != nil {
		t.Fatalf("Pushback: %v", err)
	}
	got, err := r.ReadRune()
	if err != nil || got != 'b' {
		t.Errorf("after pushback, ReadRune() = %q, %v, want 'b', nil", got, err)
	}

	got, err = r.ReadRune()
	if err != nil || got != 'c' {
		t.Errorf("ReadRune() = %q, %v, want 'c', nil", got, err)
	}
	if _, err := r.ReadRune(); err != io.EOF {
		t.Errorf("ReadRune() at end = %v, want io.EOF", err)
	}
}

func TestCharReaderPushbackPastStartIsUsageError(t *testing.T) {
	supplier := NewAllocatingSupplier(strings.NewReader("a"), 4)
	r, err := NewCharReader(supplier)
	if err != nil {
		t.Fatalf("NewCharReader: %v", err)
	}
	defer r.Close()
	if err := r.Pushback(); err == nil {
		t.Errorf("expected a Usage error pushing back before any read")
	}
}

func TestAsyncQueueSupplierDeliversSameSequence(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 200)

	direct := NewAllocatingSupplier(strings.NewReader(text), 37)
	var directRunes []rune
	for {
		buf, err := direct.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("direct.Next: %v", err)
		}
		directRunes = append(directRunes, buf...)
	}

	rotating, err := NewRotatingSupplier(strings.NewReader(text), 37, 4)
	if err != nil {
		t.Fatalf("NewRotatingSupplier: %v", err)
	}
	async := NewAsyncQueueSupplier(rotating, 2)
	var asyncRunes []rune
	for {
		buf, err := async.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("async.Next: %v", err)
		}
		asyncRunes = append(asyncRunes, buf...)
	}
	if err := async.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if string(directRunes) != string(asyncRunes) {
		t.Errorf("async-delivered content differs from direct read")
	}
	if string(directRunes) != text {
		t.Errorf("direct-delivered content does not match source")
	}
}

// fakeFailingSupplier fails both its streaming and its Close, letting tests
// exercise AsyncQueueSupplier.Close's primary/secondary error split.
type fakeFailingSupplier struct {
	nextErr  error
	closeErr error
}

func (f *fakeFailingSupplier) Next() ([]rune, error) { return nil, f.nextErr }
func (f *fakeFailingSupplier) Close() error          { return f.closeErr }

func TestAsyncQueueSupplierCloseLogsSecondaryError(t *testing.T) {
	primary := newUsageErr("upstream close failed")
	secondary := newUsageErr("producer wait failed")
	upstream := &fakeFailingSupplier{nextErr: secondary, closeErr: primary}

	var logBuf bytes.Buffer
	logger := log.NewLogfmtLogger(&logBuf)

	async := NewAsyncQueueSupplier(upstream, 2, WithAsyncLogger(logger))
	if _, err := async.Next(); err == nil {
		t.Fatalf("Next: expected the upstream error to surface")
	}

	err := async.Close()
	if err == nil || err.Error() != primary.Error() {
		t.Errorf("Close() = %v, want the primary (upstream close) error %v", err, primary)
	}
	if !strings.Contains(logBuf.String(), "secondary error") {
		t.Errorf("expected the secondary error to be logged, got %q", logBuf.String())
	}
}

func TestCharReaderSetLoggerReachesAsyncSupplier(t *testing.T) {
	rotating, err := NewRotatingSupplier(strings.NewReader("abc"), 8, 4)
	if err != nil {
		t.Fatalf("NewRotatingSupplier: %v", err)
	}
	async := NewAsyncQueueSupplier(rotating, 2)

	cr, err := NewCharReader(async)
	if err != nil {
		t.Fatalf("NewCharReader: %v", err)
	}
	defer cr.Close()

	var logBuf bytes.Buffer
	cr.SetLogger(log.NewLogfmtLogger(&logBuf))
	if async.logger == nil {
		t.Errorf("expected SetLogger to propagate down to the async supplier")
	}
}

func TestRotatingSupplierRejectsUndersizedPool(t *testing.T) {
	_, err := NewRotatingSupplier(strings.NewReader("x"), 16, 1)
	if err == nil {
		t.Errorf("expected a Usage error for a pool below the minimum")
	}
}

func TestLineNumberReaderNormalizesLineEndings(t *testing.T) {
	lnr := NewLineNumberReader(strings.NewReader("a\r\nb\rc\nd"))
	var got []rune
	for {
		r, _, err := lnr.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadRune: %v", err)
		}
		got = append(got, r)
	}
	want := "a\nb\nc\nd"
	if string(got) != want {
		t.Errorf("got %q, want %q", string(got), want)
	}
}

func TestLineNumberReaderTracksPosition(t *testing.T) {
	lnr := NewLineNumberReader(strings.NewReader("ab\ncd"))
	lnr.ReadRune() // a, line 1 col 1
	lnr.ReadRune() // b, line 1 col 2
	if lnr.Line() != 1 || lnr.Column() != 2 {
		t.Errorf("Line/Column = %d/%d, want 1/2", lnr.Line(), lnr.Column())
	}
	lnr.ReadRune() // \n, advances to line 2
	if lnr.Line() != 2 || lnr.Column() != 0 {
		t.Errorf("Line/Column after newline = %d/%d, want 2/0", lnr.Line(), lnr.Column())
	}
}
