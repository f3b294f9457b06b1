package charred

import (
	"io"

	"github.com/klauspost/cpuid/v2"
)

// minRotatingBuffers is the Usage-error floor from spec.md section 4.4: "N
// must exceed Q by at least 2 so that one buffer is being produced and at
// least one is being parsed while the queue is saturated." A rotating pool
// of fewer than two buffers can never satisfy that, independent of queue
// depth, so it is rejected unconditionally.
const minRotatingBuffers = 2

// BufferSupplier produces successive chunks of runes from an underlying
// source. Next returns io.EOF once exhausted, matching the "supplier
// returns absent at EOS" contract of spec.md section 4.4; any other error
// is an UpstreamIO failure from the caller's decoded character source.
type BufferSupplier interface {
	Next() ([]rune, error)
	Close() error
}

func fillRunes(src io.RuneReader, buf []rune) (int, error) {
	n := 0
	for n < len(buf) {
		r, _, err := src.ReadRune()
		if err != nil {
			return n, err
		}
		buf[n] = r
		n++
	}
	return n, nil
}

// allocatingSupplier allocates a fresh chunk on every call. Slower under
// steady state than the rotating variant but safe if the consumer retains
// chunks past the next Next() call.
type allocatingSupplier struct {
	src       io.RuneReader
	chunkSize int
	closer    io.Closer
}

// NewAllocatingSupplier returns a BufferSupplier that never reuses storage.
// If src also implements io.Closer, Close closes it.
func NewAllocatingSupplier(src io.RuneReader, chunkSize int) BufferSupplier {
	s := &allocatingSupplier{src: src, chunkSize: chunkSize}
	if c, ok := src.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *allocatingSupplier) Next() ([]rune, error) {
	buf := make([]rune, s.chunkSize)
	n, err := fillRunes(s.src, buf)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	return buf[:n], nil
}

func (s *allocatingSupplier) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// rotatingSupplier cycles through a fixed pool of N buffers, reusing the
// same backing array every N calls. The caller configures N >= queueDepth+2
// so that a buffer being produced into never collides with one still being
// parsed (spec.md section 4.4).
type rotatingSupplier struct {
	src       io.RuneReader
	pool      [][]rune
	idx       int
	chunkSize int
	done      bool
	closer    io.Closer
}

// NewRotatingSupplier returns a BufferSupplier backed by a fixed pool of n
// buffers of chunkSize runes each. n must be at least minRotatingBuffers;
// callers driving an AsyncQueueSupplier of depth Q should pass n >= Q+2.
func NewRotatingSupplier(src io.RuneReader, chunkSize, n int) (BufferSupplier, error) {
	if n < minRotatingBuffers {
		return nil, newUsageErr("rotating buffer pool size %d is below the minimum of %d", n, minRotatingBuffers)
	}
	pool := make([][]rune, n)
	for i := range pool {
		pool[i] = make([]rune, chunkSize)
	}
	s := &rotatingSupplier{src: src, pool: pool, chunkSize: chunkSize}
	if c, ok := src.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

func (s *rotatingSupplier) Next() ([]rune, error) {
	if s.done {
		return nil, io.EOF
	}
	buf := s.pool[s.idx%len(s.pool)]
	s.idx++

	n, err := fillRunes(s.src, buf)
	if n == 0 {
		s.done = true
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	if n < len(buf) {
		// Short read at EOS. The pool slot will be reused on the next
		// rotation if the caller keeps calling Next (it won't, since this
		// is EOF) -- copy so a caller still holding this chunk never sees
		// it mutated out from under them.
		s.done = true
		short := make([]rune, n)
		copy(short, buf[:n])
		return short, nil
	}
	return buf, nil
}

func (s *rotatingSupplier) Close() error {
	s.done = true
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// DefaultChunkSize picks a chunk size (in runes) biased by the running CPU's
// L1 data cache size, the way the teacher's SIMD reader picked its scanning
// strategy from cpuid feature bits. The chunk is 16 runes per byte of L1 data
// cache (32 KiB assumed when cpuid reports none), with a floor of 4096, so
// larger caches get bigger chunks.
func DefaultChunkSize() int {
	line := cpuid.CPU.Cache.L1D
	if line <= 0 {
		line = 32 * 1024
	}
	size := line * 16
	if size < 4096 {
		size = 4096
	}
	return size
}

// DefaultRotationDepth picks a rotating-pool size for a given async queue
// depth, biased up on machines with more logical cores available to keep
// the producer goroutine fed. Always satisfies minRotatingBuffers and the
// queueDepth+2 floor from spec.md section 4.4.
func DefaultRotationDepth(queueDepth int) int {
	depth := queueDepth + 2
	if cpuid.CPU.LogicalCores > depth {
		depth = cpuid.CPU.LogicalCores
	}
	if depth < minRotatingBuffers {
		depth = minRotatingBuffers
	}
	return depth
}
