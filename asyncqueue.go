package charred

import (
	"context"
	"io"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPutTimeout bounds how long the producer goroutine will block trying
// to offer a chunk once the consumer has stopped reading without closing
// (spec.md section 5: "A timeout (default 5 s) bounds the producer's put so
// the thread cannot wedge").
const DefaultPutTimeout = 5 * time.Second

type asyncChunk struct {
	buf   []rune
	err   error
	isEnd bool
}

// AsyncQueueSupplier wraps a BufferSupplier in a single producer goroutine
// feeding a bounded, sentinel-terminated queue (spec.md section 4.4/4.9).
// The producer goroutine's lifecycle is owned by an errgroup.Group, grounded
// in the pack's vendored go-openapi CSV runtime pairing a CSV pipe with
// errgroup.WithContext: the group both runs the producer and gives Close a
// single place to collect its terminal error.
type AsyncQueueSupplier struct {
	upstream   BufferSupplier
	queue      chan asyncChunk
	stop       chan struct{}
	group      *errgroup.Group
	putTimeout time.Duration
	logger     Logger

	delivered bool // a poisoned or EOF envelope has already been handed out
	stopped   bool
}

// AsyncOption configures an AsyncQueueSupplier at construction time.
type AsyncOption func(*AsyncQueueSupplier)

// WithPutTimeout overrides DefaultPutTimeout.
func WithPutTimeout(d time.Duration) AsyncOption {
	return func(a *AsyncQueueSupplier) { a.putTimeout = d }
}

// WithAsyncLogger attaches a Logger for producer lifecycle diagnostics.
func WithAsyncLogger(l Logger) AsyncOption {
	return func(a *AsyncQueueSupplier) { a.logger = l }
}

// SetLogger attaches l after construction, the seam CharReader.SetLogger
// uses to propagate a Logger installed on a RowReader down to its async
// supplier once the supplier already exists.
func (a *AsyncQueueSupplier) SetLogger(l Logger) {
	a.logger = l
}

// NewAsyncQueueSupplier starts exactly one producer goroutine pulling from
// upstream and offering to a queue of the given depth. queueDepth must be
// the same Q the caller sized its rotating BufferSupplier's pool against
// (N >= Q+2); AsyncQueueSupplier itself does not validate that relationship
// since it has no visibility into upstream's pool size.
func NewAsyncQueueSupplier(upstream BufferSupplier, queueDepth int, opts ...AsyncOption) *AsyncQueueSupplier {
	a := &AsyncQueueSupplier{
		upstream:   upstream,
		queue:      make(chan asyncChunk, queueDepth),
		stop:       make(chan struct{}),
		putTimeout: DefaultPutTimeout,
	}
	for _, o := range opts {
		o(a)
	}

	g, _ := errgroup.WithContext(context.Background())
	a.group = g
	g.Go(func() error {
		defer close(a.queue)
		return a.produce()
	})
	return a
}

func (a *AsyncQueueSupplier) produce() error {
	for {
		select {
		case <-a.stop:
			logProducerEvent(a.logger, "producer observed stop flag")
			return nil
		default:
		}

		buf, err := a.upstream.Next()
		if err != nil {
			if err == io.EOF {
				a.offer(asyncChunk{isEnd: true})
				return nil
			}
			logProducerError(a.logger, err)
			a.offer(asyncChunk{err: err})
			return err
		}

		if !a.offer(asyncChunk{buf: buf}) {
			return nil
		}
	}
}

// offer puts item on the queue, honoring the stop flag and the put timeout
// so a consumer that stops reading without closing cannot wedge this thread
// forever. It returns false when the producer should exit without having
// delivered the item.
func (a *AsyncQueueSupplier) offer(item asyncChunk) bool {
	timer := time.NewTimer(a.putTimeout)
	defer timer.Stop()
	select {
	case a.queue <- item:
		return true
	case <-a.stop:
		return false
	case <-timer.C:
		logProducerEvent(a.logger, "producer put timed out, exiting")
		return false
	}
}

// Next returns the next chunk, blocking until the producer has one ready.
// A poisoned envelope (an upstream error) is re-thrown exactly once; after
// that, and after the sentinel END, Next behaves as permanently exhausted.
func (a *AsyncQueueSupplier) Next() ([]rune, error) {
	if a.delivered {
		return nil, io.EOF
	}
	item, ok := <-a.queue
	if !ok {
		a.delivered = true
		return nil, io.EOF
	}
	if item.isEnd {
		a.delivered = true
		return nil, io.EOF
	}
	if item.err != nil {
		a.delivered = true
		return nil, item.err
	}
	return item.buf, nil
}

// Close sets the stop flag observed by the producer before its next put,
// drains any chunks left in the queue, closes the upstream supplier, and
// joins the producer goroutine. Close is idempotent. When both the upstream
// close and the producer's join fail, the upstream error is returned as
// primary and the join error is only logged (spec.md section 7: "swallow
// secondary errors during teardown but preserve the primary error").
func (a *AsyncQueueSupplier) Close() error {
	if a.stopped {
		return nil
	}
	a.stopped = true
	close(a.stop)

	for range a.queue {
		// drain so the producer's blocked offer (if any) unblocks via <-a.stop
		// or finds the channel already being read from
	}

	closeErr := a.upstream.Close()
	waitErr := a.group.Wait()
	if closeErr != nil {
		logSecondaryError(a.logger, "producer join", waitErr)
		return closeErr
	}
	return waitErr
}
