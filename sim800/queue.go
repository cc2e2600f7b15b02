package sim800

import (
	"sync"
	"time"
)

// fifo is an unbounded first-in first-out queue shared between exactly one
// producer (the read loop) and one consumer goroutine. push never blocks:
// refusing a line from the modem would desynchronize the protocol, so the
// backlog grows as needed instead.
type fifo[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	// wake carries at most one pending signal; the single consumer
	// re-checks the backlog after every receive, so a coalesced signal
	// is never lost.
	wake chan struct{}
}

func newFifo[T any]() *fifo[T] {
	return &fifo[T]{wake: make(chan struct{}, 1)}
}

// push appends item and wakes the consumer. Items pushed after close are
// discarded.
func (q *fifo[T]) push(item T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.signal()
}

func (q *fifo[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *fifo[T]) tryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// pop removes the oldest item, waiting up to timeout for one to arrive.
// The boolean result is false if the wait timed out or the queue was
// closed while empty.
func (q *fifo[T]) pop(timeout time.Duration) (T, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if item, ok := q.tryPop(); ok {
			return item, true
		}
		if q.isClosed() {
			var zero T
			return zero, false
		}
		select {
		case <-q.wake:
		case <-timer.C:
			// A push may have landed between the backlog check and
			// the timer firing; take it rather than reporting a
			// spurious timeout.
			return q.tryPop()
		}
	}
}

// popWait blocks until an item is available or the queue is closed.
func (q *fifo[T]) popWait() (T, bool) {
	for {
		if item, ok := q.tryPop(); ok {
			return item, true
		}
		if q.isClosed() {
			var zero T
			return zero, false
		}
		<-q.wake
	}
}

// drain discards the entire backlog.
func (q *fifo[T]) drain() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// close marks the queue closed and wakes the consumer. Buffered items remain
// readable; push becomes a no-op.
func (q *fifo[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *fifo[T]) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
