package queue

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueClosed is returned when pushing to a closed or aborted queue.
	ErrQueueClosed = errors.New("queue is closed")

	// ErrEndOfStream is returned by Pull once a closed queue is drained.
	ErrEndOfStream = errors.New("end of stream")
)

// State is the lifecycle state of a Queue.
type State int

const (
	// Open accepts pushes.
	Open State = iota
	// Closed rejects pushes; buffered items can still be pulled.
	Closed
	// Aborted rejects pushes and fails every pull with the stored error.
	Aborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Queue is a FIFO for one producer and one consumer. All methods are safe
// for concurrent use.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	waiters []chan T
	state   State
	err     error

	// changed is closed and replaced whenever the buffer shrinks or the
	// queue becomes terminal.
	changed chan struct{}
}

// New creates an open, empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{changed: make(chan struct{})}
}

// Push hands item to the oldest waiting consumer, or buffers it.
func (q *Queue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != Open {
		return ErrQueueClosed
	}

	if len(q.waiters) > 0 {
		w := q.waiters[0]
		q.waiters = q.waiters[1:]
		w <- item
		return nil
	}

	q.items = append(q.items, item)
	return nil
}

// Pull returns the oldest item. It blocks while the queue is open and empty.
// A drained closed queue returns ErrEndOfStream, an aborted queue its abort
// error, and a done ctx returns ctx.Err().
func (q *Queue[T]) Pull(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	if item, ok, err := q.takeLocked(); ok {
		q.mu.Unlock()
		return item, err
	}

	w := make(chan T, 1)
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()

	select {
	case item, ok := <-w:
		if ok {
			return item, nil
		}
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.state == Aborted {
			return zero, q.err
		}
		return zero, ErrEndOfStream

	case <-ctx.Done():
		q.mu.Lock()
		removed := q.removeWaiterLocked(w)
		q.mu.Unlock()
		if !removed {
			// Push, Close or Abort got to the waiter first.
			if item, ok := <-w; ok {
				return item, nil
			}
		}
		return zero, ctx.Err()
	}
}

// takeLocked serves a pull without waiting when possible.
func (q *Queue[T]) takeLocked() (T, bool, error) {
	var zero T
	switch {
	case q.state == Aborted:
		return zero, true, q.err
	case len(q.items) > 0:
		item := q.items[0]
		q.items[0] = zero
		q.items = q.items[1:]
		q.notifyLocked()
		return item, true, nil
	case q.state == Closed:
		return zero, true, ErrEndOfStream
	}
	return zero, false, nil
}

func (q *Queue[T]) removeWaiterLocked(w chan T) bool {
	for i, x := range q.waiters {
		if x == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// Close stops accepting items. Waiting consumers receive ErrEndOfStream;
// buffered items stay available. Closing a terminal queue does nothing.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != Open {
		return
	}
	q.state = Closed
	q.releaseWaitersLocked()
	q.notifyLocked()
}

// Abort moves the queue to its failed state. Waiting and later pulls return
// err. Only the first abort is recorded.
func (q *Queue[T]) Abort(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state == Aborted {
		return
	}
	q.state = Aborted
	q.err = err
	q.items = nil
	q.releaseWaitersLocked()
	q.notifyLocked()
}

func (q *Queue[T]) releaseWaitersLocked() {
	for _, w := range q.waiters {
		close(w)
	}
	q.waiters = nil
}

func (q *Queue[T]) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// WaitBelow blocks until fewer than n items are buffered or the queue is
// terminal. It returns ctx.Err() if ctx is done first.
func (q *Queue[T]) WaitBelow(ctx context.Context, n int) error {
	for {
		q.mu.Lock()
		if len(q.items) < n || q.state != Open {
			q.mu.Unlock()
			return nil
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// State returns the lifecycle state.
func (q *Queue[T]) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Terminal reports whether the queue is closed or aborted.
func (q *Queue[T]) Terminal() bool {
	return q.State() != Open
}

// Err returns the abort error, if any.
func (q *Queue[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}
