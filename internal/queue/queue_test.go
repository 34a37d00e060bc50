package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[int]()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push(%d) failed: %v", i, err)
		}
	}
	if n := q.Len(); n != 5 {
		t.Errorf("Expected 5 buffered items, got %d", n)
	}

	for want := 1; want <= 5; want++ {
		got, err := q.Pull(ctx)
		if err != nil {
			t.Fatalf("Pull failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected %d, got %d", want, got)
		}
	}
}

func TestQueue_CloseThenDrain(t *testing.T) {
	q := New[string]()
	ctx := context.Background()

	_ = q.Push("a")
	_ = q.Push("b")
	q.Close()

	if err := q.Push("c"); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Expected ErrQueueClosed, got %v", err)
	}

	for _, want := range []string{"a", "b"} {
		got, err := q.Pull(ctx)
		if err != nil || got != want {
			t.Errorf("Expected %q, got %q (%v)", want, got, err)
		}
	}

	if _, err := q.Pull(ctx); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("Expected ErrEndOfStream after drain, got %v", err)
	}
	if q.State() != Closed || !q.Terminal() {
		t.Errorf("Expected closed state, got %v", q.State())
	}
}

func TestQueue_PushHandsToWaiter(t *testing.T) {
	q := New[int]()
	done := make(chan int)

	go func() {
		v, err := q.Pull(context.Background())
		if err != nil {
			t.Errorf("Pull failed: %v", err)
		}
		done <- v
	}()

	waitForWaiters(t, q, 1)
	if err := q.Push(42); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	select {
	case v := <-done:
		if v != 42 {
			t.Errorf("Expected 42, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("waiting consumer was not woken by push")
	}
	if n := q.Len(); n != 0 {
		t.Errorf("Item handed to a waiter should not be buffered, len=%d", n)
	}
}

func TestQueue_CloseWakesWaiters(t *testing.T) {
	q := New[int]()
	errs := make(chan error, 1)

	go func() {
		_, err := q.Pull(context.Background())
		errs <- err
	}()

	waitForWaiters(t, q, 1)
	q.Close()

	select {
	case err := <-errs:
		if !errors.Is(err, ErrEndOfStream) {
			t.Errorf("Expected ErrEndOfStream, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("close did not wake waiter")
	}
}

func TestQueue_AbortWakesAllWaiters(t *testing.T) {
	q := New[int]()
	abortErr := errors.New("synthesis failed")
	const waiters = 4

	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Pull(context.Background())
			errs <- err
		}()
	}

	waitForWaiters(t, q, waiters)
	q.Abort(abortErr)

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abort did not wake all waiters")
	}

	close(errs)
	for err := range errs {
		if !errors.Is(err, abortErr) {
			t.Errorf("Expected abort error, got %v", err)
		}
	}

	if _, err := q.Pull(context.Background()); !errors.Is(err, abortErr) {
		t.Errorf("Expected abort error on later pull, got %v", err)
	}
	if err := q.Push(1); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Expected ErrQueueClosed after abort, got %v", err)
	}
}

func TestQueue_AbortDiscardsBuffer(t *testing.T) {
	q := New[int]()
	_ = q.Push(1)
	first := errors.New("first")
	q.Abort(first)
	q.Abort(errors.New("second"))

	if _, err := q.Pull(context.Background()); !errors.Is(err, first) {
		t.Errorf("Expected first abort error, got %v", err)
	}
	if !errors.Is(q.Err(), first) {
		t.Errorf("Err() = %v", q.Err())
	}
	if q.State() != Aborted {
		t.Errorf("Expected aborted, got %v", q.State())
	}
}

func TestQueue_PullContextCancel(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Pull(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	// The canceled waiter must not swallow the next item.
	_ = q.Push(7)
	v, err := q.Pull(context.Background())
	if err != nil || v != 7 {
		t.Errorf("Expected 7, got %d (%v)", v, err)
	}
}

func TestQueue_WaitBelow(t *testing.T) {
	q := New[int]()
	_ = q.Push(1)
	_ = q.Push(2)

	if err := q.WaitBelow(context.Background(), 3); err != nil {
		t.Fatalf("WaitBelow should return at once: %v", err)
	}

	released := make(chan error, 1)
	go func() {
		released <- q.WaitBelow(context.Background(), 2)
	}()

	select {
	case <-released:
		t.Fatal("WaitBelow returned while buffer was full")
	case <-time.After(30 * time.Millisecond):
	}

	if _, err := q.Pull(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-released:
		if err != nil {
			t.Errorf("WaitBelow returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitBelow not released by pull")
	}
}

func TestQueue_WaitBelowCancel(t *testing.T) {
	q := New[int]()
	_ = q.Push(1)

	ctx, cancel := context.WithCancel(context.Background())
	released := make(chan error, 1)
	go func() {
		released <- q.WaitBelow(ctx, 1)
	}()

	cancel()
	select {
	case err := <-released:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitBelow not released by cancel")
	}
}

func TestQueue_WaitBelowReleasedByTerminal(t *testing.T) {
	q := New[int]()
	_ = q.Push(1)

	released := make(chan error, 1)
	go func() {
		released <- q.WaitBelow(context.Background(), 1)
	}()
	q.Abort(errors.New("boom"))

	select {
	case err := <-released:
		if err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitBelow not released by abort")
	}
}

func waitForWaiters(t *testing.T, q *Queue[int], n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		q.mu.Lock()
		got := len(q.waiters)
		q.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d waiters", n)
}
