// Package channel implements the FIFO queues tasks use to pass values to
// each other. A queue is reached through a Sender and a Receiver handle;
// both are shared by reference when a task is spawned.
package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"zenort/pkg/metrics"
	"zenort/pkg/value"
)

var (
	// ErrClosed is returned by Send on a closed channel and by the receive
	// operations once the channel is closed and drained.
	ErrClosed = value.NewErrorValue("ChannelClosed", "channel is closed")
	// ErrTimeout is returned by RecvTimeout when nothing arrived in time.
	ErrTimeout = value.NewErrorValue("TimeoutExceeded", "channel receive timed out")
	// ErrEmpty is returned by TryRecv when no value is buffered.
	ErrEmpty = errors.New("channel is empty")

	ErrCapacity = value.NewErrorValue("ValueError", "channel capacity must not be negative")
)

type queue struct {
	mu       sync.Mutex
	items    []value.Value
	capacity int // 0 = unbounded
	closed   bool

	// changed is closed and replaced whenever items or closed change, waking
	// every blocked sender and receiver.
	changed chan struct{}
}

// New creates a channel. Capacity 0 makes it unbounded.
func New(capacity int) (*Sender, *Receiver, error) {
	if capacity < 0 {
		return nil, nil, ErrCapacity
	}
	q := &queue{capacity: capacity, changed: make(chan struct{})}
	return &Sender{q: q}, &Receiver{q: q}, nil
}

// notify must be called with mu held.
func (q *queue) notify() {
	close(q.changed)
	q.changed = make(chan struct{})
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notify()
	metrics.ChannelOps.WithLabelValues("close").Inc()
}

func (q *queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// push reports ok when v was queued; otherwise wait is the channel to block
// on before retrying.
func (q *queue) push(v value.Value) (ok bool, wait <-chan struct{}, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false, nil, ErrClosed
	}
	if q.capacity > 0 && len(q.items) >= q.capacity {
		return false, q.changed, nil
	}
	q.items = append(q.items, v)
	q.notify()
	return true, nil, nil
}

func (q *queue) pop() (v value.Value, ok bool, wait <-chan struct{}, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) > 0 {
		v = q.items[0]
		q.items[0] = value.Value{}
		q.items = q.items[1:]
		q.notify()
		return v, true, nil, nil
	}
	if q.closed {
		return value.NewNil(), false, nil, ErrClosed
	}
	return value.NewNil(), false, q.changed, nil
}

// recv blocks until a value, close, ctx or the optional deadline.
func (q *queue) recv(ctx context.Context, timeout <-chan time.Time) (value.Value, error) {
	for {
		v, ok, wait, err := q.pop()
		if ok {
			metrics.ChannelOps.WithLabelValues("recv").Inc()
			return v, nil
		}
		if err != nil {
			return v, err
		}
		select {
		case <-wait:
		case <-timeout:
			return value.NewNil(), ErrTimeout
		case <-ctx.Done():
			return value.NewNil(), ctx.Err()
		}
	}
}
