package channel

import (
	"context"
	"time"

	"zenort/pkg/metrics"
	"zenort/pkg/value"
)

// Sender is the sending half of a channel.
type Sender struct {
	q *queue
}

func (s *Sender) HandleType() string           { return "sender" }
func (s *Sender) CopyPolicy() value.CopyPolicy { return value.ShareHandle }

// Send queues a deep copy of v. On a bounded channel it blocks while the
// queue is full; it fails with ErrClosed if the channel is closed before
// the value is queued.
func (s *Sender) Send(ctx context.Context, v value.Value) error {
	v = v.Clone()
	for {
		ok, wait, err := s.q.push(v)
		if err != nil {
			return err
		}
		if ok {
			metrics.ChannelOps.WithLabelValues("send").Inc()
			return nil
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TrySend queues v only if that needs no waiting.
func (s *Sender) TrySend(v value.Value) bool {
	ok, _, _ := s.q.push(v.Clone())
	if ok {
		metrics.ChannelOps.WithLabelValues("send").Inc()
	}
	return ok
}

// Close marks the channel closed. Values already queued stay receivable.
func (s *Sender) Close()         { s.q.close() }
func (s *Sender) IsClosed() bool { return s.q.isClosed() }
func (s *Sender) Len() int       { return s.q.len() }
func (s *Sender) Cap() int       { return s.q.capacity }

// Receiver is the receiving half of a channel.
type Receiver struct {
	q *queue
}

func (r *Receiver) HandleType() string           { return "receiver" }
func (r *Receiver) CopyPolicy() value.CopyPolicy { return value.ShareHandle }

// Recv blocks until a value is available. Once the channel is closed and
// drained it returns ErrClosed.
func (r *Receiver) Recv(ctx context.Context) (value.Value, error) {
	return r.q.recv(ctx, nil)
}

// RecvTimeout is Recv bounded by d, returning ErrTimeout when d elapses
// first. A closed, drained channel still reports ErrClosed.
func (r *Receiver) RecvTimeout(ctx context.Context, d time.Duration) (value.Value, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	return r.q.recv(ctx, timer.C)
}

// TryRecv returns a buffered value, ErrEmpty, or ErrClosed.
func (r *Receiver) TryRecv() (value.Value, error) {
	v, ok, _, err := r.q.pop()
	if ok {
		metrics.ChannelOps.WithLabelValues("recv").Inc()
		return v, nil
	}
	if err != nil {
		return v, err
	}
	return value.NewNil(), ErrEmpty
}

func (r *Receiver) Close()         { r.q.close() }
func (r *Receiver) IsClosed() bool { return r.q.isClosed() }
func (r *Receiver) Len() int       { return r.q.len() }
func (r *Receiver) Cap() int       { return r.q.capacity }
