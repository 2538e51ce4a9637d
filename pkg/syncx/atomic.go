package syncx

import (
	"sync/atomic"

	"zenort/pkg/value"
)

// AtomicCounter is a lock-free integer shared by reference between tasks.
type AtomicCounter struct {
	n atomic.Int64
}

func NewAtomicCounter(initial int64) *AtomicCounter {
	c := &AtomicCounter{}
	c.n.Store(initial)
	return c
}

func (c *AtomicCounter) HandleType() string           { return "atomic" }
func (c *AtomicCounter) CopyPolicy() value.CopyPolicy { return value.ShareHandle }

// FetchAdd adds delta and returns the previous value.
func (c *AtomicCounter) FetchAdd(delta int64) int64 {
	return c.n.Add(delta) - delta
}

// FetchSub subtracts delta and returns the previous value.
func (c *AtomicCounter) FetchSub(delta int64) int64 {
	return c.n.Add(-delta) + delta
}

func (c *AtomicCounter) Load() int64 {
	return c.n.Load()
}

func (c *AtomicCounter) Store(v int64) {
	c.n.Store(v)
}
