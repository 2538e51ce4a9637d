package syncx

import (
	"context"
	"sync/atomic"

	"zenort/pkg/value"
)

// ErrReentrantLock is raised when a task calls WithLock on a mutex it already
// holds. Waiting would deadlock, so the attempt fails at once instead.
var ErrReentrantLock = value.NewErrorValue("LockError", "mutex is already held by this task")

// Mutex guards exactly one value. WithLock is the only way to read or
// replace it.
type Mutex struct {
	sem   chan struct{}
	owner atomic.Int64 // task id + 1; 0 when unlocked or owner unknown
	val   value.Value
}

func NewMutex(initial value.Value) *Mutex {
	return &Mutex{
		sem: make(chan struct{}, 1),
		val: initial.Clone(),
	}
}

func (m *Mutex) HandleType() string           { return "mutex" }
func (m *Mutex) CopyPolicy() value.CopyPolicy { return value.ShareHandle }

// WithLock acquires the mutex, calls fn with the guarded value and stores
// what fn returns. The caller gets a private copy of the new value. When fn
// fails the guarded value is left as it was.
//
// Blocking honours ctx; task contexts are never cancelled, so inside a task
// the call waits for as long as the lock is held.
func (m *Mutex) WithLock(ctx context.Context, fn func(current value.Value) (value.Value, error)) (value.Value, error) {
	id, known := OwnerFrom(ctx)
	if known && m.owner.Load() == id+1 {
		return value.NewNil(), ErrReentrantLock
	}

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return value.NewNil(), ctx.Err()
	}
	if known {
		m.owner.Store(id + 1)
	}
	defer func() {
		m.owner.Store(0)
		<-m.sem
	}()

	// fn works on a copy so a failed update cannot leave the guarded value
	// half modified.
	next, err := fn(m.val.Clone())
	if err != nil {
		return value.NewNil(), err
	}
	m.val = next.Clone()
	return next, nil
}
