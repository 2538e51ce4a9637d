// Package task runs script functions on their own OS threads and exposes
// their outcome through joinable handles.
package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"zenort/pkg/value"
)

// MainThreadID identifies the script's main thread. Spawned tasks count up
// from 1.
const MainThreadID int64 = 0

var (
	ErrTimeout     = value.NewErrorValue("TimeoutExceeded", "join timed out")
	ErrNotCallable = value.NewErrorValue("TypeError", "spawn target is not callable")
	ErrNoHandles   = value.NewErrorValue("ValueError", "no task handles given")
)

type State int

const (
	Running State = iota
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// task is the result slot of one spawned function. Only the task's own
// goroutine writes it, exactly once, before closing done.
type task struct {
	id      int64
	name    string
	started time.Time

	mu     sync.Mutex
	state  State
	result value.Value
	err    *value.ErrorValue

	done chan struct{}

	// observed is set once any holder looks at a failure, so the scheduler
	// can report failures nobody ever joined.
	observed atomic.Bool
}

func newTask(id int64, name string) *task {
	return &task{
		id:      id,
		name:    name,
		started: time.Now(),
		state:   Running,
		done:    make(chan struct{}),
	}
}

func (t *task) finish(result value.Value, err *value.ErrorValue) {
	t.mu.Lock()
	if t.state != Running {
		t.mu.Unlock()
		return
	}
	if err != nil {
		t.state = Failed
		t.err = err
	} else {
		t.state = Completed
		t.result = result
	}
	t.mu.Unlock()
	close(t.done)
}

func (t *task) snapshot() (State, value.Value, *value.ErrorValue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.result, t.err
}

// outcome reads a terminal task. Value and error are private copies for the
// caller; every join re-raises an error matching the stored one.
func (t *task) outcome() (value.Value, error) {
	state, result, err := t.snapshot()
	if state == Failed {
		t.observed.Store(true)
		return value.NewNil(), value.NewCloner().CloneError(err)
	}
	return result.Clone(), nil
}

// Handle is a shared reference to a spawned task. Copying a handle into
// another task's context shares it; any number of holders may join.
type Handle struct {
	t *task
}

func (h *Handle) HandleType() string           { return "task" }
func (h *Handle) CopyPolicy() value.CopyPolicy { return value.ShareHandle }

func (h *Handle) ID() int64    { return h.t.id }
func (h *Handle) Name() string { return h.t.name }

func (h *Handle) State() State {
	state, _, _ := h.t.snapshot()
	return state
}

// Done is closed once the task is terminal.
func (h *Handle) Done() <-chan struct{} { return h.t.done }

func (h *Handle) IsDone() bool {
	select {
	case <-h.t.done:
		return true
	default:
		return false
	}
}

func (h *Handle) IsFailed() bool {
	if h.State() == Failed {
		h.t.observed.Store(true)
		return true
	}
	return false
}

// Join blocks until the task is terminal, then returns its value or
// re-raises its error. Joining again returns the same outcome.
func (h *Handle) Join(ctx context.Context) (value.Value, error) {
	select {
	case <-h.t.done:
		return h.t.outcome()
	case <-ctx.Done():
		return value.NewNil(), ctx.Err()
	}
}

// JoinTimeout is Join bounded by d. ErrTimeout leaves the task running.
func (h *Handle) JoinTimeout(ctx context.Context, d time.Duration) (value.Value, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-h.t.done:
		return h.t.outcome()
	case <-timer.C:
		return value.NewNil(), ErrTimeout
	case <-ctx.Done():
		return value.NewNil(), ctx.Err()
	}
}

// TryJoin reports the outcome without blocking; ok is false while running.
func (h *Handle) TryJoin() (v value.Value, ok bool, err error) {
	if !h.IsDone() {
		return value.NewNil(), false, nil
	}
	v, err = h.t.outcome()
	return v, true, err
}
