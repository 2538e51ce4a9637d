package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"zenort/pkg/engine"
	"zenort/pkg/metrics"
	"zenort/pkg/syncx"
	"zenort/pkg/value"
)

// Caller runs a function value with arguments in an execution context. It
// is the only thing the scheduler needs from the evaluator and must be safe
// to call from any thread given an isolated context.
type Caller interface {
	CallFunction(ctx context.Context, fn value.Value, args []value.Value, ec *engine.ExecutionContext) (value.Value, error)
}

type Scheduler struct {
	caller  Caller
	log     *slog.Logger
	metrics bool

	// sem bounds concurrently running tasks; nil means one thread per task
	// with no limit.
	sem chan struct{}

	nextID  atomic.Int64
	running atomic.Int64
	wg      sync.WaitGroup

	failedMu sync.Mutex
	failed   []*task
}

type Option func(*Scheduler)

// WithMaxTasks bounds how many tasks run at once. Spawn blocks for a free
// slot when the bound is reached. Zero or less means unbounded.
//
// A running task holds its slot while it joins its own children, so with n
// slots held by tasks that each spawn and then join, the child spawns wait
// for a slot that is never released and the script hangs. Tasks are never
// cancelled; only the caller's context ends such a wait.
func WithMaxTasks(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.sem = make(chan struct{}, n)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics turns the Prometheus task collectors on or off.
func WithMetrics(enabled bool) Option {
	return func(s *Scheduler) { s.metrics = enabled }
}

func NewScheduler(caller Caller, opts ...Option) *Scheduler {
	s := &Scheduler{
		caller:  caller,
		log:     slog.Default(),
		metrics: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Running is the number of tasks that have not finished yet.
func (s *Scheduler) Running() int64 {
	return s.running.Load()
}

// Spawn starts fn(args) on a new OS thread and returns at once. The task
// gets a deep copy of ec and args, so nothing it mutates is visible to the
// caller except through channel, mutex, atomic and task handles.
//
// Tasks are not cancellable: the task context is detached from ctx. ctx
// only bounds the wait for an admission slot under WithMaxTasks.
func (s *Scheduler) Spawn(ctx context.Context, fn value.Value, args []value.Value, ec *engine.ExecutionContext) (*Handle, error) {
	f, ok := fn.AsFunction()
	if !ok {
		return nil, ErrNotCallable
	}

	if s.sem != nil {
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	isolated := ec.CloneIsolated()
	args = value.NewCloner().CloneAll(args)

	t := newTask(s.nextID.Add(1), f.FuncName())
	s.wg.Add(1)
	s.running.Add(1)
	if s.metrics {
		metrics.TasksSpawned.Inc()
		metrics.TasksRunning.Inc()
	}
	s.log.Debug("🚀 Task spawned", "task", t.id, "fn", t.name, "args", len(args))

	go s.run(context.WithoutCancel(ctx), t, fn, args, isolated)
	return &Handle{t: t}, nil
}

func (s *Scheduler) run(ctx context.Context, t *task, fn value.Value, args []value.Value, ec *engine.ExecutionContext) {
	// The goroutine keeps its thread until it exits; the runtime then
	// terminates the thread instead of reusing it.
	runtime.LockOSThread()

	defer s.wg.Done()
	if s.sem != nil {
		defer func() { <-s.sem }()
	}

	ctx = syncx.WithOwner(ctx, t.id)
	result, err := s.call(ctx, t, fn, args, ec)

	var ev *value.ErrorValue
	if err != nil {
		ev = value.AsErrorValue(err).CrossedFrom(t.id)
	}
	t.finish(result, ev)

	s.running.Add(-1)
	outcome := Completed.String()
	if ev != nil {
		outcome = Failed.String()
		s.failedMu.Lock()
		if len(s.failed) == cap(s.failed) {
			s.pruneFailedLocked()
		}
		s.failed = append(s.failed, t)
		s.failedMu.Unlock()
		s.log.Debug("💥 Task failed", "task", t.id, "fn", t.name, "error", ev.Error())
	} else {
		s.log.Debug("✅ Task completed", "task", t.id, "fn", t.name)
	}
	if s.metrics {
		metrics.TasksRunning.Dec()
		metrics.TasksFinished.WithLabelValues(outcome).Inc()
		metrics.TaskDuration.WithLabelValues(outcome).Observe(time.Since(t.started).Seconds())
	}
}

// call runs the function, turning a Go panic into a Panic error value.
func (s *Scheduler) call(ctx context.Context, t *task, fn value.Value, args []value.Value, ec *engine.ExecutionContext) (result value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			s.log.Error("🔥 PANIC RECOVERED IN TASK", "task", t.id, "fn", t.name, "panic", r, "stack", stack)
			err = &value.ErrorValue{
				Type:    value.TypePanic,
				Message: fmt.Sprint(r),
				Stack:   strings.Split(strings.TrimSpace(stack), "\n"),
			}
		}
	}()

	result, err = s.caller.CallFunction(ctx, fn, args, ec)
	if err != nil && (errors.Is(err, engine.ErrBreak) || errors.Is(err, engine.ErrContinue)) {
		err = fmt.Errorf("%w used outside of a loop", err)
	}
	return result, err
}

// Join waits for h and returns its value or re-raises its error.
func (s *Scheduler) Join(ctx context.Context, h *Handle) (value.Value, error) {
	return h.Join(ctx)
}

func (s *Scheduler) JoinTimeout(ctx context.Context, h *Handle, d time.Duration) (value.Value, error) {
	return h.JoinTimeout(ctx, d)
}

// JoinAll waits until every handle is terminal and returns the values in
// input order. If any task failed, the failure with the lowest input index
// is raised, whatever order the tasks finished in.
func (s *Scheduler) JoinAll(ctx context.Context, hs []*Handle) ([]value.Value, error) {
	for _, h := range hs {
		select {
		case <-h.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	results := make([]value.Value, len(hs))
	var first error
	for i, h := range hs {
		v, err := h.t.outcome()
		if err != nil && first == nil {
			first = err
		}
		results[i] = v
	}
	if first != nil {
		return nil, first
	}
	return results, nil
}

// Race returns the outcome of the first handle to finish, and its index.
// Handles already finished on entry win in input order. The other tasks
// keep running.
func (s *Scheduler) Race(ctx context.Context, hs []*Handle) (value.Value, int, error) {
	if len(hs) == 0 {
		return value.NewNil(), -1, ErrNoHandles
	}
	for i, h := range hs {
		if h.IsDone() {
			v, err := h.t.outcome()
			return v, i, err
		}
	}

	winner := make(chan int, len(hs))
	stop := make(chan struct{})
	defer close(stop)
	for i, h := range hs {
		go func(i int, h *Handle) {
			select {
			case <-h.Done():
				winner <- i
			case <-stop:
			}
		}(i, h)
	}

	select {
	case i := <-winner:
		v, err := hs[i].t.outcome()
		return v, i, err
	case <-ctx.Done():
		return value.NewNil(), -1, ctx.Err()
	}
}

// Sleep blocks the calling thread only.
func (s *Scheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every spawned task has finished or ctx ends. Failures
// that no handle holder ever looked at are reported once here.
func (s *Scheduler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("⏳ Tasks still running at shutdown", "running", s.running.Load())
		return ctx.Err()
	}

	for _, t := range s.Unjoined() {
		s.log.Debug("🗑️ Failed task was never joined", "task", t.ID(), "fn", t.Name())
	}
	return nil
}

// Unjoined lists failed tasks whose failure no holder has looked at. Such
// failures are dropped by design; this exists for logging and tests.
func (s *Scheduler) Unjoined() []*Handle {
	s.failedMu.Lock()
	defer s.failedMu.Unlock()

	s.pruneFailedLocked()
	out := make([]*Handle, 0, len(s.failed))
	for _, t := range s.failed {
		out = append(out, &Handle{t: t})
	}
	return out
}

// pruneFailedLocked forgets failed tasks that were joined since they were
// recorded. failedMu must be held.
func (s *Scheduler) pruneFailedLocked() {
	kept := s.failed[:0]
	for _, t := range s.failed {
		if !t.observed.Load() {
			kept = append(kept, t)
		}
	}
	clear(s.failed[len(kept):])
	s.failed = kept
}
