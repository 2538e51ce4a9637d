package slots

import (
	"context"
	"fmt"

	"zenort/pkg/engine"
	"zenort/pkg/syncx"
	"zenort/pkg/utils/coerce"
	"zenort/pkg/value"
)

func RegisterSyncSlots(eng *engine.Engine) {
	// ==========================================
	// SLOT: mutex.make
	// ==========================================
	eng.Register("mutex.make", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		m := syncx.NewMutex(mainValue(eng, node, ec))
		ec.Set(targetName(node, "as", "mutex"), value.NewHandle(m))
		return nil
	}, engine.SlotMeta{
		Description: "Create a mutex guarding one value. Tasks share the mutex, not copies of it.",
		Example:     "mutex.make: 0 {\n  as: $m\n}",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "Initial value, when not given as the main value"},
			"as":  {Description: "Variable to store the mutex (Default: mutex)"},
		},
	})

	// ==========================================
	// SLOT: mutex.with_lock
	// ==========================================
	// Either `call: fn` (fn receives the current value first, then the arg
	// values, and returns the new value) or a do block that sees the current
	// value as $value (renamed with bind) and leaves the new one there.
	eng.Register("mutex.with_lock", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		m, err := mutexHandle("mutex.with_lock", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}

		var update func(current value.Value) (value.Value, error)
		if c := node.Child("call"); c != nil {
			fn, err := callable(c.Value, ec)
			if err != nil {
				return err
			}
			args := callArgs(eng, node, ec)
			update = func(current value.Value) (value.Value, error) {
				return eng.CallFunction(ctx, fn, append([]value.Value{current}, args...), ec)
			}
		} else {
			bind := targetName(node, "bind", "value")
			stmts := body(node)
			update = func(current value.Value) (value.Value, error) {
				ec.Set(bind, current)
				if err := runStatements(ctx, eng, stmts, ec); err != nil {
					return value.NewNil(), err
				}
				next, _ := ec.Get(bind)
				return next, nil
			}
		}

		next, err := m.WithLock(ctx, update)
		if err != nil {
			return err
		}
		if target := targetName(node, "as", ""); target != "" {
			ec.Set(target, next)
		}
		return nil
	}, engine.SlotMeta{
		Description: "Replace a mutex's value under the lock. Locking a mutex the task already holds raises LockError.",
		Example:     "mutex.with_lock: $m {\n  call: add_one\n  as: $now\n}",
	})

	// ==========================================
	// SLOT: atomic.*
	// ==========================================
	eng.Register("atomic.make", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		v := mainValue(eng, node, ec)
		var initial int64
		if !v.IsNil() {
			n, err := coerce.ToInt64(v.Native())
			if err != nil {
				return typeError("atomic.make", "integer", v)
			}
			initial = n
		}
		ec.Set(targetName(node, "as", "counter"), value.NewHandle(syncx.NewAtomicCounter(initial)))
		return nil
	}, engine.SlotMeta{
		Description: "Create an atomic integer counter shared by reference between tasks.",
		Example:     "atomic.make: 0 {\n  as: $counter\n}",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "Initial value, when not given as the main value"},
			"as":  {Description: "Variable to store the counter (Default: counter)"},
		},
	})

	fetch := func(slot string, op func(c *syncx.AtomicCounter, delta int64) int64) engine.HandlerFunc {
		return func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
			c, err := counterHandle(slot, engine.ResolveRaw(node.Value, ec))
			if err != nil {
				return err
			}
			delta := int64(1)
			if v, ok := attrValue(eng, node, ec, "by"); ok {
				n, err := coerce.ToInt64(v.Native())
				if err != nil {
					return fmt.Errorf("%s: %w", slot, err)
				}
				delta = n
			}
			prev := op(c, delta)
			if target := targetName(node, "as", ""); target != "" {
				ec.Set(target, value.NewInt(prev))
			}
			return nil
		}
	}
	fetchInputs := map[string]engine.InputMeta{
		"by": {Description: "Amount (Default: 1)", Type: "int"},
		"as": {Description: "Variable to store the previous value"},
	}

	eng.Register("atomic.fetch_add", fetch("atomic.fetch_add", (*syncx.AtomicCounter).FetchAdd), engine.SlotMeta{
		Description: "Add to the counter atomically; as receives the previous value.",
		Example:     "atomic.fetch_add: $counter {\n  by: 1\n}",
		Inputs:      fetchInputs,
	})
	eng.Register("atomic.fetch_sub", fetch("atomic.fetch_sub", (*syncx.AtomicCounter).FetchSub), engine.SlotMeta{
		Description: "Subtract from the counter atomically; as receives the previous value.",
		Example:     "atomic.fetch_sub: $counter {\n  by: 1\n}",
		Inputs:      fetchInputs,
	})

	eng.Register("atomic.load", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		c, err := counterHandle("atomic.load", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "as", "value"), value.NewInt(c.Load()))
		return nil
	}, engine.SlotMeta{
		Description: "Read the counter.",
		Example:     "atomic.load: $counter {\n  as: $total\n}",
		Inputs: map[string]engine.InputMeta{
			"as": {Description: "Variable to store the value (Default: value)"},
		},
	})

	eng.Register("atomic.store", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		c, err := counterHandle("atomic.store", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}
		v, _ := attrValue(eng, node, ec, "val", "value")
		n, err := coerce.ToInt64(v.Native())
		if err != nil {
			return typeError("atomic.store", "integer", v)
		}
		c.Store(n)
		return nil
	}, engine.SlotMeta{
		Description: "Overwrite the counter.",
		Example:     "atomic.store: $counter {\n  val: 0\n}",
		Inputs: map[string]engine.InputMeta{
			"val":   {Description: "New value", Type: "int"},
			"value": {Description: "Alias for val", Type: "int"},
		},
	})
}
