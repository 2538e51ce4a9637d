package slots

import (
	"context"
	"errors"
	"fmt"

	"zenort/pkg/engine"
	"zenort/pkg/syncx"
	"zenort/pkg/task"
	"zenort/pkg/utils/coerce"
	"zenort/pkg/value"
)

// RegisterTaskSlots exposes the scheduler to scripts.
func RegisterTaskSlots(eng *engine.Engine, sched *task.Scheduler) {
	// ==========================================
	// SLOT: task.spawn
	// ==========================================
	eng.Register("task.spawn", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		fn, err := callable(node.Value, ec)
		if err != nil {
			return err
		}

		h, err := sched.Spawn(ctx, fn, callArgs(eng, node, ec), ec)
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "as", "task"), value.NewHandle(h))
		return nil
	}, engine.SlotMeta{
		Description: "Run a function on its own thread with a copy of the current variables.",
		Example:     "task.spawn: worker {\n  arg: 1\n  as: $h\n}",
		Inputs: map[string]engine.InputMeta{
			"arg":  {Description: "Positional argument (repeatable), copied into the task"},
			"args": {Description: "List of arguments", Type: "list"},
			"as":   {Description: "Variable to store the task handle (Default: task)"},
		},
	})

	// ==========================================
	// SLOT: task.join
	// ==========================================
	eng.Register("task.join", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		h, err := taskHandle("task.join", mainValue(eng, node, ec))
		if err != nil {
			return err
		}

		v, err := sched.Join(ctx, h)
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "as", "result"), v)
		return nil
	}, engine.SlotMeta{
		Description: "Wait for a task and take its result. A failed task re-raises its error here.",
		Example:     "task.join: $h {\n  as: $result\n}",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "Task handle, when not given as the main value"},
			"as":  {Description: "Variable to store the result (Default: result)"},
		},
	})

	// ==========================================
	// SLOT: task.join_timeout
	// ==========================================
	eng.Register("task.join_timeout", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		h, err := taskHandle("task.join_timeout", mainValue(eng, node, ec))
		if err != nil {
			return err
		}
		tv, _ := attrValue(eng, node, ec, "timeout")
		d, err := coerce.ToDuration(tv.Native())
		if err != nil {
			return fmt.Errorf("task.join_timeout: %w", err)
		}

		target := targetName(node, "as", "result")
		status := targetName(node, "status", "status")

		v, err := sched.JoinTimeout(ctx, h, d)
		if errors.Is(err, task.ErrTimeout) {
			ec.Set(target, value.NewNil())
			ec.Set(status, value.NewString("timeout"))
			return nil
		}
		if err != nil {
			return err
		}
		ec.Set(target, v)
		ec.Set(status, value.NewString("ok"))
		return nil
	}, engine.SlotMeta{
		Description: "Join with a time limit. status is ok or timeout; the task keeps running after a timeout.",
		Example:     "task.join_timeout: $h {\n  timeout: 500ms\n  as: $r\n  status: $st\n}",
		Inputs: map[string]engine.InputMeta{
			"val":     {Description: "Task handle, when not given as the main value"},
			"timeout": {Description: "Duration (\"500ms\") or milliseconds", Required: true},
			"as":      {Description: "Variable to store the result (Default: result)"},
			"status":  {Description: "Variable to store ok/timeout (Default: status)"},
		},
	})

	// ==========================================
	// SLOT: task.try_join
	// ==========================================
	eng.Register("task.try_join", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		h, err := taskHandle("task.try_join", mainValue(eng, node, ec))
		if err != nil {
			return err
		}

		v, done, err := h.TryJoin()
		if err != nil {
			return err
		}
		status := "running"
		if done {
			status = "ok"
		}
		ec.Set(targetName(node, "as", "result"), v)
		ec.Set(targetName(node, "status", "status"), value.NewString(status))
		return nil
	}, engine.SlotMeta{
		Description: "Take a task's result without waiting. status is ok or running.",
		Example:     "task.try_join: $h {\n  as: $r\n  status: $st\n}",
		Inputs: map[string]engine.InputMeta{
			"val":    {Description: "Task handle, when not given as the main value"},
			"as":     {Description: "Variable to store the result (Default: result)"},
			"status": {Description: "Variable to store ok/running (Default: status)"},
		},
	})

	// ==========================================
	// SLOT: task.join_all
	// ==========================================
	eng.Register("task.join_all", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		hs, err := taskHandles("task.join_all", mainValue(eng, node, ec))
		if err != nil {
			return err
		}

		results, err := sched.JoinAll(ctx, hs)
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "as", "results"), value.NewList(results...))
		return nil
	}, engine.SlotMeta{
		Description: "Wait for every task; results keep the input order. The first failure by position is raised.",
		Example:     "task.join_all: [$a, $b] {\n  as: $results\n}",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "List of task handles, when not given as the main value"},
			"as":  {Description: "Variable to store the result list (Default: results)"},
		},
	})

	// ==========================================
	// SLOT: task.race
	// ==========================================
	eng.Register("task.race", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		hs, err := taskHandles("task.race", mainValue(eng, node, ec))
		if err != nil {
			return err
		}

		v, idx, err := sched.Race(ctx, hs)
		if idx >= 0 {
			ec.Set(targetName(node, "index", "index"), value.NewInt(int64(idx)))
		}
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "as", "result"), v)
		return nil
	}, engine.SlotMeta{
		Description: "Wait for the first task to finish. The others keep running.",
		Example:     "task.race: [$fast, $slow] {\n  as: $winner\n  index: $i\n}",
		Inputs: map[string]engine.InputMeta{
			"val":   {Description: "List of task handles, when not given as the main value"},
			"as":    {Description: "Variable to store the winner's result (Default: result)"},
			"index": {Description: "Variable to store the winner's position (Default: index)"},
		},
	})

	// ==========================================
	// SLOT: task.is_done / task.is_failed
	// ==========================================
	eng.Register("task.is_done", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		h, err := taskHandle("task.is_done", mainValue(eng, node, ec))
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "as", "is_done"), value.NewBool(h.IsDone()))
		return nil
	}, engine.SlotMeta{
		Description: "Whether a task has finished, successfully or not.",
		Example:     "task.is_done: $h {\n  as: $done\n}",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "Task handle, when not given as the main value"},
			"as":  {Description: "Variable to store the flag (Default: is_done)"},
		},
	})

	eng.Register("task.is_failed", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		h, err := taskHandle("task.is_failed", mainValue(eng, node, ec))
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "as", "is_failed"), value.NewBool(h.IsFailed()))
		return nil
	}, engine.SlotMeta{
		Description: "Whether a task has failed. Does not raise the failure.",
		Example:     "task.is_failed: $h {\n  as: $failed\n}",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "Task handle, when not given as the main value"},
			"as":  {Description: "Variable to store the flag (Default: is_failed)"},
		},
	})

	// ==========================================
	// SLOT: task.current / task.id
	// ==========================================
	eng.Register("task.current", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		id, _ := syncx.OwnerFrom(ctx)
		ec.Set(targetName(node, "as", "task_id"), value.NewInt(id))
		return nil
	}, engine.SlotMeta{
		Description: "Id of the running task; 0 on the main thread.",
		Example:     "task.current {\n  as: $me\n}",
		Inputs: map[string]engine.InputMeta{
			"as": {Description: "Variable to store the id (Default: task_id)"},
		},
	})

	eng.Register("task.id", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		h, err := taskHandle("task.id", mainValue(eng, node, ec))
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "as", "task_id"), value.NewInt(h.ID()))
		return nil
	}, engine.SlotMeta{
		Description: "Id of the task behind a handle.",
		Example:     "task.id: $h {\n  as: $id\n}",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "Task handle, when not given as the main value"},
			"as":  {Description: "Variable to store the id (Default: task_id)"},
		},
	})

	// ==========================================
	// SLOT: sleep
	// ==========================================
	handlerSleep := func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		d, err := coerce.ToDuration(mainValue(eng, node, ec).Native())
		if err != nil {
			return fmt.Errorf("sleep: %w", err)
		}
		return sched.Sleep(ctx, d)
	}
	sleepMeta := engine.SlotMeta{
		Description: "Block the current task for a duration (\"250ms\") or a number of milliseconds.",
		Example:     "sleep: 100ms",
	}
	eng.Register("sleep", handlerSleep, sleepMeta)
	eng.Register("task.sleep", handlerSleep, sleepMeta)
}
