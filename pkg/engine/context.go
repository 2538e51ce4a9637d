package engine

import (
	"strconv"
	"strings"
	"sync"

	"zenort/pkg/value"
)

// ExecutionContext holds the variable bindings of one thread of execution:
// a chain of frames ending at the program Globals. Each task owns its own
// chain; only Globals is shared.
type ExecutionContext struct {
	mu      sync.RWMutex
	vars    map[string]value.Value
	parent  *ExecutionContext
	globals *Globals
}

func NewExecutionContext(globals *Globals) *ExecutionContext {
	if globals == nil {
		globals = NewGlobals(nil)
	}
	return &ExecutionContext{
		vars:    make(map[string]value.Value),
		globals: globals,
	}
}

// Child opens a frame for a function call or block.
func (ec *ExecutionContext) Child() *ExecutionContext {
	return &ExecutionContext{
		vars:    make(map[string]value.Value),
		parent:  ec,
		globals: ec.globals,
	}
}

func (ec *ExecutionContext) Globals() *Globals {
	return ec.globals
}

// Set binds key in the current frame.
func (ec *ExecutionContext) Set(key string, val value.Value) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.vars[key] = val
}

func (ec *ExecutionContext) Delete(key string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	delete(ec.vars, key)
}

// Get looks key up through the frames, then Globals. Dotted keys navigate
// into maps and lists: user.name, items.0.
func (ec *ExecutionContext) Get(key string) (value.Value, bool) {
	if v, ok := ec.lookup(key); ok {
		return v, true
	}

	if !strings.Contains(key, ".") {
		return value.NewNil(), false
	}

	parts := strings.Split(key, ".")
	current, ok := ec.lookup(parts[0])
	if !ok {
		return value.NewNil(), false
	}
	for _, part := range parts[1:] {
		switch current.Kind {
		case value.KindMap:
			m, _ := current.AsMap()
			current, ok = m.Get(part)
			if !ok {
				return value.NewNil(), false
			}
		case value.KindList:
			l, _ := current.AsList()
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= l.Len() {
				return value.NewNil(), false
			}
			current = l.Items[idx]
		case value.KindError:
			ev, _ := current.AsError()
			current, ok = errorField(ev, part)
			if !ok {
				return value.NewNil(), false
			}
		default:
			return value.NewNil(), false
		}
	}
	return current, true
}

// errorField exposes the fields of a caught error to dotted lookups such as
// $err.type.
func errorField(ev *value.ErrorValue, name string) (value.Value, bool) {
	switch name {
	case "type":
		return value.NewString(ev.Type), true
	case "message":
		return value.NewString(ev.Message), true
	case "payload":
		return ev.Payload, true
	case "thread":
		return value.NewInt(ev.Thread), true
	case "stack":
		items := make([]value.Value, len(ev.Stack))
		for i, f := range ev.Stack {
			items[i] = value.NewString(f)
		}
		return value.NewList(items...), true
	}
	return value.NewNil(), false
}

func (ec *ExecutionContext) lookup(key string) (value.Value, bool) {
	for frame := ec; frame != nil; frame = frame.parent {
		frame.mu.RLock()
		v, ok := frame.vars[key]
		frame.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return ec.globals.Get(key)
}

// Bindings flattens the frame chain into one map, innermost binding winning.
// Globals are not included.
func (ec *ExecutionContext) Bindings() map[string]value.Value {
	var chain []*ExecutionContext
	for frame := ec; frame != nil; frame = frame.parent {
		chain = append(chain, frame)
	}
	out := make(map[string]value.Value)
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].mu.RLock()
		for k, v := range chain[i].vars {
			out[k] = v
		}
		chain[i].mu.RUnlock()
	}
	return out
}

// CloneIsolated returns a single-frame context holding a deep copy of every
// visible binding, sharing only Globals. Values reachable from two bindings
// stay shared with each other inside the copy. Handles follow their own copy
// policy.
func (ec *ExecutionContext) CloneIsolated() *ExecutionContext {
	src := ec.Bindings()
	c := value.NewCloner()

	out := &ExecutionContext{
		vars:    make(map[string]value.Value, len(src)),
		globals: ec.globals,
	}
	for k, v := range src {
		out.vars[k] = c.Clone(v)
	}
	return out
}
