package slots

import (
	"fmt"
	"strings"

	"zenort/pkg/channel"
	"zenort/pkg/engine"
	"zenort/pkg/syncx"
	"zenort/pkg/task"
	"zenort/pkg/value"
)

// attrs are the child names a slot reads as attributes. Every other child of
// a slot without a do block is its body.
var attrs = map[string]bool{
	"as": true, "val": true, "value": true, "arg": true, "args": true,
	"by": true, "capacity": true, "sender": true, "receiver": true,
	"status": true, "timeout": true, "index": true, "call": true,
	"bind": true, "type": true, "payload": true, "key": true, "name": true,
	"expected": true,
}

var blocks = map[string]bool{"then": true, "else": true, "catch": true, "finally": true}

// targetName reads the variable an `as`-style attribute names. The `$` is
// optional.
func targetName(node *engine.Node, attr, def string) string {
	if c := node.Child(attr); c != nil {
		if name := strings.TrimPrefix(engine.RawString(c.Value), "$"); name != "" {
			return name
		}
	}
	return def
}

// attrValue resolves the first child named one of names.
func attrValue(eng *engine.Engine, node *engine.Node, ec *engine.ExecutionContext, names ...string) (value.Value, bool) {
	for _, c := range node.Children {
		for _, n := range names {
			if c.Name == n {
				return eng.ResolveValue(c, ec), true
			}
		}
	}
	return value.NewNil(), false
}

// mainValue resolves the slot's own value, falling back to a `val` child.
func mainValue(eng *engine.Engine, node *engine.Node, ec *engine.ExecutionContext) value.Value {
	if node.Value != nil {
		return engine.ResolveRaw(node.Value, ec)
	}
	v, _ := attrValue(eng, node, ec, "val", "value")
	return v
}

// body returns the statements a block slot runs: the children of its do
// block, or its non-attribute children when there is none.
func body(node *engine.Node) []*engine.Node {
	if do := node.Child("do"); do != nil {
		return do.Children
	}
	var out []*engine.Node
	for _, c := range node.Children {
		if !attrs[c.Name] && !blocks[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

// callArgs collects positional arguments from `arg` children and from an
// optional `args` list, in source order.
func callArgs(eng *engine.Engine, node *engine.Node, ec *engine.ExecutionContext) []value.Value {
	var args []value.Value
	for _, c := range node.Children {
		switch c.Name {
		case "arg":
			args = append(args, eng.ResolveValue(c, ec))
		case "args":
			v := eng.ResolveValue(c, ec)
			if l, ok := v.AsList(); ok {
				args = append(args, l.Items...)
			} else if !v.IsNil() {
				args = append(args, v)
			}
		}
	}
	return args
}

// callable resolves a function reference. `worker`, `"worker"` and `$worker`
// all name the function bound to worker; a variable may also hold the name.
func callable(raw interface{}, ec *engine.ExecutionContext) (value.Value, error) {
	name := engine.RawString(raw)
	if name == "" {
		return value.NewNil(), fmt.Errorf("function name is required")
	}

	v := engine.ResolveRaw(raw, ec)
	if v.Kind == value.KindFunction {
		return v, nil
	}
	if s, ok := v.AsString(); ok && s != "" {
		name = s
	}
	fn, ok := ec.Get(strings.TrimPrefix(name, "$"))
	if !ok {
		return value.NewNil(), value.NewErrorValue("NameError", fmt.Sprintf("function '%s' is not defined", name))
	}
	return fn, nil
}

func typeError(slot, want string, got value.Value) *value.ErrorValue {
	return value.NewErrorValue("TypeError", fmt.Sprintf("%s: expected %s, got %s", slot, want, got.TypeName()))
}

func taskHandle(slot string, v value.Value) (*task.Handle, error) {
	if h, ok := v.AsHandle(); ok {
		if th, ok := h.(*task.Handle); ok {
			return th, nil
		}
	}
	return nil, typeError(slot, "task handle", v)
}

func taskHandles(slot string, v value.Value) ([]*task.Handle, error) {
	l, ok := v.AsList()
	if !ok {
		return nil, typeError(slot, "list of task handles", v)
	}
	hs := make([]*task.Handle, 0, l.Len())
	for _, item := range l.Items {
		h, err := taskHandle(slot, item)
		if err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}
	return hs, nil
}

func senderHandle(slot string, v value.Value) (*channel.Sender, error) {
	if h, ok := v.AsHandle(); ok {
		if s, ok := h.(*channel.Sender); ok {
			return s, nil
		}
	}
	return nil, typeError(slot, "channel sender", v)
}

func receiverHandle(slot string, v value.Value) (*channel.Receiver, error) {
	if h, ok := v.AsHandle(); ok {
		if r, ok := h.(*channel.Receiver); ok {
			return r, nil
		}
	}
	return nil, typeError(slot, "channel receiver", v)
}

// closer is implemented by both channel halves.
type closer interface {
	Close()
	IsClosed() bool
}

func channelEnd(slot string, v value.Value) (closer, error) {
	if h, ok := v.AsHandle(); ok {
		if c, ok := h.(closer); ok {
			return c, nil
		}
	}
	return nil, typeError(slot, "channel sender or receiver", v)
}

func mutexHandle(slot string, v value.Value) (*syncx.Mutex, error) {
	if h, ok := v.AsHandle(); ok {
		if m, ok := h.(*syncx.Mutex); ok {
			return m, nil
		}
	}
	return nil, typeError(slot, "mutex", v)
}

func counterHandle(slot string, v value.Value) (*syncx.AtomicCounter, error) {
	if h, ok := v.AsHandle(); ok {
		if c, ok := h.(*syncx.AtomicCounter); ok {
			return c, nil
		}
	}
	return nil, typeError(slot, "atomic counter", v)
}
