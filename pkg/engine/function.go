package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"zenort/pkg/value"
)

// ScriptFunc is a function defined in ZenoLang with `fn: name { ... }`.
// The body is never modified after parsing, so one ScriptFunc is shared by
// every task that calls it.
type ScriptFunc struct {
	Name   string
	Params []string
	Body   []*Node
	Node   *Node
}

func (f *ScriptFunc) FuncName() string { return f.Name }
func (f *ScriptFunc) Arity() int       { return len(f.Params) }

// NewScriptFunc builds a function from its fn node. Parameters are declared
// with `param: $name` children (or one `params: a, b`); every other child
// is the body.
func NewScriptFunc(node *Node) (*ScriptFunc, error) {
	name := RawString(node.Value)
	if name == "" {
		return nil, fmt.Errorf("fn: function name is required")
	}

	f := &ScriptFunc{Name: name, Node: node}
	for _, child := range node.Children {
		switch child.Name {
		case "param":
			p := strings.TrimPrefix(RawString(child.Value), "$")
			if p == "" {
				return nil, fmt.Errorf("fn %s: empty parameter name at line %d", name, child.Line)
			}
			f.Params = append(f.Params, p)
		case "params":
			for _, p := range strings.Split(RawString(child.Value), ",") {
				if p = strings.TrimPrefix(strings.TrimSpace(p), "$"); p != "" {
					f.Params = append(f.Params, p)
				}
			}
		default:
			f.Body = append(f.Body, child)
		}
	}
	return f, nil
}

// Hoist collects the top-level function definitions of a script into a
// Globals table, so functions can be called before their definition and
// from any task.
func (e *Engine) Hoist(root *Node) (*Globals, error) {
	defs := make(map[string]value.Value)
	for _, child := range root.Children {
		if child.Name != "fn" {
			continue
		}
		f, err := NewScriptFunc(child)
		if err != nil {
			return nil, diagnosticAt(child, err)
		}
		if _, dup := defs[f.Name]; dup {
			return nil, diagnosticAt(child, fmt.Errorf("function '%s' defined twice", f.Name))
		}
		defs[f.Name] = value.NewFunction(f)
	}
	return NewGlobals(defs), nil
}

// Prepare hoists root's definitions and returns the main thread's context.
func (e *Engine) Prepare(root *Node) (*ExecutionContext, error) {
	g, err := e.Hoist(root)
	if err != nil {
		return nil, err
	}
	slog.Debug("📦 Globals published", "functions", g.Len())
	return NewExecutionContext(g), nil
}

// Run executes a whole script. A top-level return ends the script early and
// its value is returned.
func (e *Engine) Run(ctx context.Context, root *Node, ec *ExecutionContext) (value.Value, error) {
	err := e.ExecuteBlock(ctx, root, ec)
	var ret *ReturnSignal
	switch {
	case err == nil:
		return value.NewNil(), nil
	case errors.As(err, &ret):
		return ret.Value, nil
	case errors.Is(err, ErrBreak), errors.Is(err, ErrContinue):
		return value.NewNil(), fmt.Errorf("%w used outside of a loop", err)
	}
	return value.NewNil(), err
}

// CallFunction invokes a callable value with positional arguments. Script
// functions run their body in a child frame of ec, so the body sees the
// caller's bindings and its own writes stay local.
func (e *Engine) CallFunction(ctx context.Context, fn value.Value, args []value.Value, ec *ExecutionContext) (value.Value, error) {
	f, ok := fn.AsFunction()
	if !ok {
		return value.NewNil(), value.NewErrorValue("TypeError", fmt.Sprintf("value of type %s is not callable", fn.TypeName()))
	}
	if n := f.Arity(); n >= 0 && n != len(args) {
		return value.NewNil(), value.NewErrorValue("ArityError", fmt.Sprintf("%s expects %d argument(s), got %d", f.FuncName(), n, len(args)))
	}

	switch f := f.(type) {
	case *value.NativeFunc:
		if f.Fn == nil {
			return value.NewNil(), nil
		}
		return f.Fn(ctx, args)

	case *ScriptFunc:
		frame := ec.Child()
		for i, p := range f.Params {
			frame.Set(p, args[i])
		}
		for _, stmt := range f.Body {
			if err := e.Execute(ctx, stmt, frame); err != nil {
				var ret *ReturnSignal
				if errors.As(err, &ret) {
					return ret.Value, nil
				}
				return value.NewNil(), err
			}
		}
		return value.NewNil(), nil
	}

	return value.NewNil(), fmt.Errorf("unsupported function type %T", f)
}
