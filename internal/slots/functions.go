package slots

import (
	"context"

	"zenort/pkg/engine"
	"zenort/pkg/value"
)

func RegisterFunctionSlots(eng *engine.Engine) {
	// ==========================================
	// SLOT: FN (Function definition)
	// ==========================================
	eng.Register("fn", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		f, err := engine.NewScriptFunc(node)
		if err != nil {
			return err
		}

		// Top-level definitions were hoisted into Globals before the
		// script started; only nested ones are bound here.
		if g, ok := ec.Globals().Get(f.Name); ok {
			if fv, ok := g.AsFunction(); ok {
				if sf, ok := fv.(*engine.ScriptFunc); ok && sf.Node == node {
					return nil
				}
			}
		}

		ec.Set(f.Name, value.NewFunction(f))
		return nil
	}, engine.SlotMeta{
		Description: "Define a function. Top-level functions are visible to every task.",
		Example:     "fn: worker {\n  param: $n\n  return: $n\n}",
	})

	// ==========================================
	// SLOT: CALL
	// ==========================================
	eng.Register("call", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		fn, err := callable(node.Value, ec)
		if err != nil {
			return err
		}

		out, err := eng.CallFunction(ctx, fn, callArgs(eng, node, ec), ec)
		if err != nil {
			return err
		}

		if target := targetName(node, "as", ""); target != "" {
			ec.Set(target, out)
		}
		return nil
	}, engine.SlotMeta{
		Description: "Call a function with positional arguments.",
		Example:     "call: add {\n  arg: 1\n  arg: 2\n  as: $sum\n}",
		Inputs: map[string]engine.InputMeta{
			"arg":  {Description: "Positional argument (repeatable)"},
			"args": {Description: "List of arguments", Type: "list"},
			"as":   {Description: "Variable to store the return value"},
		},
	})

	// ==========================================
	// SLOT: RETURN
	// ==========================================
	eng.Register("return", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		return &engine.ReturnSignal{Value: mainValue(eng, node, ec)}
	}, engine.SlotMeta{
		Description: "Return a value from the current function.",
		Example:     "return: $result",
	})
}
