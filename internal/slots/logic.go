package slots

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zenort/pkg/engine"
	"zenort/pkg/value"
)

func RegisterLogicSlots(eng *engine.Engine) {
	// ==========================================
	// SLOT: SCOPE SET
	// ==========================================
	eng.Register("scope.set", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		key := strings.TrimPrefix(engine.RawString(node.Value), "$")
		if k := targetName(node, "key", ""); k != "" {
			key = k
		}
		if k := targetName(node, "name", ""); k != "" {
			key = k
		}
		if key == "" {
			return fmt.Errorf("scope.set: variable name is required")
		}

		val, _ := attrValue(eng, node, ec, "val", "value")
		ec.Set(key, val)
		return nil
	}, engine.SlotMeta{
		Description: "Create or overwrite a variable in the current frame.",
		Example:     "scope.set: $total {\n  val: 0\n}",
		Inputs: map[string]engine.InputMeta{
			"key":   {Description: "Variable name"},
			"name":  {Description: "Variable name (alias for key)"},
			"val":   {Description: "Variable value"},
			"value": {Description: "Variable value (alias for val)"},
		},
	})

	// ==========================================
	// SLOT: IF
	// ==========================================
	eng.Register("if", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		ok, err := condition(node.Value, ec)
		if err != nil {
			return fmt.Errorf("if: %w", err)
		}

		if ok {
			if then := node.Child("then"); then != nil {
				return eng.ExecuteBlock(ctx, then, ec)
			}
			for _, stmt := range body(node) {
				if err := eng.Execute(ctx, stmt, ec); err != nil {
					return err
				}
			}
			return nil
		}
		if els := node.Child("else"); els != nil {
			return eng.ExecuteBlock(ctx, els, ec)
		}
		return nil
	}, engine.SlotMeta{
		Description: "Run then when the condition holds, else otherwise.",
		Example:     "if: $count > 10 {\n  then {\n    log: big\n  }\n  else {\n    log: small\n  }\n}",
	})

	// ==========================================
	// SLOT: FOR LOOP
	// ==========================================
	handlerFor := func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		src := engine.ResolveRaw(node.Value, ec)
		itemName := targetName(node, "as", "item")
		keyName := targetName(node, "key", "")

		var keys []string
		var items []value.Value
		switch src.Kind {
		case value.KindList:
			l, _ := src.AsList()
			items = append(items, l.Items...)
		case value.KindMap:
			m, _ := src.AsMap()
			keys = m.Keys()
			for _, k := range keys {
				v, _ := m.Get(k)
				items = append(items, v)
			}
		case value.KindInt:
			n, _ := src.AsInt()
			for i := int64(0); i < n; i++ {
				items = append(items, value.NewInt(i))
			}
		case value.KindNil:
			return nil
		default:
			return typeError("for", "list, map or count", src)
		}

		stmts := body(node)
		parentLoop, hasParentLoop := ec.Get("loop")
		count := len(items)

		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}

			ec.Set(itemName, item)
			if keyName != "" && keys != nil {
				ec.Set(keyName, value.NewString(keys[i]))
			}
			loop := map[string]value.Value{
				"index":     value.NewInt(int64(i)),
				"iteration": value.NewInt(int64(i + 1)),
				"remaining": value.NewInt(int64(count - i - 1)),
				"count":     value.NewInt(int64(count)),
				"first":     value.NewBool(i == 0),
				"last":      value.NewBool(i == count-1),
			}
			if hasParentLoop {
				loop["parent"] = parentLoop
			}
			ec.Set("loop", value.NewMap(loop))

			brk, err := runIteration(ctx, eng, stmts, ec)
			if err != nil {
				return err
			}
			if brk {
				break
			}
		}

		if hasParentLoop {
			ec.Set("loop", parentLoop)
		} else {
			ec.Delete("loop")
		}
		return nil
	}

	eng.Register("for", handlerFor, engine.SlotMeta{
		Description: "Iterate over a list, the values of a map, or 0..n-1 for an integer.",
		Example:     "for: $list {\n  as: $item\n  do {\n    log: $item\n  }\n}",
	})
	eng.Register("foreach", handlerFor, engine.SlotMeta{Example: "foreach: $list { as: $item ... }"})

	// ==========================================
	// SLOT: WHILE LOOP
	// ==========================================
	eng.Register("while", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		stmts := body(node)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			ok, err := condition(node.Value, ec)
			if err != nil {
				return fmt.Errorf("while: %w", err)
			}
			if !ok {
				return nil
			}

			brk, err := runIteration(ctx, eng, stmts, ec)
			if err != nil {
				return err
			}
			if brk {
				return nil
			}
		}
	}, engine.SlotMeta{
		Description: "Repeat the body while the condition holds.",
		Example:     "while: $i < 10 {\n  math.calc: $i + 1 {\n    as: $i\n  }\n}",
	})

	// ==========================================
	// SLOT: BREAK & CONTINUE (break: $i == 5)
	// ==========================================
	eng.Register("break", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		if node.Value != nil {
			ok, err := condition(node.Value, ec)
			if err != nil || !ok {
				return err
			}
		}
		return engine.ErrBreak
	}, engine.SlotMeta{Description: "Leave the innermost loop. Supports a condition: `break: $i == 5`"})

	eng.Register("continue", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		if node.Value != nil {
			ok, err := condition(node.Value, ec)
			if err != nil || !ok {
				return err
			}
		}
		return engine.ErrContinue
	}, engine.SlotMeta{Description: "Skip to the next iteration. Supports a condition: `continue: $i % 2 == 0`"})

	// ==========================================
	// SLOT: TRY / CATCH
	// ==========================================
	eng.Register("try", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		errVar := targetName(node, "as", "error")

		err := runStatements(ctx, eng, body(node), ec)
		if err != nil && !engine.IsControlFlow(err) && !isContextErr(err) {
			if catch := node.Child("catch"); catch != nil {
				ec.Set(errVar, value.NewError(value.AsErrorValue(err)))
				err = eng.ExecuteBlock(ctx, catch, ec)
			}
		}

		if finally := node.Child("finally"); finally != nil {
			if ferr := eng.ExecuteBlock(ctx, finally, ec); ferr != nil {
				return ferr
			}
		}
		return err
	}, engine.SlotMeta{
		Description: "Run do; on error bind it to as (Default: error) and run catch. finally always runs.",
		Example:     "try {\n  do {\n    task.join: $h\n  }\n  catch {\n    log: $error.message\n  }\n}",
	})

	// ==========================================
	// SLOT: RAISE
	// ==========================================
	eng.Register("raise", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		v := mainValue(eng, node, ec)
		if ev, ok := v.AsError(); ok {
			return ev
		}

		ev := value.NewErrorValue(targetName(node, "type", value.TypeRuntimeError), v.String())
		if p, ok := attrValue(eng, node, ec, "payload"); ok {
			ev.Payload = p.Clone()
		}
		ev.Stack = []string{node.Location()}
		return ev
	}, engine.SlotMeta{
		Description: "Raise an error. Raising a caught error re-raises it unchanged.",
		Example:     "raise: \"bad input\" {\n  type: ValueError\n}",
		Inputs: map[string]engine.InputMeta{
			"val":     {Description: "Error message"},
			"type":    {Description: "Error type (Default: RuntimeError)"},
			"payload": {Description: "Arbitrary value attached to the error"},
		},
	})
}

// runIteration runs one loop body and reports whether the loop should stop.
func runIteration(ctx context.Context, eng *engine.Engine, stmts []*engine.Node, ec *engine.ExecutionContext) (bool, error) {
	err := runStatements(ctx, eng, stmts, ec)
	switch {
	case err == nil, errors.Is(err, engine.ErrContinue):
		return false, nil
	case errors.Is(err, engine.ErrBreak):
		return true, nil
	}
	return false, err
}

func runStatements(ctx context.Context, eng *engine.Engine, stmts []*engine.Node, ec *engine.ExecutionContext) error {
	for _, stmt := range stmts {
		if err := eng.Execute(ctx, stmt, ec); err != nil {
			return err
		}
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
