package slots

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/shopspring/decimal"

	"zenort/pkg/engine"
	"zenort/pkg/utils/coerce"
	"zenort/pkg/value"
)

// exprEnv exposes the visible bindings to expr. Errors become maps so
// conditions can test $err.type.
func exprEnv(ec *engine.ExecutionContext) map[string]interface{} {
	env := make(map[string]interface{})
	for k, v := range ec.Bindings() {
		if ev, ok := v.AsError(); ok {
			env[k] = map[string]interface{}{
				"type":    ev.Type,
				"message": ev.Message,
				"thread":  ev.Thread,
				"payload": ev.Payload.Native(),
			}
			continue
		}
		env[k] = v.Native()
	}
	return env
}

// evalExpr compiles and runs a ZenoLang expression. `$` prefixes are
// dropped so `$a + 1` reads as `a + 1`.
func evalExpr(expression string, env map[string]interface{}, opts ...expr.Option) (interface{}, error) {
	clean := strings.ReplaceAll(expression, "$", "")
	options := append([]expr.Option{expr.Env(env)}, opts...)

	program, err := expr.Compile(clean, options...)
	if err != nil {
		return nil, fmt.Errorf("syntax error '%s': %v", expression, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("runtime error: %v", err)
	}
	return out, nil
}

// condition evaluates the value of if/while/break. A lone variable or
// literal is tested for truthiness; anything else is an expr expression in
// which unknown names are nil.
func condition(raw interface{}, ec *engine.ExecutionContext) (bool, error) {
	src := engine.RawString(raw)
	if src == "" {
		return false, nil
	}
	if !strings.ContainsAny(src, " \t<>=!&|()+-*/%") {
		return engine.ResolveRaw(raw, ec).Truthy(), nil
	}
	out, err := evalExpr(src, exprEnv(ec), expr.AllowUndefinedVariables())
	if err != nil {
		return false, err
	}
	return value.NewValue(out).Truthy(), nil
}

func RegisterMathSlots(eng *engine.Engine) {
	// ==========================================
	// 1. SLOT: MATH.CALC (General Math)
	// ==========================================
	eng.Register("math.calc", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		expression := engine.RawString(node.Value)
		if c := node.Child("val"); c != nil {
			expression = engine.RawString(c.Value)
		}
		if c := node.Child("expr"); c != nil {
			expression = engine.RawString(c.Value)
		}
		if expression == "" {
			return fmt.Errorf("math.calc: expression is required")
		}

		env := exprEnv(ec)
		// Numeric strings take part in arithmetic.
		for k, v := range env {
			switch n := v.(type) {
			case string:
				if f, err := coerce.ToFloat64(n); err == nil {
					env[k] = f
				}
			case decimal.Decimal:
				env[k] = n.InexactFloat64()
			}
		}
		env["ceil"] = math.Ceil
		env["floor"] = math.Floor
		env["round"] = math.Round
		env["abs"] = math.Abs
		env["max"] = math.Max
		env["min"] = math.Min
		env["sqrt"] = math.Sqrt
		env["pow"] = math.Pow

		out, err := evalExpr(expression, env)
		if err != nil {
			return fmt.Errorf("math.calc: %w", err)
		}

		ec.Set(targetName(node, "as", "calc_result"), value.NewValue(out))
		return nil
	}, engine.SlotMeta{
		Description: "Evaluate an arithmetic expression.",
		Example:     "math.calc: $count + 1 {\n  as: $count\n}",
		Inputs: map[string]engine.InputMeta{
			"as":   {Description: "Variable to store the result (Default: calc_result)"},
			"val":  {Description: "Expression, when not given as the main value"},
			"expr": {Description: "Alias for val"},
		},
	})

	// ==========================================
	// 2. SLOT: MONEY.CALC (Decimal Math)
	// ==========================================
	eng.Register("money.calc", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		expression := engine.RawString(node.Value)
		if c := node.Child("val"); c != nil {
			expression = engine.RawString(c.Value)
		}
		if expression == "" {
			return fmt.Errorf("money.calc: expression is required")
		}

		env := make(map[string]interface{})
		for k, v := range ec.Bindings() {
			if d, ok := v.AsDecimal(); ok {
				env[k] = d
				continue
			}
			if d, err := decimal.NewFromString(v.String()); err == nil {
				env[k] = d
			}
		}
		env["Add"] = func(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) }
		env["Sub"] = func(a, b decimal.Decimal) decimal.Decimal { return a.Sub(b) }
		env["Mul"] = func(a, b decimal.Decimal) decimal.Decimal { return a.Mul(b) }
		env["Div"] = func(a, b decimal.Decimal) decimal.Decimal { return a.Div(b) }
		env["dec"] = func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

		out, err := evalExpr(expression, env,
			expr.Operator("+", "Add"),
			expr.Operator("-", "Sub"),
			expr.Operator("*", "Mul"),
			expr.Operator("/", "Div"),
		)
		if err != nil {
			return fmt.Errorf("money.calc: %w", err)
		}

		target := targetName(node, "as", "money_result")
		if d, ok := out.(decimal.Decimal); ok {
			ec.Set(target, value.NewDecimal(d))
		} else {
			ec.Set(target, value.NewValue(out))
		}
		return nil
	}, engine.SlotMeta{
		Description: "Evaluate an expression with exact decimal arithmetic.",
		Example:     "money.calc: ($price * $qty) - $discount {\n  as: $total\n}",
		Inputs: map[string]engine.InputMeta{
			"as":  {Description: "Variable to store the result (Default: money_result)"},
			"val": {Description: "Expression, when not given as the main value"},
		},
	})
}
