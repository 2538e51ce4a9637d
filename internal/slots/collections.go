package slots

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"zenort/pkg/engine"
	"zenort/pkg/value"
)

func RegisterCollectionSlots(eng *engine.Engine) {
	// ==========================================
	// SLOT: list.push
	// ==========================================
	eng.Register("list.push", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		name := strings.TrimPrefix(engine.RawString(node.Value), "$")
		if name == "" {
			return fmt.Errorf("list.push: target list is required")
		}

		var items []value.Value
		for _, c := range node.Children {
			if c.Name == "val" || c.Name == "value" {
				items = append(items, eng.ResolveValue(c, ec))
			}
		}

		current := engine.ResolveRaw(node.Value, ec)
		if l, ok := current.AsList(); ok {
			l.Append(items...)
			return nil
		}
		if current.IsNil() {
			ec.Set(name, value.NewList(items...))
			return nil
		}
		return typeError("list.push", "list", current)
	}, engine.SlotMeta{
		Description: "Append values to a list in place. A missing variable starts a new list.",
		Example:     "list.push: $results {\n  val: $r\n}",
		Inputs: map[string]engine.InputMeta{
			"val":   {Description: "Value to append (repeatable)"},
			"value": {Description: "Alias for val"},
		},
	})

	// ==========================================
	// SLOT: len
	// ==========================================
	eng.Register("len", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		v := engine.ResolveRaw(node.Value, ec)

		var n int
		switch v.Kind {
		case value.KindList:
			l, _ := v.AsList()
			n = l.Len()
		case value.KindMap:
			m, _ := v.AsMap()
			n = m.Len()
		case value.KindString:
			s, _ := v.AsString()
			n = utf8.RuneCountInString(s)
		case value.KindNil:
		default:
			return typeError("len", "list, map or string", v)
		}

		ec.Set(targetName(node, "as", "length"), value.NewInt(int64(n)))
		return nil
	}, engine.SlotMeta{
		Description: "Length of a list, map or string.",
		Example:     "len: $items {\n  as: $n\n}",
		Inputs: map[string]engine.InputMeta{
			"as": {Description: "Variable to store the length (Default: length)"},
		},
	})
}
