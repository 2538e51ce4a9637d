package slots

import (
	"context"
	"fmt"

	"zenort/pkg/engine"
	"zenort/pkg/value"
)

func RegisterMetaSlots(eng *engine.Engine) {
	// 1. meta.eval
	eng.Register("meta.eval", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		v := mainValue(eng, node, ec)
		code, ok := v.AsString()
		if !ok {
			return typeError("meta.eval", "string", v)
		}

		root, err := engine.ParseNamed(code, "eval")
		if err != nil {
			return fmt.Errorf("meta.eval parse error: %v", err)
		}
		return eng.ExecuteBlock(ctx, root, ec)
	}, engine.SlotMeta{
		Description: "Evaluate a string as ZenoLang code in the current context.",
		Example:     `meta.eval: "print: 'hello'"`,
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "The code, when not given as the main value", Type: "string"},
		},
	})

	// 2. meta.scope
	eng.Register("meta.scope", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		ec.Set(targetName(node, "as", "scope"), value.NewMap(ec.Bindings()))
		return nil
	}, engine.SlotMeta{
		Description: "Return every variable visible in the current context as a map (Introspection).",
		Example:     "meta.scope {\n  as: $vars\n}",
		Inputs: map[string]engine.InputMeta{
			"as": {Description: "Variable to store the map (Default: scope)"},
		},
	})

	// 3. engine.slots
	eng.Register("engine.slots", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		docs := eng.GetDocumentation()
		names := eng.GetSortedSlotNames()

		list := make([]value.Value, 0, len(names))
		for _, name := range names {
			meta := docs[name]
			inputs := make(map[string]value.Value, len(meta.Inputs))
			for in, prop := range meta.Inputs {
				inputs[in] = value.NewMap(map[string]value.Value{
					"description": value.NewString(prop.Description),
					"required":    value.NewBool(prop.Required),
					"type":        value.NewString(prop.Type),
				})
			}
			list = append(list, value.NewMap(map[string]value.Value{
				"name":        value.NewString(name),
				"description": value.NewString(meta.Description),
				"example":     value.NewString(meta.Example),
				"inputs":      value.NewMap(inputs),
			}))
		}

		ec.Set(targetName(node, "as", "slots"), value.NewList(list...))
		return nil
	}, engine.SlotMeta{
		Description: "Return documentation metadata for all registered slots.",
		Example:     "engine.slots {\n  as: $docs\n}",
		Inputs: map[string]engine.InputMeta{
			"as": {Description: "Variable to store the list (Default: slots)"},
		},
	})
}
