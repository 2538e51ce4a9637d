package slots

import (
	"context"
	"fmt"

	"zenort/pkg/engine"
	"zenort/pkg/fastjson"
	"zenort/pkg/value"
)

func RegisterJSONSlots(eng *engine.Engine) {
	eng.Register("json.parse", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		src := mainValue(eng, node, ec)
		s, ok := src.AsString()
		if !ok {
			return typeError("json.parse", "string", src)
		}

		v, err := value.ParseJSON([]byte(s))
		if err != nil {
			return value.NewErrorValue("ValueError", fmt.Sprintf("json.parse: %v", err))
		}
		ec.Set(targetName(node, "as", "json_result"), v)
		return nil
	}, engine.SlotMeta{
		Description: "Decode a JSON string.",
		Example:     "json.parse: $body {\n  as: $data\n}",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "JSON text, when not given as the main value"},
			"as":  {Description: "Variable to store the decoded value (Default: json_result)"},
		},
	})

	eng.Register("json.stringify", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		b, err := fastjson.Marshal(mainValue(eng, node, ec))
		if err != nil {
			return fmt.Errorf("json.stringify: %w", err)
		}
		ec.Set(targetName(node, "as", "json_result"), value.NewString(string(b)))
		return nil
	}, engine.SlotMeta{
		Description: "Encode a value as JSON.",
		Example:     "json.stringify: $results {\n  as: $body\n}",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "Value, when not given as the main value"},
			"as":  {Description: "Variable to store the JSON text (Default: json_result)"},
		},
	})
}
