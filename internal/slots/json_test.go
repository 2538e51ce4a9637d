package slots

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenort/pkg/engine"
	"zenort/pkg/value"
)

func TestJSONSlots(t *testing.T) {
	eng := engine.NewEngine()
	RegisterJSONSlots(eng)

	t.Run("json.parse success", func(t *testing.T) {
		ec := engine.NewExecutionContext(nil)
		ec.Set("input", value.NewString(`{"name": "Zeno", "version": 1.5}`))

		node := &engine.Node{
			Name:     "json.parse",
			Value:    "\x00$input",
			Children: []*engine.Node{{Name: "as", Value: "\x00$output"}},
		}
		require.NoError(t, eng.Execute(context.Background(), node, ec))

		name, ok := ec.Get("output.name")
		require.True(t, ok)
		assert.Equal(t, "Zeno", name.String())
		version, _ := ec.Get("output.version")
		assert.True(t, value.Equal(value.NewFloat(1.5), version))
	})

	t.Run("json.parse failure", func(t *testing.T) {
		ec := engine.NewExecutionContext(nil)
		ec.Set("input", value.NewString(`{not json`))
		node := &engine.Node{Name: "json.parse", Value: "\x00$input"}

		err := eng.Execute(context.Background(), node, ec)
		require.Error(t, err)
		assert.Equal(t, "ValueError", value.AsErrorValue(err).Type)
	})

	t.Run("json.stringify", func(t *testing.T) {
		ec := engine.NewExecutionContext(nil)
		ec.Set("data", value.NewMap(map[string]value.Value{
			"ids": value.NewList(value.NewInt(1), value.NewInt(2)),
		}))
		node := &engine.Node{
			Name:     "json.stringify",
			Value:    "\x00$data",
			Children: []*engine.Node{{Name: "as", Value: "\x00$body"}},
		}
		require.NoError(t, eng.Execute(context.Background(), node, ec))

		body, _ := ec.Get("body")
		assert.JSONEq(t, `{"ids":[1,2]}`, body.String())
	})
}
