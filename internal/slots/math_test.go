package slots

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenort/pkg/engine"
	"zenort/pkg/value"
)

func TestMathSlots(t *testing.T) {
	eng := engine.NewEngine()
	RegisterMathSlots(eng)

	t.Run("math.calc", func(t *testing.T) {
		ec := engine.NewExecutionContext(nil)
		ec.Set("total", value.NewInt(25))
		ec.Set("per_page", value.NewString("10"))

		node := &engine.Node{
			Name:  "math.calc",
			Value: "ceil($total / $per_page)",
			Children: []*engine.Node{
				{Name: "as", Value: "\x00$pages"},
			},
		}
		require.NoError(t, eng.Execute(context.Background(), node, ec))

		pages, _ := ec.Get("pages")
		f, ok := pages.AsFloat()
		require.True(t, ok)
		assert.Equal(t, 3.0, f)
	})

	t.Run("math.calc syntax error", func(t *testing.T) {
		ec := engine.NewExecutionContext(nil)
		node := &engine.Node{Name: "math.calc", Value: "1 +"}
		err := eng.Execute(context.Background(), node, ec)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "syntax error")
	})

	t.Run("money.calc", func(t *testing.T) {
		ec := engine.NewExecutionContext(nil)
		ec.Set("price", value.NewString("0.1"))
		ec.Set("qty", value.NewInt(3))
		ec.Set("discount", value.NewDecimal(decimal.RequireFromString("0.05")))

		node := &engine.Node{
			Name:  "money.calc",
			Value: "($price * $qty) - $discount",
			Children: []*engine.Node{
				{Name: "as", Value: "\x00$total"},
			},
		}
		require.NoError(t, eng.Execute(context.Background(), node, ec))

		total, _ := ec.Get("total")
		require.Equal(t, value.KindDecimal, total.Kind)
		assert.Equal(t, "0.25", total.String())
	})
}

func TestConditionTruthiness(t *testing.T) {
	ec := engine.NewExecutionContext(nil)
	ec.Set("flag", value.NewBool(true))
	ec.Set("n", value.NewInt(4))
	ec.Set("err", value.NewError(value.NewErrorValue("ValueError", "x")))

	tests := []struct {
		raw  string
		want bool
	}{
		{"\x00$flag", true},
		{"\x00$missing", false},
		{"$n > 3", true},
		{"$n % 2 == 1", false},
		{`$err.type == "ValueError"`, true},
		{"$nothing == nil", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := condition(tt.raw, ec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
