package slots

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenort/pkg/engine"
	"zenort/pkg/value"
)

func TestFunctionSlots(t *testing.T) {
	t.Run("call before definition", func(t *testing.T) {
		ec, err := runScript(t, `
call: add {
  arg: 2
  arg: 3
  as: $sum
}
fn: add {
  param: $a
  param: $b
  math.calc: $a + $b {
    as: $r
  }
  return: $r
}
`)
		require.NoError(t, err)
		n, ok := mustGet(t, ec, "sum").AsInt()
		require.True(t, ok)
		assert.Equal(t, int64(5), n)
	})

	t.Run("nested fn binds locally", func(t *testing.T) {
		eng, _ := newRuntime()
		ec := engine.NewExecutionContext(nil)
		node := &engine.Node{
			Name:  "fn",
			Value: "\x00inner",
			Children: []*engine.Node{
				{Name: "return", Value: "\x0042"},
			},
		}
		require.NoError(t, eng.Execute(context.Background(), node, ec))

		fn := mustGet(t, ec, "inner")
		out, err := eng.CallFunction(context.Background(), fn, nil, ec)
		require.NoError(t, err)
		assert.True(t, value.Equal(value.NewInt(42), out))
	})

	t.Run("arity mismatch raises", func(t *testing.T) {
		_, err := runScript(t, `
fn: one {
  param: $x
  return: $x
}
call: one
`)
		require.Error(t, err)
		assert.Equal(t, "ArityError", value.AsErrorValue(err).Type)
	})
}
