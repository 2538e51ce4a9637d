package slots

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenort/pkg/engine"
)

func TestTestSlots(t *testing.T) {
	eng := engine.NewEngine()
	RegisterLogicSlots(eng)
	RegisterTestSlots(eng)

	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })

	t.Run("assert.eq success", func(t *testing.T) {
		ec := engine.NewExecutionContext(nil)
		node := &engine.Node{
			Name:     "assert.eq",
			Value:    "\x0010",
			Children: []*engine.Node{{Name: "expected", Value: "\x0010"}},
		}
		assert.NoError(t, eng.Execute(context.Background(), node, ec))
	})

	t.Run("assert.eq failure", func(t *testing.T) {
		ec := engine.NewExecutionContext(nil)
		node := &engine.Node{
			Name:     "assert.eq",
			Value:    "\x0010",
			Children: []*engine.Node{{Name: "expected", Value: "\x0020"}},
		}
		err := eng.Execute(context.Background(), node, ec)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 20, got 10")
	})

	t.Run("test slot aggregates stats", func(t *testing.T) {
		root, err := engine.ParseString(`
test: "passes" {
  assert.eq: 1 {
    expected: 1
  }
}
test: "fails" {
  assert.true: 1 > 2
}
`)
		require.NoError(t, err)

		stats := &TestStats{}
		ctx := WithTestStats(context.Background(), stats)
		require.NoError(t, eng.ExecuteBlock(ctx, root, engine.NewExecutionContext(nil)))

		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1, stats.Passed)
		assert.Equal(t, 1, stats.Failed)
		require.Len(t, stats.Errors, 1)
		assert.Contains(t, stats.Errors[0], "FAIL [fails]")
		assert.Contains(t, buf.String(), "PASS  passes")
	})
}
