package slots

import (
	"context"
	"fmt"
	"sync"

	"zenort/pkg/engine"
	"zenort/pkg/value"
)

// TestStats tracks the results of a script test run. Test blocks may spawn
// tasks, so it is safe for concurrent use.
type TestStats struct {
	mu     sync.Mutex
	Total  int
	Passed int
	Failed int
	Errors []string
}

func (s *TestStats) AddPass() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Total++
	s.Passed++
}

func (s *TestStats) AddFail(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Total++
	s.Failed++
	s.Errors = append(s.Errors, fmt.Sprintf("FAIL [%s]: %v", name, err))
}

type contextKey string

const statsKey contextKey = "testStats"

// WithTestStats injects the stats into the context.
func WithTestStats(ctx context.Context, stats *TestStats) context.Context {
	return context.WithValue(ctx, statsKey, stats)
}

// assertionError is what a failed assertion raises; try can catch it.
func assertionError(format string, args ...interface{}) *value.ErrorValue {
	return value.NewErrorValue("AssertionError", fmt.Sprintf(format, args...))
}

func RegisterTestSlots(eng *engine.Engine) {
	// SLOT: test
	eng.Register("test", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		name := engine.RawString(node.Value)
		if name == "" {
			name = "Unnamed Test"
		}
		writeLine("RUN   " + name)

		// Each test runs in its own frame so tests do not see each other's
		// variables.
		err := runStatements(ctx, eng, node.Children, ec.Child())

		stats, ok := ctx.Value(statsKey).(*TestStats)
		if !ok {
			return err
		}
		if err != nil {
			writeLine("FAIL  " + name)
			stats.AddFail(name, err)
			// Recorded; the remaining tests still run.
			return nil
		}
		writeLine("PASS  " + name)
		stats.AddPass()
		return nil
	}, engine.SlotMeta{
		Description: "A named test case. Failures are counted by `zeno test`.",
		Example:     "test: 'counter reaches 1000' { ... }",
	})

	// SLOT: assert.eq
	eng.Register("assert.eq", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		actual := engine.ResolveRaw(node.Value, ec)
		expected, _ := attrValue(eng, node, ec, "expected", "val")

		if !value.Equal(actual, expected) && actual.String() != expected.String() {
			return assertionError("expected %s, got %s", expected.String(), actual.String())
		}
		return nil
	}, engine.SlotMeta{
		Example: "assert.eq: $result {\n  expected: 10\n}",
		Inputs: map[string]engine.InputMeta{
			"expected": {Description: "Expected value"},
			"val":      {Description: "Alias for expected"},
		},
	})

	// SLOT: assert.neq
	eng.Register("assert.neq", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		actual := engine.ResolveRaw(node.Value, ec)
		expected, _ := attrValue(eng, node, ec, "expected", "val")

		if value.Equal(actual, expected) || actual.String() == expected.String() {
			return assertionError("expected value to NOT be %s", actual.String())
		}
		return nil
	}, engine.SlotMeta{
		Example: "assert.neq: $a {\n  expected: $b\n}",
		Inputs: map[string]engine.InputMeta{
			"expected": {Description: "Value that must differ"},
			"val":      {Description: "Alias for expected"},
		},
	})

	// SLOT: assert.true
	eng.Register("assert.true", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		ok, err := condition(node.Value, ec)
		if err != nil {
			return err
		}
		if !ok {
			return assertionError("condition is false: %s", engine.RawString(node.Value))
		}
		return nil
	}, engine.SlotMeta{Example: "assert.true: $count > 0"})
}
