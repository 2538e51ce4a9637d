package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"zenort/pkg/value"
)

// TestExecutePanicRecovery tests that panics are caught and converted to errors
func TestExecutePanicRecovery(t *testing.T) {
	eng := NewEngine()

	// Register a slot that intentionally panics
	eng.Register("panic.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		panic("intentional panic for testing")
	}, SlotMeta{})

	node := &Node{
		Name:     "panic.test",
		Filename: "test.zl",
		Line:     1,
		Col:      1,
	}

	ec := NewExecutionContext(nil)

	// Execute should NOT panic, but return an error
	err := eng.Execute(context.Background(), node, ec)

	// Verify error was returned
	if err == nil {
		t.Fatal("Expected error from panic, got nil")
	}

	// Verify error contains panic information
	errMsg := err.Error()
	if !strings.Contains(errMsg, "PANIC") {
		t.Errorf("Error should contain 'PANIC', got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "intentional panic for testing") {
		t.Errorf("Error should contain panic message, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "test.zl") {
		t.Errorf("Error should contain filename, got: %s", errMsg)
	}
}

// TestExecuteNilPointerPanic tests recovery from nil pointer dereference
func TestExecuteNilPointerPanic(t *testing.T) {
	eng := NewEngine()

	// Register a slot that causes nil pointer dereference
	eng.Register("nil.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		var ptr *string
		_ = *ptr // This will panic
		return nil
	}, SlotMeta{})

	node := &Node{
		Name:     "nil.test",
		Filename: "test.zl",
		Line:     5,
		Col:      10,
	}

	ec := NewExecutionContext(nil)

	// Execute should catch the panic
	err := eng.Execute(context.Background(), node, ec)

	if err == nil {
		t.Fatal("Expected error from nil pointer panic, got nil")
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "PANIC") {
		t.Errorf("Error should contain 'PANIC', got: %s", errMsg)
	}
}

// TestExecuteDivisionByZeroPanic tests recovery from division by zero
func TestExecuteDivisionByZeroPanic(t *testing.T) {
	eng := NewEngine()

	// Register a slot that causes division by zero
	eng.Register("div.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		x := 10
		y := 0
		_ = x / y // This will panic
		return nil
	}, SlotMeta{})

	node := &Node{
		Name:     "div.test",
		Filename: "test.zl",
		Line:     8,
		Col:      5,
	}

	ec := NewExecutionContext(nil)

	// Execute should catch the panic
	err := eng.Execute(context.Background(), node, ec)

	if err == nil {
		t.Fatal("Expected error from division by zero panic, got nil")
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "PANIC") {
		t.Errorf("Error should contain 'PANIC', got: %s", errMsg)
	}
}

// TestExecuteNestedPanic tests panic in nested execution
func TestExecuteNestedPanic(t *testing.T) {
	eng := NewEngine()

	// Register outer slot that calls inner slot
	eng.Register("outer.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		innerNode := &Node{
			Name:     "inner.test",
			Filename: "test.zl",
			Line:     20,
			Col:      5,
		}
		return eng.Execute(ctx, innerNode, ec)
	}, SlotMeta{})

	// Register inner slot that panics
	eng.Register("inner.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		panic("nested panic")
	}, SlotMeta{})

	node := &Node{
		Name:     "outer.test",
		Filename: "test.zl",
		Line:     15,
		Col:      1,
	}

	ec := NewExecutionContext(nil)

	// Execute should catch the nested panic
	err := eng.Execute(context.Background(), node, ec)

	if err == nil {
		t.Fatal("Expected error from nested panic, got nil")
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "PANIC") {
		t.Errorf("Error should contain 'PANIC', got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "nested panic") {
		t.Errorf("Error should contain panic message, got: %s", errMsg)
	}
}

// TestExecuteNormalExecution tests that normal execution still works
func TestExecuteNormalExecution(t *testing.T) {
	eng := NewEngine()

	executed := false
	eng.Register("normal.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		executed = true
		return nil
	}, SlotMeta{})

	node := &Node{
		Name:     "normal.test",
		Filename: "test.zl",
		Line:     1,
		Col:      1,
	}

	ec := NewExecutionContext(nil)

	// Execute should work normally
	err := eng.Execute(context.Background(), node, ec)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !executed {
		t.Error("Handler was not executed")
	}
}

// TestExecuteErrorVsPanic tests that normal errors are not confused with panics
func TestExecuteErrorVsPanic(t *testing.T) {
	eng := NewEngine()

	// Register a slot that returns a normal error
	eng.Register("error.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		return fmt.Errorf("normal error")
	}, SlotMeta{})

	node := &Node{
		Name:     "error.test",
		Filename: "test.zl",
		Line:     1,
		Col:      1,
	}

	ec := NewExecutionContext(nil)

	// Execute should return the error
	err := eng.Execute(context.Background(), node, ec)

	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	errMsg := err.Error()
	// Should NOT contain "PANIC"
	if strings.Contains(errMsg, "PANIC") {
		t.Errorf("Normal error should not contain 'PANIC', got: %s", errMsg)
	}
	// Should contain the original error
	if !strings.Contains(errMsg, "normal error") {
		t.Errorf("Error should contain original message, got: %s", errMsg)
	}
}

// TestExecutePanicWithStackTrace tests that stack trace is included
func TestExecutePanicWithStackTrace(t *testing.T) {
	eng := NewEngine()

	eng.Register("stack.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		panic("test panic")
	}, SlotMeta{})

	node := &Node{
		Name:     "stack.test",
		Filename: "test.zl",
		Line:     1,
		Col:      1,
	}

	ec := NewExecutionContext(nil)

	err := eng.Execute(context.Background(), node, ec)

	if err == nil {
		t.Fatal("Expected error from panic, got nil")
	}

	errMsg := err.Error()
	// Verify stack trace is included
	if !strings.Contains(errMsg, "Stack Trace:") {
		t.Errorf("Error should contain stack trace, got: %s", errMsg)
	}
	// Stack trace should contain goroutine info
	if !strings.Contains(errMsg, "goroutine") {
		t.Errorf("Stack trace should contain goroutine info, got: %s", errMsg)
	}
}

// TestExecutePanicErrorType tests that a recovered panic is seen by scripts as a Panic error
func TestExecutePanicErrorType(t *testing.T) {
	eng := NewEngine()

	eng.Register("boom.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		var m map[string]int
		m["x"] = 1
		return nil
	}, SlotMeta{})

	err := eng.Execute(context.Background(), &Node{Name: "boom.test", Filename: "test.zl", Line: 3}, NewExecutionContext(nil))
	if err == nil {
		t.Fatal("Expected error from panic, got nil")
	}

	ev := value.AsErrorValue(err)
	if ev.Type != value.TypePanic {
		t.Errorf("Expected type %q, got %q", value.TypePanic, ev.Type)
	}
}

// TestExecuteRaisedErrorPassesThrough tests that script errors keep their identity
func TestExecuteRaisedErrorPassesThrough(t *testing.T) {
	eng := NewEngine()
	raised := value.NewErrorValue("ValueError", "bad")

	eng.Register("raise.test", func(ctx context.Context, node *Node, ec *ExecutionContext) error {
		return raised
	}, SlotMeta{})

	err := eng.Execute(context.Background(), &Node{Name: "raise.test"}, NewExecutionContext(nil))
	if err != raised {
		t.Errorf("Expected the raised error unchanged, got: %v", err)
	}
}
