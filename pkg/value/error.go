package value

import (
	"errors"
	"fmt"
	"strings"
)

// Error types raised by the runtime itself. Scripts may use any other name.
const (
	TypeRuntimeError = "RuntimeError"
	TypePanic        = "Panic"
)

// ErrorValue is the single representation of a script-level error. It is
// immutable once raised, so the same pointer can be stored in a failed task
// and re-raised on any number of joining threads.
type ErrorValue struct {
	Type    string
	Message string
	Payload Value
	Stack   []string

	// Thread is the id of the task the error escaped from. Zero means the
	// error has not crossed a task boundary.
	Thread int64

	Cause error
}

func NewErrorValue(typ, message string) *ErrorValue {
	if typ == "" {
		typ = TypeRuntimeError
	}
	return &ErrorValue{Type: typ, Message: message}
}

func (e *ErrorValue) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *ErrorValue) Unwrap() error {
	return e.Cause
}

// Is matches another ErrorValue with the same type and message, whichever
// thread either of them was raised on.
func (e *ErrorValue) Is(target error) bool {
	var other *ErrorValue
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return e.Type == other.Type && e.Message == other.Message
}

// Crossed reports whether the error was re-raised from another task.
func (e *ErrorValue) Crossed() bool {
	return e.Thread != 0
}

// CrossedFrom returns a copy marked as escaping task id. An error that already
// crossed a boundary keeps its original marker and is returned unchanged.
func (e *ErrorValue) CrossedFrom(taskID int64) *ErrorValue {
	if e.Thread != 0 {
		return e
	}
	cp := *e
	cp.Thread = taskID
	cp.Stack = append([]string(nil), e.Stack...)
	return &cp
}

// Describe renders the error with its thread marker and stack for logs.
func (e *ErrorValue) Describe() string {
	var b strings.Builder
	b.WriteString(e.Error())
	if e.Thread != 0 {
		fmt.Fprintf(&b, " (in task %d)", e.Thread)
	}
	for _, frame := range e.Stack {
		b.WriteString("\n  at ")
		b.WriteString(frame)
	}
	return b.String()
}

// typedError lets other packages choose the script-visible type of the
// errors they produce without this package importing them.
type typedError interface {
	ErrorType() string
}

// AsErrorValue converts any error into an ErrorValue. An ErrorValue anywhere
// in the chain is returned as is; anything else is wrapped with the original
// error kept as Cause.
func AsErrorValue(err error) *ErrorValue {
	if err == nil {
		return nil
	}
	var ev *ErrorValue
	if errors.As(err, &ev) {
		return ev
	}
	typ := TypeRuntimeError
	var te typedError
	if errors.As(err, &te) {
		typ = te.ErrorType()
	}
	return &ErrorValue{Type: typ, Message: err.Error(), Cause: err}
}
