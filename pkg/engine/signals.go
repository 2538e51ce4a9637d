package engine

import (
	"errors"

	"zenort/pkg/value"
)

// Control flow travels up the Execute chain as errors and is consumed by the
// nearest loop or function call.
var (
	ErrBreak    = errors.New("break")
	ErrContinue = errors.New("continue")
)

// ReturnSignal carries a function's return value to CallFunction.
type ReturnSignal struct {
	Value value.Value
}

func (r *ReturnSignal) Error() string { return "return outside function" }

// IsControlFlow reports whether err is break, continue or return.
func IsControlFlow(err error) bool {
	if errors.Is(err, ErrBreak) || errors.Is(err, ErrContinue) {
		return true
	}
	var ret *ReturnSignal
	return errors.As(err, &ret)
}
