package value

import (
	"context"
	"fmt"
)

// CopyPolicy decides what happens to a handle when the value holding it is
// copied into another task's execution context.
type CopyPolicy uint8

const (
	// ShareHandle copies the reference. Used by synchronization objects
	// (channels, mutexes, atomic counters, task handles) that enforce their
	// own access discipline.
	ShareHandle CopyPolicy = iota

	// CloneHandle asks the handle for an independent copy via ClonableHandle.
	CloneHandle
)

func (p CopyPolicy) String() string {
	switch p {
	case ShareHandle:
		return "share"
	case CloneHandle:
		return "clone"
	default:
		return fmt.Sprintf("CopyPolicy(%d)", uint8(p))
	}
}

// Handle is an opaque host object exposed to scripts.
type Handle interface {
	HandleType() string
	CopyPolicy() CopyPolicy
}

// ClonableHandle is implemented by handles whose policy is CloneHandle.
// A CloneHandle handle that does not implement it is shared.
type ClonableHandle interface {
	Handle
	CloneHandle() Handle
}

// Func is implemented by callable values. Function bodies never change after
// they are built, so functions are shared between tasks rather than copied.
type Func interface {
	FuncName() string
	// Arity is the number of positional parameters, or -1 for variadic.
	Arity() int
}

// NativeFunc is a function implemented in Go.
type NativeFunc struct {
	Name   string
	Params int
	Fn     func(ctx context.Context, args []Value) (Value, error)
}

func (f *NativeFunc) FuncName() string { return f.Name }
func (f *NativeFunc) Arity() int       { return f.Params }
