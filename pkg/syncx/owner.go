// Package syncx holds the explicit sharing primitives scripts may pass
// between tasks: a guarded value and a lock-free counter.
package syncx

import "context"

type ownerKey struct{}

// WithOwner tags ctx with the id of the task running on it. Mutex uses the
// tag to refuse reentrant acquisition.
func WithOwner(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ownerKey{}, id)
}

// OwnerFrom returns the task id stored by WithOwner.
func OwnerFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ownerKey{}).(int64)
	return id, ok
}
