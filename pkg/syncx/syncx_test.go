package syncx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenort/pkg/value"
)

func TestAtomicCounterConcurrentAdds(t *testing.T) {
	const n, m = 8, 1000
	c := NewAtomicCounter(0)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < m; j++ {
				c.FetchAdd(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n*m), c.Load())
}

func TestAtomicCounterReturnsPrevious(t *testing.T) {
	c := NewAtomicCounter(10)
	assert.Equal(t, int64(10), c.FetchAdd(5))
	assert.Equal(t, int64(15), c.FetchSub(3))
	assert.Equal(t, int64(12), c.Load())
	c.Store(-1)
	assert.Equal(t, int64(-1), c.Load())
}

func increment(current value.Value) (value.Value, error) {
	n, _ := current.AsInt()
	return value.NewInt(n + 1), nil
}

func TestMutexWithLockSerializes(t *testing.T) {
	mu := NewMutex(value.NewInt(0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			ctx := WithOwner(context.Background(), id)
			for j := 0; j < 200; j++ {
				_, err := mu.WithLock(ctx, increment)
				assert.NoError(t, err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	out, err := mu.WithLock(context.Background(), func(v value.Value) (value.Value, error) { return v, nil })
	require.NoError(t, err)
	assert.True(t, value.Equal(value.NewInt(1600), out))
}

func TestMutexFailedUpdateKeepsValue(t *testing.T) {
	mu := NewMutex(value.NewString("keep"))
	boom := errors.New("boom")

	_, err := mu.WithLock(context.Background(), func(value.Value) (value.Value, error) {
		return value.NewString("lost"), boom
	})
	assert.ErrorIs(t, err, boom)

	out, _ := mu.WithLock(context.Background(), func(v value.Value) (value.Value, error) { return v, nil })
	assert.Equal(t, "keep", out.String())
}

func TestMutexReentrantLockFails(t *testing.T) {
	mu := NewMutex(value.NewInt(1))
	ctx := WithOwner(context.Background(), 0)

	done := make(chan error, 1)
	go func() {
		_, err := mu.WithLock(ctx, func(v value.Value) (value.Value, error) {
			_, inner := mu.WithLock(ctx, increment)
			return v, inner
		})
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrReentrantLock)
	case <-time.After(2 * time.Second):
		t.Fatal("reentrant WithLock deadlocked")
	}

	// The lock was released after the failure.
	_, err := mu.WithLock(ctx, increment)
	assert.NoError(t, err)
}

func TestMutexValueIsolation(t *testing.T) {
	src := value.NewList(value.NewInt(1))
	mu := NewMutex(src)

	l, _ := src.AsList()
	l.Append(value.NewInt(2))

	out, _ := mu.WithLock(context.Background(), func(v value.Value) (value.Value, error) { return v, nil })
	got, _ := out.AsList()
	assert.Equal(t, 1, got.Len(), "the mutex holds its own copy of the initial value")
}

func TestMutexWaitHonoursContext(t *testing.T) {
	mu := NewMutex(value.NewNil())
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = mu.WithLock(context.Background(), func(v value.Value) (value.Value, error) {
			close(held)
			<-release
			return v, nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := mu.WithLock(ctx, increment)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}
