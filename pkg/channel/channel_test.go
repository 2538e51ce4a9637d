package channel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenort/pkg/value"
)

func TestFIFOThenClosed(t *testing.T) {
	tx, rx, err := New(0)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		require.NoError(t, tx.Send(ctx, value.NewInt(int64(i))))
	}
	tx.Close()

	for i := 1; i <= 10; i++ {
		v, err := rx.Recv(ctx)
		require.NoError(t, err)
		assert.True(t, value.Equal(value.NewInt(int64(i)), v), "position %d got %s", i, v.String())
	}
	_, err = rx.Recv(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = rx.Recv(ctx)
	assert.ErrorIs(t, err, ErrClosed, "closed signal repeats")
}

func TestBoundedProducerConsumer(t *testing.T) {
	tx, rx, err := New(1)
	require.NoError(t, err)
	ctx := context.Background()

	go func() {
		for i := 0; i < 5; i++ {
			_ = tx.Send(ctx, value.NewInt(int64(i)))
		}
		tx.Close()
	}()

	var got []int64
	for {
		v, err := rx.Recv(ctx)
		if errors.Is(err, ErrClosed) {
			break
		}
		require.NoError(t, err)
		n, _ := v.AsInt()
		got = append(got, n)
	}
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, got)
}

func TestBoundedSendBlocksUntilSpace(t *testing.T) {
	tx, rx, _ := New(1)
	ctx := context.Background()
	require.NoError(t, tx.Send(ctx, value.NewInt(1)))
	assert.False(t, tx.TrySend(value.NewInt(2)))

	sent := make(chan error, 1)
	go func() { sent <- tx.Send(ctx, value.NewInt(2)) }()

	select {
	case <-sent:
		t.Fatal("send on a full channel returned before space was made")
	case <-time.After(30 * time.Millisecond):
	}

	_, err := rx.Recv(ctx)
	require.NoError(t, err)
	require.NoError(t, <-sent)
	assert.Equal(t, 1, rx.Len())
	assert.Equal(t, 1, tx.Cap())
}

func TestSendOnClosed(t *testing.T) {
	tx, rx, _ := New(1)
	ctx := context.Background()
	require.NoError(t, tx.Send(ctx, value.NewInt(1)))

	blocked := make(chan error, 1)
	go func() { blocked <- tx.Send(ctx, value.NewInt(2)) }()
	time.Sleep(10 * time.Millisecond)
	rx.Close()

	assert.ErrorIs(t, <-blocked, ErrClosed, "a waiting sender fails when the channel closes")
	assert.ErrorIs(t, tx.Send(ctx, value.NewInt(3)), ErrClosed)
	assert.False(t, tx.TrySend(value.NewInt(3)))
	assert.True(t, tx.IsClosed())

	v, err := rx.Recv(ctx)
	require.NoError(t, err, "values queued before close stay receivable")
	assert.True(t, value.Equal(value.NewInt(1), v))
}

func TestTimeoutIsNotClosed(t *testing.T) {
	tx, rx, _ := New(0)

	_, err := rx.RecvTimeout(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrClosed)

	tx.Close()
	_, err = rx.RecvTimeout(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRecvTimeoutStopsWithContext(t *testing.T) {
	_, rx, _ := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := rx.RecvTimeout(ctx, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestTryRecv(t *testing.T) {
	tx, rx, _ := New(0)

	_, err := rx.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)

	assert.True(t, tx.TrySend(value.NewString("x")))
	v, err := rx.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, "x", v.String())

	tx.Close()
	tx.Close()
	_, err = rx.TryRecv()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSendCopiesValue(t *testing.T) {
	tx, rx, _ := New(0)
	src := value.NewList(value.NewInt(1))
	require.NoError(t, tx.Send(context.Background(), src))

	l, _ := src.AsList()
	l.Append(value.NewInt(2))

	got, err := rx.TryRecv()
	require.NoError(t, err)
	gl, _ := got.AsList()
	assert.Equal(t, 1, gl.Len())
}

func TestNegativeCapacity(t *testing.T) {
	_, _, err := New(-1)
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestRecvHonoursContext(t *testing.T) {
	_, rx, _ := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := rx.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
