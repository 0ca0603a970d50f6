package msgq

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/holmberd/go-fpool"
)

type userMsg struct {
	index int
	_     [8]byte
}

func newQueue(t *testing.T, items int) *Queue[userMsg] {
	t.Helper()
	pool, err := fpool.NewTyped[userMsg](fpool.Config{Items: items, Debug: true})
	require.NoError(t, err)
	return New(pool, nil)
}

func TestQueueAttachesToPool(t *testing.T) {
	q := newQueue(t, 1)
	require.Same(t, q, q.Pool().Tag())
}

func TestQueueFIFO(t *testing.T) {
	q := newQueue(t, 4)
	for i := range 4 {
		require.NoError(t, q.Send(func(m *userMsg) { m.index = i }))
	}
	require.Equal(t, 4, q.Len())
	require.Zero(t, q.Pool().Count())

	for want := range 4 {
		m, ok := q.TryRecv()
		require.True(t, ok)
		require.Equal(t, want, m.index)
	}
	_, ok := q.TryRecv()
	require.False(t, ok)
	require.Equal(t, 4, q.Pool().Count(), "received messages must return their blocks")
}

func TestQueueExhaustion(t *testing.T) {
	q := newQueue(t, 2)
	require.NoError(t, q.Send(nil))
	require.NoError(t, q.Send(nil))
	require.ErrorIs(t, q.Send(nil), ErrPoolExhausted)
	require.Equal(t, 2, q.Len())

	_, ok := q.TryRecv()
	require.True(t, ok)
	require.NoError(t, q.Send(nil), "a received message frees room for another")
}

func TestQueueSendFillPanics(t *testing.T) {
	q := newQueue(t, 2)
	require.PanicsWithValue(t, "fill failed", func() {
		q.Send(func(*userMsg) { panic("fill failed") })
	})
	require.Equal(t, 2, q.Pool().Count(), "the block must go back to the pool")
	require.Zero(t, q.Len())

	require.NoError(t, q.Send(func(m *userMsg) { m.index = 1 }))
	require.NoError(t, q.Send(func(m *userMsg) { m.index = 2 }))
	require.ErrorIs(t, q.Send(nil), ErrPoolExhausted)
}

func TestQueueRecv(t *testing.T) {
	t.Run("Waits for a message", func(t *testing.T) {
		q := newQueue(t, 1)
		go func() {
			time.Sleep(10 * time.Millisecond)
			q.Send(func(m *userMsg) { m.index = 7 })
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m, err := q.Recv(ctx)
		require.NoError(t, err)
		require.Equal(t, 7, m.index)
	})

	t.Run("Honors context cancellation", func(t *testing.T) {
		q := newQueue(t, 1)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := q.Recv(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestQueueConcurrent(t *testing.T) {
	const producers = 4
	const perProducer = 500

	q := newQueue(t, 8)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; {
				if err := q.Send(func(m *userMsg) { m.index = p*perProducer + i }); err != nil {
					time.Sleep(time.Microsecond) // Wait for a consumer to free a block.
					continue
				}
				i++
			}
		}()
	}

	received := make(chan int, producers*perProducer)
	var consumers sync.WaitGroup
	for range 2 {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				m, err := q.Recv(ctx)
				if err != nil {
					return
				}
				received <- m.index
			}
		}()
	}

	seen := make(map[int]bool)
	for len(seen) < producers*perProducer {
		select {
		case idx := <-received:
			require.False(t, seen[idx], "message %d received twice", idx)
			seen[idx] = true
		case <-ctx.Done():
			t.Fatalf("received %d of %d messages", len(seen), producers*perProducer)
		}
	}
	wg.Wait()
	cancel()
	consumers.Wait()

	require.Zero(t, q.Len())
	require.Equal(t, q.Pool().Capacity(), q.Pool().Count())
}
