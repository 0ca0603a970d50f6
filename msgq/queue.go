// Package msgq implements a FIFO message queue whose messages are stored in
// a fixed-block pool.
//
// Sending takes a block from the pool and never allocates; when the pool is
// exhausted the message is refused with ErrPoolExhausted and the caller
// decides whether to drop, retry or fail. Receiving copies the message out
// and returns its block to the pool.
package msgq

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/eapache/queue"
	"github.com/holmberd/go-fpool"
)

var ErrPoolExhausted = errors.New("msgq: message pool exhausted")

// Queue is a multi-producer, multi-consumer message queue.
type Queue[T any] struct {
	pool   *fpool.TypedPool[T]
	logger *slog.Logger

	mu      sync.Mutex
	pending *queue.Queue // Handles of sent messages, oldest first.

	// ready holds a token while messages may be pending.
	ready chan struct{}
}

// New creates a queue backed by pool and attaches the queue as the pool's
// tag. A nil logger selects slog.Default().
func New[T any](pool *fpool.TypedPool[T], logger *slog.Logger) *Queue[T] {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue[T]{
		pool:    pool,
		logger:  logger,
		pending: queue.New(),
		ready:   make(chan struct{}, 1),
	}
	pool.SetTag(q)
	return q
}

// Pool returns the pool messages are stored in.
func (q *Queue[T]) Pool() *fpool.TypedPool[T] {
	return q.pool
}

// Send takes a block from the pool, lets fill populate it and queues it.
// It never blocks on a full pool.
func (q *Queue[T]) Send(fill func(msg *T)) error {
	h, msg, ok := q.pool.Alloc()
	if !ok {
		q.logger.Debug("message refused", "reason", "pool exhausted", "capacity", q.pool.Capacity())
		return ErrPoolExhausted
	}
	if fill != nil {
		q.fill(h, msg, fill)
	}

	q.mu.Lock()
	q.pending.Add(h)
	q.mu.Unlock()
	q.signal()
	return nil
}

// fill runs fn on a freshly allocated message and returns the block to the
// pool if fn does not return normally.
func (q *Queue[T]) fill(h fpool.Handle, msg *T, fn func(msg *T)) {
	done := false
	defer func() {
		if !done {
			q.pool.Free(h)
		}
	}()
	fn(msg)
	done = true
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryRecv removes the oldest message if there is one.
func (q *Queue[T]) TryRecv() (msg T, ok bool) {
	q.mu.Lock()
	if q.pending.Length() == 0 {
		q.mu.Unlock()
		return msg, false
	}
	h := q.pending.Remove().(fpool.Handle)
	more := q.pending.Length() > 0
	q.mu.Unlock()

	if more {
		// Pass the wakeup on to the next receiver.
		q.signal()
	}
	msg = *q.pool.Get(h)
	q.pool.Free(h)
	return msg, true
}

// Recv removes the oldest message, waiting for one to be sent if the queue is
// empty. It returns ctx.Err() if ctx is done first.
func (q *Queue[T]) Recv(ctx context.Context) (T, error) {
	for {
		if msg, ok := q.TryRecv(); ok {
			return msg, nil
		}
		select {
		case <-q.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of pending messages.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Length()
}
