package collection

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

// Queue is a FIFO list. A bounded queue evicts its oldest elements on
// PushLast and refuses new ones on OfferLast.
type Queue[T any] struct {
	l *list[T]
}

// NewQueue returns a queue stored on client.
func NewQueue[T any](client *redis.Client, opts ...Option) (*Queue[T], error) {
	l, err := newList[T](client, "queue", opts)
	if err != nil {
		return nil, err
	}
	return &Queue[T]{l: l}, nil
}

// Key returns the list key.
func (q *Queue[T]) Key() string { return q.l.key }

// PushLast appends v, dropping the oldest element when the queue is full.
func (q *Queue[T]) PushLast(ctx context.Context, v T) error { return q.l.push(ctx, v, tailEnd) }

// OfferLast appends v unless the queue is full.
func (q *Queue[T]) OfferLast(ctx context.Context, v T) (bool, error) {
	return q.l.offer(ctx, v, tailEnd)
}

// PopFirst removes and returns the oldest element, waiting for one if the
// queue is empty.
func (q *Queue[T]) PopFirst(ctx context.Context) (T, error) { return q.l.popFirst(ctx) }

// PollFirst removes and returns the oldest element if any.
func (q *Queue[T]) PollFirst(ctx context.Context) (T, bool, error) { return q.l.pollFirst(ctx) }

// PeekFirst returns the oldest element without removing it.
func (q *Queue[T]) PeekFirst(ctx context.Context) (T, bool, error) { return q.l.peekFirst(ctx) }

// Size returns the number of queued elements.
func (q *Queue[T]) Size(ctx context.Context) (int64, error) { return q.l.size(ctx) }
