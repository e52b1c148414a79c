package collection

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

// Stack is a LIFO list. A bounded stack evicts its oldest elements on
// PushFirst and refuses new ones on OfferFirst.
type Stack[T any] struct {
	l *list[T]
}

// NewStack returns a stack stored on client.
func NewStack[T any](client *redis.Client, opts ...Option) (*Stack[T], error) {
	l, err := newList[T](client, "stack", opts)
	if err != nil {
		return nil, err
	}
	return &Stack[T]{l: l}, nil
}

// Key returns the list key.
func (s *Stack[T]) Key() string { return s.l.key }

// PushFirst pushes v, dropping the oldest element when the stack is full.
func (s *Stack[T]) PushFirst(ctx context.Context, v T) error { return s.l.push(ctx, v, headEnd) }

// OfferFirst pushes v unless the stack is full.
func (s *Stack[T]) OfferFirst(ctx context.Context, v T) (bool, error) {
	return s.l.offer(ctx, v, headEnd)
}

// PopFirst removes and returns the newest element, waiting for one if the
// stack is empty.
func (s *Stack[T]) PopFirst(ctx context.Context) (T, error) { return s.l.popFirst(ctx) }

// PollFirst removes and returns the newest element if any.
func (s *Stack[T]) PollFirst(ctx context.Context) (T, bool, error) { return s.l.pollFirst(ctx) }

// PeekFirst returns the newest element without removing it.
func (s *Stack[T]) PeekFirst(ctx context.Context) (T, bool, error) { return s.l.peekFirst(ctx) }

// Size returns the number of stacked elements.
func (s *Stack[T]) Size(ctx context.Context) (int64, error) { return s.l.size(ctx) }
