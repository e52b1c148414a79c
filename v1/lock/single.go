package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	warderrors "github.com/mirkobrombin/go-warden/v1/errors"
	"github.com/mirkobrombin/go-warden/v1/metrics"
	"github.com/mirkobrombin/go-warden/v1/store"
)

// Single implements Locker on one store node. Store failures are returned to
// the caller on every call.
type Single struct {
	node  store.Store
	name  string
	token string
}

// NewSingle returns a lock named name on node. The compare-and-delete script
// is installed before returning.
func NewSingle(ctx context.Context, node store.Store, name string) (*Single, error) {
	if err := node.LoadScripts(ctx); err != nil {
		return nil, err
	}
	return &Single{node: node, name: name, token: uuid.NewString()}, nil
}

// Lock attempts to set the lock record without waiting.
func (s *Single) Lock(ctx context.Context, lease time.Duration) (bool, error) {
	if lease <= 0 {
		return false, warderrors.ErrInvalidLease
	}
	ctx, span := tracer.Start(ctx, "Single.Lock", trace.WithAttributes(
		attribute.String("warden.lock.name", s.name),
		attribute.String("warden.lock.node", s.node.Addr()),
	))
	defer span.End()

	ok, err := s.node.SetNX(ctx, s.name, s.token, lease)
	metrics.LockAcquireCounter.WithLabelValues(kindSingle, metrics.Outcome(ok, err, "acquired", "rejected")).Inc()
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("warden.lock.acquired", ok))
	return ok, nil
}

// Release deletes the lock record if it still carries this instance's token.
func (s *Single) Release(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Single.Release", trace.WithAttributes(attribute.String("warden.lock.name", s.name)))
	defer span.End()

	metrics.LockReleaseCounter.WithLabelValues(kindSingle).Inc()
	if _, err := s.node.CompareAndDelete(ctx, s.name, s.token); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

var _ Locker = (*Single)(nil)
