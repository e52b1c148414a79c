package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	warderrors "github.com/mirkobrombin/go-warden/v1/errors"
	"github.com/mirkobrombin/go-warden/v1/metrics"
	"github.com/mirkobrombin/go-warden/v1/store"
)

// Quorum implements Locker across a fixed, ordered set of independent nodes.
// The lock is held when a majority of nodes accepted the record and the
// voting round finished before the lease ran out.
//
// The validity check is a plain elapsed-time comparison: no clock drift margin
// is subtracted from the lease.
type Quorum struct {
	nodes []store.Store
	name  string
	token string
	now   func() time.Time
}

// QuorumOption configures a Quorum lock.
type QuorumOption func(*Quorum)

// WithClock overrides the clock used to measure the voting round.
func WithClock(now func() time.Time) QuorumOption {
	return func(q *Quorum) {
		q.now = now
	}
}

// NewQuorum returns a lock named name over nodes. Votes are cast in the order
// nodes are given. The compare-and-delete script is installed on every node;
// failing to do so on any node is fatal.
func NewQuorum(ctx context.Context, nodes []store.Store, name string, opts ...QuorumOption) (*Quorum, error) {
	if len(nodes) == 0 {
		return nil, warderrors.ErrNoNodes
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, n := range nodes {
		n := n
		g.Go(func() error {
			return n.LoadScripts(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	q := &Quorum{
		nodes: append([]store.Store(nil), nodes...),
		name:  name,
		token: uuid.NewString(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Quorum returns the number of votes needed to hold the lock.
func (q *Quorum) Quorum() int {
	return len(q.nodes)/2 + 1
}

// Lock votes on every node and reports whether the lock was obtained. An
// unreachable node counts as a failed vote. When the lock is not obtained any
// partial grants are released before returning.
func (q *Quorum) Lock(ctx context.Context, lease time.Duration) (bool, error) {
	if lease <= 0 {
		return false, warderrors.ErrInvalidLease
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ctx, span := tracer.Start(ctx, "Quorum.Lock", trace.WithAttributes(
		attribute.String("warden.lock.name", q.name),
		attribute.Int("warden.lock.nodes", len(q.nodes)),
	))
	defer span.End()

	start := q.now()
	votes := 0
	for _, n := range q.nodes {
		ok, err := n.SetNX(ctx, q.name, q.token, lease)
		if err != nil {
			metrics.QuorumVoteFailures.Inc()
			span.AddEvent("vote failed", trace.WithAttributes(attribute.String("warden.lock.node", n.Addr())))
			slog.Warn("warden: quorum vote failed", "lock", q.name, "node", n.Addr(), "error", err)
			continue
		}
		if ok {
			votes++
		}
	}
	elapsed := q.now().Sub(start)
	span.SetAttributes(
		attribute.Int("warden.lock.votes", votes),
		attribute.Int64("warden.lock.elapsed_ms", elapsed.Milliseconds()),
	)

	if votes >= q.Quorum() && elapsed < lease {
		metrics.LockAcquireCounter.WithLabelValues(kindQuorum, "acquired").Inc()
		return true, nil
	}
	slog.Debug("warden: quorum lock not acquired", "lock", q.name, "votes", votes, "quorum", q.Quorum(), "elapsed", elapsed)
	metrics.LockAcquireCounter.WithLabelValues(kindQuorum, "rejected").Inc()
	q.release(context.WithoutCancel(ctx))
	return false, nil
}

// Release deletes the lock record on every node that still carries this
// instance's token. Unreachable nodes are skipped; their records expire with
// the lease.
func (q *Quorum) Release(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Quorum.Release", trace.WithAttributes(attribute.String("warden.lock.name", q.name)))
	defer span.End()

	metrics.LockReleaseCounter.WithLabelValues(kindQuorum).Inc()
	q.release(ctx)
	return nil
}

func (q *Quorum) release(ctx context.Context) {
	var g errgroup.Group
	for _, n := range q.nodes {
		n := n
		g.Go(func() error {
			if _, err := n.CompareAndDelete(ctx, q.name, q.token); err != nil {
				metrics.QuorumVoteFailures.Inc()
				slog.Warn("warden: quorum release failed", "lock", q.name, "node", n.Addr(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

var _ Locker = (*Quorum)(nil)
