package ratelimit

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mirkobrombin/go-warden/v1/metrics"
	"github.com/mirkobrombin/go-warden/v1/store"
)

// FixedWindow admits up to max calls per token in each window.
type FixedWindow struct {
	node store.Store
	max  int64
	opts options
}

// NewFixedWindow returns a fixed window limiter on node.
func NewFixedWindow(node store.Store, max int64, opts ...Option) *FixedWindow {
	return &FixedWindow{node: node, max: max, opts: newOptions(opts)}
}

// Use counts a call for token in the current window.
func (l *FixedWindow) Use(ctx context.Context, token string) (bool, error) {
	ctx, span := tracer.Start(ctx, "FixedWindow.Use", trace.WithAttributes(attribute.String("warden.ratelimit.token", token)))
	defer span.End()

	id := l.opts.now().UnixNano() / int64(l.opts.window)
	key := l.opts.prefix + token + ":" + strconv.FormatInt(id, 10)
	n, err := l.node.IncrExpire(ctx, key, l.opts.window)
	ok := err == nil && n <= l.max
	metrics.LimiterCounter.WithLabelValues(kindFixed, metrics.Outcome(ok, err, "allowed", "rejected")).Inc()
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	span.SetAttributes(attribute.Int64("warden.ratelimit.count", n), attribute.Bool("warden.ratelimit.allowed", ok))
	return ok, nil
}

var _ Limiter = (*FixedWindow)(nil)
