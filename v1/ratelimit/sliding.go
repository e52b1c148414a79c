package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mirkobrombin/go-warden/v1/metrics"
	"github.com/mirkobrombin/go-warden/v1/store"
)

// SlidingWindow admits a call when fewer than max calls for the same token
// were logged during the trailing window. Every call is logged, admitted or
// not, so a token that keeps calling while over the limit stays rejected.
type SlidingWindow struct {
	node store.Store
	max  int64
	opts options
}

// NewSlidingWindow returns a sliding window limiter on node. A non-positive
// window falls back to one minute.
func NewSlidingWindow(node store.Store, max int64, window time.Duration, opts ...Option) *SlidingWindow {
	o := newOptions(opts)
	if window > 0 {
		o.window = window
	}
	return &SlidingWindow{node: node, max: max, opts: o}
}

// Use logs a call for token and reports whether it is admitted.
func (l *SlidingWindow) Use(ctx context.Context, token string) (bool, error) {
	ctx, span := tracer.Start(ctx, "SlidingWindow.Use", trace.WithAttributes(attribute.String("warden.ratelimit.token", token)))
	defer span.End()

	now := l.opts.now()
	score := float64(now.UnixMicro())
	cutoff := float64(now.Add(-l.opts.window).UnixMicro())
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	n, err := l.node.TrimAndAdd(ctx, l.opts.prefix+token, cutoff, score, member, l.opts.window)
	ok := err == nil && n < l.max
	metrics.LimiterCounter.WithLabelValues(kindSliding, metrics.Outcome(ok, err, "allowed", "rejected")).Inc()
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if !ok {
		slog.Debug("warden: sliding window rejected call", "token", token, "count", n, "max", l.max)
	}
	span.SetAttributes(attribute.Int64("warden.ratelimit.count", n), attribute.Bool("warden.ratelimit.allowed", ok))
	return ok, nil
}

var _ Limiter = (*SlidingWindow)(nil)
