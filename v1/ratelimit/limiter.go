package ratelimit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
)

const (
	kindFixed   = "fixed"
	kindSliding = "sliding"

	defaultWindow = time.Minute
)

var tracer = otel.Tracer("github.com/mirkobrombin/go-warden/v1/ratelimit")

// Limiter admits or rejects one call for a token.
type Limiter interface {
	Use(ctx context.Context, token string) (bool, error)
}

// Option configures a limiter.
type Option func(*options)

type options struct {
	prefix string
	window time.Duration
	now    func() time.Time
}

func newOptions(opts []Option) options {
	o := options{window: defaultWindow, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.window <= 0 {
		o.window = defaultWindow
	}
	return o
}

// WithPrefix namespaces the keys written for every token.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithWindow sets the FixedWindow interval. Defaults to one minute.
func WithWindow(d time.Duration) Option {
	return func(o *options) {
		o.window = d
	}
}

// WithClock overrides the clock used to place calls in windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
