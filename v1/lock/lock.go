package lock

import (
	"context"
	stdErrors "errors"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"

	warderrors "github.com/mirkobrombin/go-warden/v1/errors"
)

const (
	kindSingle = "single"
	kindQuorum = "quorum"

	defaultBackoff = 10 * time.Millisecond
	maxBackoff     = time.Second
)

var tracer = otel.Tracer("github.com/mirkobrombin/go-warden/v1/lock")

// Locker is a single-shot distributed lock.
type Locker interface {
	// Lock tries once to take the lock for lease and reports whether it did.
	Lock(ctx context.Context, lease time.Duration) (bool, error)
	// Release drops the lock if this instance still owns it.
	Release(ctx context.Context) error
}

// Acquire blocks until l is obtained or the context is cancelled, retrying
// with jittered exponential backoff starting at backoff.
func Acquire(ctx context.Context, l Locker, lease, backoff time.Duration) error {
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	for {
		if err := ctx.Err(); err != nil {
			return contextError(err)
		}
		ok, err := l.Lock(ctx, lease)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return contextError(cerr)
			}
			return err
		}
		if ok {
			return nil
		}
		jitter := time.Duration(rand.Int63n(int64(backoff)))
		select {
		case <-ctx.Done():
			return contextError(ctx.Err())
		case <-time.After(backoff + jitter):
		}
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

func contextError(err error) error {
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return warderrors.ErrTimeout
	}
	return err
}
