package store

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	warderrors "github.com/mirkobrombin/go-warden/v1/errors"
)

const defaultRedisOpTimeout = 5 * time.Second

var delScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// Redis implements Store on top of a go-redis client. The client owns the
// connection pool for the endpoint and is safe for concurrent use.
type Redis struct {
	client  *redis.Client
	timeout time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*redisOptions)

type redisOptions struct {
	timeout time.Duration
}

// WithTimeout bounds every round trip to the node.
func WithTimeout(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.timeout = d
	}
}

// NewRedis returns a Store backed by client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	o := redisOptions{timeout: defaultRedisOpTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Redis{client: client, timeout: o.timeout}
}

// Client returns the underlying go-redis client.
func (r *Redis) Client() *redis.Client { return r.client }

// Addr implements Store.Addr.
func (r *Redis) Addr() string { return r.client.Options().Addr }

// Close implements Store.Close.
func (r *Redis) Close() error { return r.client.Close() }

// SetNX implements Store.SetNX.
func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, mapError(err)
	}
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ok, err := r.client.SetNX(cctx, key, value, ttl).Result()
	if err != nil {
		return false, mapError(err)
	}
	return ok, nil
}

// LoadScripts implements Store.LoadScripts.
func (r *Redis) LoadScripts(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := delScript.Load(cctx, r.client).Err(); err != nil {
		return fmt.Errorf("%w on %s: %w", warderrors.ErrScriptLoad, r.Addr(), mapError(err))
	}
	return nil
}

// CompareAndDelete implements Store.CompareAndDelete.
func (r *Redis) CompareAndDelete(ctx context.Context, key, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, mapError(err)
	}
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	n, err := delScript.Run(cctx, r.client, []string{key}, token).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

// IncrExpire implements Store.IncrExpire.
func (r *Redis) IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, mapError(err)
	}
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(cctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(cctx, key)
		pipe.PExpire(cctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, mapError(err)
	}
	return incr.Val(), nil
}

// TrimAndAdd implements Store.TrimAndAdd.
func (r *Redis) TrimAndAdd(ctx context.Context, key string, cutoff, score float64, member string, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, mapError(err)
	}
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var card *redis.IntCmd
	_, err := r.client.TxPipelined(cctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(cctx, key, "-inf", strconv.FormatFloat(cutoff, 'f', -1, 64))
		card = pipe.ZCard(cctx, key)
		pipe.ZAdd(cctx, key, redis.Z{Score: score, Member: member})
		pipe.PExpire(cctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, mapError(err)
	}
	return card.Val(), nil
}

// mapError classifies a go-redis error. Error replies from the server pass
// through untouched; anything else means the node could not be reached.
func mapError(err error) error {
	var rerr redis.Error
	switch {
	case err == nil:
		return nil
	case stdErrors.Is(err, context.Canceled):
		return err
	case stdErrors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", warderrors.ErrStoreUnavailable, warderrors.ErrTimeout)
	case stdErrors.Is(err, redis.ErrClosed):
		return fmt.Errorf("%w: %w", warderrors.ErrStoreUnavailable, warderrors.ErrConnectionClosed)
	case stdErrors.As(err, &rerr):
		return err
	}
	return fmt.Errorf("%w: %w", warderrors.ErrStoreUnavailable, err)
}

var _ Store = (*Redis)(nil)
