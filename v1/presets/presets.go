package presets

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/mirkobrombin/go-warden/v1/collection"
	"github.com/mirkobrombin/go-warden/v1/lock"
	"github.com/mirkobrombin/go-warden/v1/ratelimit"
	"github.com/mirkobrombin/go-warden/v1/store"
)

// RedisOptions configures the connection to one Redis node.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// PoolSize caps the connections kept for the node. Zero keeps the
	// go-redis default.
	PoolSize int
	// Timeout bounds dialing and every round trip to the node.
	Timeout time.Duration
}

// NewClient creates a pooled go-redis client for a single node.
func NewClient(opts RedisOptions) *redis.Client {
	o := &redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	}
	if opts.Timeout > 0 {
		o.DialTimeout = opts.Timeout
		o.ReadTimeout = opts.Timeout
		o.WriteTimeout = opts.Timeout
		o.PoolTimeout = opts.Timeout
	}
	return redis.NewClient(o)
}

// NewStore creates a store for a single node.
func NewStore(opts RedisOptions) *store.Redis {
	var sopts []store.RedisOption
	if opts.Timeout > 0 {
		sopts = append(sopts, store.WithTimeout(opts.Timeout))
	}
	return store.NewRedis(NewClient(opts), sopts...)
}

// NewSingleLock creates a lock held on a single Redis node.
func NewSingleLock(ctx context.Context, opts RedisOptions, name string) (*lock.Single, error) {
	s := NewStore(opts)
	l, err := lock.NewSingle(ctx, s, name)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return l, nil
}

// NewQuorumLock creates a lock held on a majority of independent Redis nodes.
// A positive nodeTimeout overrides the Timeout of every node.
func NewQuorumLock(ctx context.Context, nodes []RedisOptions, name string, nodeTimeout time.Duration) (*lock.Quorum, error) {
	stores := make([]store.Store, 0, len(nodes))
	for _, opts := range nodes {
		if nodeTimeout > 0 {
			opts.Timeout = nodeTimeout
		}
		stores = append(stores, NewStore(opts))
	}
	l, err := lock.NewQuorum(ctx, stores, name)
	if err != nil {
		for _, s := range stores {
			_ = s.Close()
		}
		return nil, err
	}
	return l, nil
}

// NewFixedWindow creates a fixed window rate limiter on a Redis node.
func NewFixedWindow(opts RedisOptions, max int64, limiterOpts ...ratelimit.Option) *ratelimit.FixedWindow {
	return ratelimit.NewFixedWindow(NewStore(opts), max, limiterOpts...)
}

// NewSlidingWindow creates a sliding window rate limiter on a Redis node.
func NewSlidingWindow(opts RedisOptions, max int64, window time.Duration, limiterOpts ...ratelimit.Option) *ratelimit.SlidingWindow {
	return ratelimit.NewSlidingWindow(NewStore(opts), max, window, limiterOpts...)
}

// NewQueue creates a distributed queue on a Redis node.
func NewQueue[T any](opts RedisOptions, collectionOpts ...collection.Option) (*collection.Queue[T], error) {
	return collection.NewQueue[T](NewClient(opts), collectionOpts...)
}

// NewStack creates a distributed stack on a Redis node.
func NewStack[T any](opts RedisOptions, collectionOpts ...collection.Option) (*collection.Stack[T], error) {
	return collection.NewStack[T](NewClient(opts), collectionOpts...)
}
