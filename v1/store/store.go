// Package store defines the primitives the locks and rate limiters need from a
// backing key-value node and provides a Redis implementation.
//
// Every operation is a single round trip to one node: either an atomic command,
// a server-side script, or a MULTI/EXEC batch. Nothing is cached in process, so
// the node's state is the only source of truth.
package store

import (
	"context"
	"time"
)

// Store is the capability set exposed by one store endpoint.
type Store interface {
	// SetNX sets key to value with the given expiry only if key is absent.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// LoadScripts installs the server-side scripts used by CompareAndDelete.
	LoadScripts(ctx context.Context) error
	// CompareAndDelete deletes key only if its value equals token. It reports
	// whether a key was removed; a mismatch or missing key is not an error.
	CompareAndDelete(ctx context.Context, key, token string) (bool, error)
	// IncrExpire increments the counter at key and resets its expiry,
	// returning the incremented value.
	IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// TrimAndAdd removes sorted-set members scored at or below cutoff, reads
	// the remaining cardinality, adds member at score and resets the key
	// expiry. It returns the cardinality read before the add.
	TrimAndAdd(ctx context.Context, key string, cutoff, score float64, member string, ttl time.Duration) (int64, error)
	// Addr identifies the endpoint in logs and traces.
	Addr() string
	Close() error
}
