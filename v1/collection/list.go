package collection

import (
	"context"
	"strconv"

	uuid "github.com/hashicorp/go-uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	headEnd = "head"
	tailEnd = "tail"
)

// pushScript inserts ARGV[2] at the ARGV[3] end and, when ARGV[1] is positive,
// trims the opposite end so the list never exceeds ARGV[1] elements.
var pushScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local n
if ARGV[3] == "head" then
    n = redis.call("LPUSH", KEYS[1], ARGV[2])
    if max > 0 and n > max then
        redis.call("LTRIM", KEYS[1], 0, max - 1)
        n = max
    end
else
    n = redis.call("RPUSH", KEYS[1], ARGV[2])
    if max > 0 and n > max then
        redis.call("LTRIM", KEYS[1], -max, -1)
        n = max
    end
end
return n
`)

// offerScript inserts ARGV[2] at the ARGV[3] end unless the list already holds
// ARGV[1] elements, in which case it returns nil.
var offerScript = redis.NewScript(`
local max = tonumber(ARGV[1])
if max > 0 and redis.call("LLEN", KEYS[1]) >= max then
    return false
end
if ARGV[3] == "head" then
    return redis.call("LPUSH", KEYS[1], ARGV[2])
end
return redis.call("RPUSH", KEYS[1], ARGV[2])
`)

// Option configures a Queue or Stack.
type Option func(*options)

type options struct {
	key     string
	codec   Codec
	maxSize int64
}

// WithKey sets the list key. By default a random key is generated.
func WithKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithCodec sets the element codec. Defaults to JSONCodec.
func WithCodec(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithMaxSize bounds the number of elements. Zero means unbounded.
func WithMaxSize(n int64) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// list holds the operations shared by Queue and Stack. Reads always happen at
// the head.
type list[T any] struct {
	client  *redis.Client
	key     string
	codec   Codec
	maxSize int64
}

func newList[T any](client *redis.Client, kind string, opts []Option) (*list[T], error) {
	o := options{codec: JSONCodec{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.key == "" {
		id, err := uuid.GenerateUUID()
		if err != nil {
			return nil, err
		}
		o.key = "warden." + kind + "." + id
	}
	if o.codec == nil {
		o.codec = JSONCodec{}
	}
	return &list[T]{client: client, key: o.key, codec: o.codec, maxSize: o.maxSize}, nil
}

func (l *list[T]) push(ctx context.Context, v T, end string) error {
	data, err := l.codec.Marshal(v)
	if err != nil {
		return err
	}
	return pushScript.Run(ctx, l.client, []string{l.key}, strconv.FormatInt(l.maxSize, 10), data, end).Err()
}

func (l *list[T]) offer(ctx context.Context, v T, end string) (bool, error) {
	data, err := l.codec.Marshal(v)
	if err != nil {
		return false, err
	}
	err = offerScript.Run(ctx, l.client, []string{l.key}, strconv.FormatInt(l.maxSize, 10), data, end).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// popFirst blocks until an element is available at the head.
func (l *list[T]) popFirst(ctx context.Context) (T, error) {
	var zero T
	vals, err := l.client.BLPop(ctx, 0, l.key).Result()
	if err != nil {
		return zero, err
	}
	return l.decode([]byte(vals[1]))
}

func (l *list[T]) pollFirst(ctx context.Context) (T, bool, error) {
	return l.read(l.client.LPop(ctx, l.key))
}

func (l *list[T]) peekFirst(ctx context.Context) (T, bool, error) {
	return l.read(l.client.LIndex(ctx, l.key, 0))
}

func (l *list[T]) size(ctx context.Context) (int64, error) {
	return l.client.LLen(ctx, l.key).Result()
}

func (l *list[T]) read(cmd *redis.StringCmd) (T, bool, error) {
	var zero T
	data, err := cmd.Bytes()
	if err == redis.Nil {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	v, err := l.decode(data)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (l *list[T]) decode(data []byte) (T, error) {
	var v T
	if err := l.codec.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
