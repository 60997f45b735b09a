package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a [Store] backed by a Redis server. TTLs are enforced server-side
// via SET EX, so expiry needs no client-side bookkeeping.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed store. prefix namespaces keys
// (prefix:identity); an empty prefix defaults to "otp".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "otp"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(identity string) string {
	return r.prefix + ":" + identity
}

// Put implements [Store].
func (r *Redis) Put(ctx context.Context, identity, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(identity), code, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get implements [Store].
func (r *Redis) Get(ctx context.Context, identity string) (string, bool, error) {
	code, err := r.client.Get(ctx, r.key(identity)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return code, true, nil
}

// Delete implements [Store].
func (r *Redis) Delete(ctx context.Context, identity string) error {
	if err := r.client.Del(ctx, r.key(identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
