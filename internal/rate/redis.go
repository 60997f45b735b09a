package rate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window [Limiter] backed by Redis counters, for networked
// deployments where all instances must share one window per identity.
type Redis struct {
	client redis.UniversalClient
	cfg    Config
	prefix string
}

// NewRedis creates a Redis-backed limiter. prefix namespaces keys
// (prefix:key); an empty prefix defaults to "otprl".
func NewRedis(client redis.UniversalClient, cfg Config, prefix string) *Redis {
	if prefix == "" {
		prefix = "otprl"
	}
	return &Redis{client: client, cfg: cfg, prefix: prefix}
}

// Consume implements [Limiter].
func (r *Redis) Consume(ctx context.Context, key string) error {
	rkey := r.prefix + ":" + key

	count, err := r.client.Incr(ctx, rkey).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := r.client.Expire(ctx, rkey, r.cfg.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count > int64(r.cfg.Max) {
		return ErrRateLimited
	}
	return nil
}
