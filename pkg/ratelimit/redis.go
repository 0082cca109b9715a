package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisWindow shares fixed window counters between gateway processes.
type RedisWindow struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
}

var _ Counter = (*RedisWindow)(nil)

func NewRedisWindow(client redis.UniversalClient, limit int, window time.Duration) *RedisWindow {
	return &RedisWindow{client: client, limit: limit, window: window}
}

func (r *RedisWindow) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := redisKeyPrefix + key

	used, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("count request: %w", err)
	}

	// The first hit opens the window; later hits keep its expiry.
	if used == 1 {
		if err := r.client.PExpire(ctx, redisKey, r.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("open window: %w", err)
		}
		return decide(r.limit, int(used), time.Now().Add(r.window)), nil
	}

	ttl, err := r.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("read window: %w", err)
	}
	if ttl <= 0 {
		// Expiry was lost between INCR and PEXPIRE of an earlier request.
		if err := r.client.PExpire(ctx, redisKey, r.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("open window: %w", err)
		}
		ttl = r.window
	}
	return decide(r.limit, int(used), time.Now().Add(ttl)), nil
}
