package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter caps how many generations a user may run per window.
type RedisLimiter struct {
	client *redis.Client
	limit  int // Max generations per window
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func usageKey(userID string) string {
	return "generations:" + userID
}

func (r *RedisLimiter) CheckLimit(ctx context.Context, userID string) (bool, error) {
	if r.limit <= 0 {
		return true, nil // unlimited
	}
	val, err := r.client.Get(ctx, usageKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil // No usage yet
	}
	if err != nil {
		return false, err
	}
	usage, err := strconv.Atoi(val)
	if err != nil {
		return false, fmt.Errorf("corrupt usage counter for %s: %w", userID, err)
	}
	return usage < r.limit, nil
}

// Increment adds amount to the user's counter; the window starts with the
// first generation.
func (r *RedisLimiter) Increment(ctx context.Context, userID string, amount int) error {
	key := usageKey(userID)
	pipe := r.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, int64(amount))
	pipe.ExpireNX(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return incr.Err()
}

// Ping checks the Redis connection.
func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
