package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter counts requests per key in fixed time windows.
// Key format: ratelimit:<key>:<window_number>
type FixedWindowLimiter struct {
	client *redis.Client
}

// NewFixedWindowLimiter creates a FixedWindowLimiter wrapping the given
// Redis client.
func NewFixedWindowLimiter(client *redis.Client) *FixedWindowLimiter {
	return &FixedWindowLimiter{client: client}
}

// Allow records one request for key and reports whether it is within limit
// for the current window. The window key expires on its own, so idle keys
// leave no state behind.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	bucket := l.bucket(key, window)

	n, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, bucket, window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= int64(limit), nil
}

func (l *FixedWindowLimiter) bucket(key string, window time.Duration) string {
	windowNum := time.Now().Unix() / int64(window.Seconds())
	return fmt.Sprintf("ratelimit:%s:%d", key, windowNum)
}
