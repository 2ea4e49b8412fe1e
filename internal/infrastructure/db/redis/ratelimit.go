package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter counts hits per identifier in fixed, epoch-aligned
// windows shared by every API instance.
// Key format: <prefix>:<identifier>:<window_index>
type FixedWindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
	nowF   func() time.Time
}

// NewFixedWindowLimiter allows limit hits per identifier per window.
func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		nowF:   time.Now,
	}
}

// Allow records a hit and reports whether it is within the limit.
func (l *FixedWindowLimiter) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	key := l.key(identifier, l.nowF())

	var count *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}

	return count.Val() <= l.limit, nil
}

func (l *FixedWindowLimiter) key(identifier string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, identifier, now.UnixNano()/int64(l.window))
}
