package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts actions per user in fixed Redis windows. A window starts with
// the first action after the previous one expired.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func New(client *redis.Client, prefix string, limit int64, window time.Duration) *Limiter {
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow records one action for userID and reports whether it is within the
// limit, together with the count so far in the window.
func (l *Limiter) Allow(ctx context.Context, userID uint) (bool, int64, error) {
	key := "rl:" + l.prefix + ":" + strconv.FormatUint(uint64(userID), 10)

	pipe := l.client.TxPipeline()
	pipe.SetNX(ctx, key, 0, l.window)
	incr := pipe.Incr(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	n := incr.Val()
	return n <= l.limit, n, nil
}
