package monitors

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisCheck struct {
	client *redis.Client
}

// Redis pings the pub/sub and rate-limit backend.
func Redis(client *redis.Client) Check {
	return redisCheck{client: client}
}

func (c redisCheck) Name() string { return "redis" }

func (c redisCheck) Check(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
