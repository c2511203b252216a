// Package cache owns the Redis client shared by sessions, the permission
// cache and the job queue inspector.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// New dials Redis and verifies connectivity. The client is returned even
// when the ping fails so callers can degrade (cache misses, no sessions)
// instead of crashing on a nil client.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("cache: ping %s: %w", addr, err)
	}

	return client, nil
}
