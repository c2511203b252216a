package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "rbac:version"

// Cache stores effective permission sets in Redis behind a global version
// counter. Any grant or assignment mutation bumps the version, which orphans
// every previously written key at once. Stale entries expire via TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Bump invalidates every cached permission set.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

// Get returns the cached permission codes for a user, if present.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	key, err := c.key(ctx, userID)
	if err != nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var codes []string
	if err := json.Unmarshal(payload, &codes); err != nil {
		return nil, false
	}
	return codes, true
}

// Set stores the permission codes for a user under the current version.
// Failures are swallowed: the cache is an optimisation, never a dependency.
func (c *Cache) Set(ctx context.Context, userID uuid.UUID, codes []string) {
	if c == nil || c.client == nil {
		return
	}
	key, err := c.key(ctx, userID)
	if err != nil {
		return
	}
	payload, err := json.Marshal(codes)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

func (c *Cache) key(ctx context.Context, userID uuid.UUID) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rbac:perms:%d:%s", ver, userID), nil
}
