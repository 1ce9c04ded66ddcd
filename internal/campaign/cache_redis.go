package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyEventPrefix   = "campaign:event:"
	cacheKeyProfilePrefix = "campaign:profile:"
)

// RedisCache is a read-through cache for campaign summaries. The pledge
// settlement path is the only writer of raised totals, so it is also the only
// caller of Invalidate; readers tolerate bounded staleness up to the TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps a redis client. Returns nil for a nil client so callers
// can wire the cache optionally.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(scope Scope, key string) string {
	if scope == ScopeEvent {
		return cacheKeyEventPrefix + key
	}
	return cacheKeyProfilePrefix + key
}

// Get returns the cached campaign for the scope key, or ok=false on a miss.
// Cache errors degrade to misses; the store remains the source of truth.
func (c *RedisCache) Get(ctx context.Context, scope Scope, key string) (Campaign, bool) {
	raw, err := c.client.Get(ctx, cacheKey(scope, key)).Bytes()
	if err != nil {
		return Campaign{}, false
	}
	var cached Campaign
	if err := json.Unmarshal(raw, &cached); err != nil {
		return Campaign{}, false
	}
	return cached, true
}

// Set stores a campaign under its scope key.
func (c *RedisCache) Set(ctx context.Context, scope Scope, key string, campaign Campaign) error {
	raw, err := json.Marshal(campaign)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(scope, key), raw, c.ttl).Err()
}

// Invalidate drops the cached entry for the scope key so the next read
// reflects freshly settled totals.
func (c *RedisCache) Invalidate(ctx context.Context, scope Scope, key string) error {
	err := c.client.Del(ctx, cacheKey(scope, key)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
