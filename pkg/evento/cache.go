package evento

import (
	"context"
	"sync"
	"time"
)

// Query cache keys. Settlement invalidates both the scope-specific campaign
// key and the discovery aggregate so progress bars and listings refresh
// together.
const AggregateCampaignsKey = "campaigns"

// EventCampaignKey returns the cache key for an event's campaign.
func EventCampaignKey(eventID string) string {
	return "campaign:event:" + eventID
}

// ProfileCampaignKey returns the cache key for a profile's campaign.
func ProfileCampaignKey(username string) string {
	return "campaign:profile:" + username
}

// CampaignKey returns the scope-specific campaign cache key.
func CampaignKey(scope Scope, key string) string {
	if scope == ScopeProfile {
		return ProfileCampaignKey(key)
	}
	return EventCampaignKey(key)
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// QueryCache is an in-process TTL cache for campaign queries. It exists so
// that settlement can invalidate stale progress figures immediately instead
// of waiting out the TTL.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	clock   func() time.Time
}

// CacheOption configures a QueryCache.
type CacheOption func(*QueryCache)

// WithCacheTTL overrides the default 30 second entry lifetime.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *QueryCache) {
		c.ttl = ttl
	}
}

// WithCacheClock sets the time source, for tests.
func WithCacheClock(clock func() time.Time) CacheOption {
	return func(c *QueryCache) {
		c.clock = clock
	}
}

// NewQueryCache creates an empty cache.
func NewQueryCache(opts ...CacheOption) *QueryCache {
	c := &QueryCache{
		entries: make(map[string]cacheEntry),
		ttl:     30 * time.Second,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key, if present and unexpired.
func (c *QueryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.clock().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key with the configured TTL.
func (c *QueryCache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.clock().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate removes the given keys.
func (c *QueryCache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// CampaignQueries wraps a Client with read-through caching for campaign
// lookups. Feeds and pledge status are never cached.
type CampaignQueries struct {
	client Client
	cache  *QueryCache
}

// NewCampaignQueries creates a cached query layer over client.
func NewCampaignQueries(client Client, cache *QueryCache) *CampaignQueries {
	return &CampaignQueries{client: client, cache: cache}
}

// EventCampaign returns the campaign for an event, served from cache when
// fresh. An empty event id errors without any fetch.
func (q *CampaignQueries) EventCampaign(ctx context.Context, eventID string) (Campaign, error) {
	return q.lookup(ctx, EventCampaignKey(eventID), func() (Campaign, error) {
		return q.client.EventCampaign(ctx, eventID)
	})
}

// ProfileCampaign returns the campaign for a user profile, served from cache
// when fresh. An empty username errors without any fetch.
func (q *CampaignQueries) ProfileCampaign(ctx context.Context, username string) (Campaign, error) {
	return q.lookup(ctx, ProfileCampaignKey(username), func() (Campaign, error) {
		return q.client.ProfileCampaign(ctx, username)
	})
}

func (q *CampaignQueries) lookup(_ context.Context, key string, fetch func() (Campaign, error)) (Campaign, error) {
	if cached, ok := q.cache.Get(key); ok {
		if campaign, ok := cached.(Campaign); ok {
			return campaign, nil
		}
	}
	campaign, err := fetch()
	if err != nil {
		return Campaign{}, err
	}
	q.cache.Set(key, campaign)
	return campaign, nil
}
