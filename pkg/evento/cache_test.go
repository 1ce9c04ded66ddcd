package evento

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache(t *testing.T) {
	t.Run("entries expire after the TTL", func(t *testing.T) {
		now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
		cache := NewQueryCache(
			WithCacheTTL(30*time.Second),
			WithCacheClock(func() time.Time { return now }),
		)

		cache.Set("k", "v")

		got, ok := cache.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v", got)

		now = now.Add(31 * time.Second)
		_, ok = cache.Get("k")
		assert.False(t, ok)
	})

	t.Run("invalidation removes only the named keys", func(t *testing.T) {
		cache := NewQueryCache()
		cache.Set(EventCampaignKey("evt_1"), "a")
		cache.Set(ProfileCampaignKey("alice"), "b")
		cache.Set(AggregateCampaignsKey, "c")

		cache.Invalidate(EventCampaignKey("evt_1"), AggregateCampaignsKey)

		_, ok := cache.Get(EventCampaignKey("evt_1"))
		assert.False(t, ok)
		_, ok = cache.Get(AggregateCampaignsKey)
		assert.False(t, ok)
		_, ok = cache.Get(ProfileCampaignKey("alice"))
		assert.True(t, ok)
	})
}

func TestCampaignQueries(t *testing.T) {
	t.Run("serves repeat lookups from cache", func(t *testing.T) {
		client := &scriptedClient{campaigns: map[string]Campaign{
			"event:evt_1": {ID: "cmp_1", Title: "Meetup"},
		}}
		queries := NewCampaignQueries(client, NewQueryCache())

		first, err := queries.EventCampaign(context.Background(), "evt_1")
		require.NoError(t, err)
		second, err := queries.EventCampaign(context.Background(), "evt_1")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		_, _, lookups := client.calls()
		assert.Equal(t, 1, lookups)
	})

	t.Run("refetches after invalidation", func(t *testing.T) {
		client := &scriptedClient{campaigns: map[string]Campaign{
			"profile:alice": {ID: "cmp_2", RaisedSats: 100},
		}}
		cache := NewQueryCache()
		queries := NewCampaignQueries(client, cache)

		_, err := queries.ProfileCampaign(context.Background(), "alice")
		require.NoError(t, err)

		client.campaigns["profile:alice"] = Campaign{ID: "cmp_2", RaisedSats: 600}
		cache.Invalidate(ProfileCampaignKey("alice"))

		refreshed, err := queries.ProfileCampaign(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(600), refreshed.RaisedSats)
		_, _, lookups := client.calls()
		assert.Equal(t, 2, lookups)
	})

	t.Run("fetch failures are never cached", func(t *testing.T) {
		client := &scriptedClient{campaignErr: ErrNotFound}
		queries := NewCampaignQueries(client, NewQueryCache())

		_, err := queries.EventCampaign(context.Background(), "evt_gone")
		require.ErrorIs(t, err, ErrNotFound)

		client.mu.Lock()
		client.campaignErr = nil
		client.campaigns = map[string]Campaign{"event:evt_gone": {ID: "cmp_3"}}
		client.mu.Unlock()

		campaign, err := queries.EventCampaign(context.Background(), "evt_gone")
		require.NoError(t, err)
		assert.Equal(t, "cmp_3", campaign.ID)
	})
}
