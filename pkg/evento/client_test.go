package evento

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePledge(t *testing.T) {
	t.Run("creates an event campaign pledge", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]int64

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{
				"pledgeId": "plg_123",
				"invoice": "lnbc5000n1pexample",
				"amountSats": 500,
				"expiresAt": "2026-01-02T15:04:05Z"
			}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		result, err := client.CreatePledge(context.Background(), PledgeIntent{
			Scope:      ScopeEvent,
			EventID:    "evt_42",
			AmountSats: 500,
		})
		require.NoError(t, err)

		assert.Equal(t, "/v1/events/evt_42/campaign/pledges", gotPath)
		assert.Equal(t, map[string]int64{"amountSats": 500}, gotBody)
		assert.Equal(t, "plg_123", result.PledgeID)
		assert.Equal(t, "lnbc5000n1pexample", result.Invoice)
		assert.Equal(t, int64(500), result.AmountSats)
		assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), result.ExpiresAt)
	})

	t.Run("creates a profile campaign pledge", func(t *testing.T) {
		var gotPath string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"pledgeId":"plg_9","invoice":"lnbc","amountSats":21,"expiresAt":"2026-01-02T15:04:05Z"}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = client.CreatePledge(context.Background(), PledgeIntent{
			Scope:      ScopeProfile,
			Username:   "satoshi",
			AmountSats: 21,
		})
		require.NoError(t, err)
		assert.Equal(t, "/v1/users/satoshi/campaign/pledges", gotPath)
	})

	t.Run("rejects an event pledge with no event id before any request", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = client.CreatePledge(context.Background(), PledgeIntent{Scope: ScopeEvent, AmountSats: 100})
		require.EqualError(t, err, "eventId is required")
		assert.Zero(t, calls.Load())
	})

	t.Run("rejects a profile pledge with no username before any request", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = client.CreatePledge(context.Background(), PledgeIntent{Scope: ScopeProfile, AmountSats: 100})
		require.EqualError(t, err, "username is required for profile campaign pledges")
		assert.Zero(t, calls.Load())
	})

	t.Run("surfaces API rejections with the server message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"Campaign is not active"}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = client.CreatePledge(context.Background(), PledgeIntent{
			Scope:      ScopeEvent,
			EventID:    "evt_42",
			AmountSats: 100,
		})
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "Campaign is not active", apiErr.Message)
	})

	t.Run("sends the bearer token when configured", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"pledgeId":"plg_1","invoice":"lnbc","amountSats":21,"expiresAt":"2026-01-02T15:04:05Z"}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL), WithAccessToken("tok123"))
		require.NoError(t, err)

		_, err = client.CreatePledge(context.Background(), PledgeIntent{
			Scope:      ScopeEvent,
			EventID:    "evt_42",
			AmountSats: 21,
		})
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok123", gotAuth)
	})
}

func TestPledgeStatus(t *testing.T) {
	t.Run("fetches the status by pledge id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/campaign-pledges/plg_123/status", r.URL.Path)
			_, _ = w.Write([]byte(`{"status":"settled","amountSats":500,"settledAt":"2026-01-02T15:04:05Z"}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		status, err := client.PledgeStatus(context.Background(), "plg_123")
		require.NoError(t, err)
		assert.Equal(t, StatusSettled, status.Status)
		assert.Equal(t, int64(500), status.AmountSats)
		require.NotNil(t, status.SettledAt)
		assert.True(t, status.Terminal())
	})

	t.Run("requires a pledge id", func(t *testing.T) {
		client, err := NewClient(WithBaseURL("http://localhost:0"))
		require.NoError(t, err)

		_, err = client.PledgeStatus(context.Background(), "")
		require.EqualError(t, err, "pledgeId is required")
	})
}

func TestCampaignQueriesAgainstAPI(t *testing.T) {
	t.Run("retrieves an event campaign with derived progress", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/events/evt_42/campaign", r.URL.Path)
			_, _ = w.Write([]byte(`{
				"id": "cmp_1",
				"event_id": "evt_42",
				"scope": "event",
				"title": "Community meetup",
				"goal_sats": 100000,
				"raised_sats": 50000,
				"pledge_count": 12,
				"status": "active",
				"progressPercent": 50,
				"isGoalMet": false
			}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		campaign, err := client.EventCampaign(context.Background(), "evt_42")
		require.NoError(t, err)
		assert.Equal(t, "cmp_1", campaign.ID)
		assert.Equal(t, int64(50000), campaign.RaisedSats)
		assert.Equal(t, float64(50), campaign.ProgressPercent)
		assert.False(t, campaign.IsGoalMet)
	})

	t.Run("a missing campaign is ErrNotFound, not fallback data", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"campaign not found"}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		campaign, err := client.ProfileCampaign(context.Background(), "nobody")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, campaign)
	})

	t.Run("an empty key errors without fetching", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = client.EventCampaign(context.Background(), "")
		require.EqualError(t, err, "eventId is required")
		_, err = client.ProfileCampaign(context.Background(), "")
		require.EqualError(t, err, "username is required")
		assert.Zero(t, calls.Load())
	})
}

func TestCampaignFeed(t *testing.T) {
	t.Run("unwraps the feed envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/events/evt_42/campaign/feed", r.URL.Path)
			_, _ = w.Write([]byte(`{
				"success": true,
				"message": "ok",
				"data": [
					{"amount_sats": 500, "payer_avatar": "https://img.example/a.png", "payer_username": "alice", "settled_at": "2026-01-02T15:04:05Z"},
					{"amount_sats": 21, "payer_avatar": "", "payer_username": "anonymous", "settled_at": "2026-01-02T15:00:00Z"}
				]
			}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL))
		require.NoError(t, err)

		feed, err := client.EventCampaignFeed(context.Background(), "evt_42")
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, int64(500), feed[0].AmountSats)
		assert.Equal(t, "alice", feed[0].PayerUsername)
		assert.Equal(t, "anonymous", feed[1].PayerUsername)
		assert.Empty(t, feed[1].PayerAvatar)
	})

	t.Run("feed entries expose no payment internals", func(t *testing.T) {
		raw, err := json.Marshal(FeedEntry{
			AmountSats:    500,
			PayerUsername: "alice",
			SettledAt:     time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		})
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(raw, &fields))
		assert.ElementsMatch(t,
			[]string{"amount_sats", "payer_avatar", "payer_username", "settled_at"},
			keysOf(fields))
		for _, forbidden := range []string{"payment_hash", "preimage", "verify_url", "bolt11_invoice"} {
			assert.NotContains(t, fields, forbidden)
		}
	})
}

func TestRetryBehavior(t *testing.T) {
	t.Run("retries transient server failures when enabled", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"status":"pending","amountSats":100}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL), WithRetry())
		require.NoError(t, err)

		status, err := client.PledgeStatus(context.Background(), "plg_1")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, status.Status)
		assert.GreaterOrEqual(t, calls.Load(), int64(3))
	})

	t.Run("never retries deliberate API rejections", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"pledge not found"}`))
		}))
		defer server.Close()

		client, err := NewClient(WithBaseURL(server.URL), WithRetry())
		require.NoError(t, err)

		_, err = client.PledgeStatus(context.Background(), "plg_gone")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, int64(1), calls.Load())
	})
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
