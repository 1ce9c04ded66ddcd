// Package service implements campaign reads and the settlement write path.
package service

import (
	"context"
	"log/slog"

	"evento/internal/campaign"
	derrors "evento/pkg/domain-errors"
)

// Service serves campaign summaries and activity feeds, and applies settled
// pledges to campaign totals on behalf of the pledge settlement path.
type Service struct {
	store  campaign.Store
	cache  *campaign.RedisCache
	logger *slog.Logger
}

// New creates a campaign Service. cache may be nil when Redis is not
// configured; reads then always hit the store.
func New(store campaign.Store, cache *campaign.RedisCache, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

// EventCampaign returns the campaign attached to an event, with derived
// progress fields.
func (s *Service) EventCampaign(ctx context.Context, eventID string) (campaign.WithProgress, error) {
	if eventID == "" {
		return campaign.WithProgress{}, derrors.New(derrors.CodeBadRequest, "eventId is required")
	}
	return s.lookup(ctx, campaign.ScopeEvent, eventID)
}

// ProfileCampaign returns the campaign attached to a user profile, with
// derived progress fields.
func (s *Service) ProfileCampaign(ctx context.Context, username string) (campaign.WithProgress, error) {
	if username == "" {
		return campaign.WithProgress{}, derrors.New(derrors.CodeBadRequest, "username is required")
	}
	return s.lookup(ctx, campaign.ScopeProfile, username)
}

func (s *Service) lookup(ctx context.Context, scope campaign.Scope, key string) (campaign.WithProgress, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, scope, key); ok {
			return cached.WithProgress(), nil
		}
	}

	c, err := s.find(ctx, scope, key)
	if err != nil {
		return campaign.WithProgress{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, scope, key, c); err != nil {
			s.logger.WarnContext(ctx, "campaign cache set failed",
				"scope", scope,
				"error", err,
			)
		}
	}
	return c.WithProgress(), nil
}

func (s *Service) find(ctx context.Context, scope campaign.Scope, key string) (campaign.Campaign, error) {
	if scope == campaign.ScopeEvent {
		return s.store.FindByEvent(ctx, key)
	}
	return s.store.FindByUsername(ctx, key)
}

// EventFeed returns the activity feed for an event campaign.
func (s *Service) EventFeed(ctx context.Context, eventID string, limit int) ([]campaign.FeedEntry, error) {
	return s.feed(ctx, campaign.ScopeEvent, eventID, limit)
}

// ProfileFeed returns the activity feed for a profile campaign.
func (s *Service) ProfileFeed(ctx context.Context, username string, limit int) ([]campaign.FeedEntry, error) {
	return s.feed(ctx, campaign.ScopeProfile, username, limit)
}

func (s *Service) feed(ctx context.Context, scope campaign.Scope, key string, limit int) ([]campaign.FeedEntry, error) {
	c, err := s.find(ctx, scope, key)
	if err != nil {
		return nil, err
	}
	return s.store.ListFeed(ctx, c.ID, limit)
}

// FindPledgeable returns the campaign for the scope key if it accepts new
// pledges. Non-active campaigns are rejected with the message the web client
// surfaces verbatim.
func (s *Service) FindPledgeable(ctx context.Context, scope campaign.Scope, key string) (campaign.Campaign, error) {
	c, err := s.find(ctx, scope, key)
	if err != nil {
		return campaign.Campaign{}, err
	}
	if c.Status != campaign.StatusActive {
		return campaign.Campaign{}, derrors.New(derrors.CodeBadRequest, "Campaign is not active")
	}
	return c, nil
}

// RecordSettlement applies a settled pledge to the campaign's totals, appends
// the feed entry, and invalidates the cached summary so the next read shows
// the new total. Called exactly once per settled pledge.
func (s *Service) RecordSettlement(ctx context.Context, campaignID string, amountSats int64, entry campaign.FeedEntry) error {
	c, err := s.store.FindByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if err := s.store.ApplySettlement(ctx, c.ID, amountSats, entry); err != nil {
		return err
	}

	if s.cache != nil {
		key := c.UserID
		if c.Scope == campaign.ScopeEvent && c.EventID != nil {
			key = *c.EventID
		}
		if err := s.cache.Invalidate(ctx, c.Scope, key); err != nil {
			s.logger.WarnContext(ctx, "campaign cache invalidation failed",
				"campaign_id", c.ID,
				"error", err,
			)
		}
	}
	return nil
}
