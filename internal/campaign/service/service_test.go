package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"evento/internal/campaign"
	"evento/internal/platform/logger"
	derrors "evento/pkg/domain-errors"
)

type CampaignServiceSuite struct {
	suite.Suite
	store   *campaign.InMemoryStore
	service *Service
	now     time.Time
}

func (s *CampaignServiceSuite) SetupTest() {
	s.now = time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	s.store = campaign.NewInMemoryStore(campaign.WithClock(func() time.Time { return s.now }))
	s.service = New(s.store, nil, logger.New())
}

func TestCampaignServiceSuite(t *testing.T) {
	suite.Run(t, new(CampaignServiceSuite))
}

func (s *CampaignServiceSuite) seedEvent(eventID string, status campaign.Status) campaign.Campaign {
	goal := int64(100000)
	c := campaign.Campaign{
		ID:       campaign.NewID(),
		EventID:  &eventID,
		UserID:   "usr_1",
		Scope:    campaign.ScopeEvent,
		Title:    "Community meetup",
		GoalSats: &goal,
		Status:   status,
	}
	s.Require().NoError(s.store.Create(context.Background(), c))
	return c
}

func (s *CampaignServiceSuite) seedProfile(username string, status campaign.Status) campaign.Campaign {
	c := campaign.Campaign{
		ID:     campaign.NewID(),
		UserID: username,
		Scope:  campaign.ScopeProfile,
		Title:  "Support my work",
		Status: status,
	}
	s.Require().NoError(s.store.Create(context.Background(), c))
	return c
}

func (s *CampaignServiceSuite) TestCampaignLookups() {
	ctx := context.Background()

	s.Run("event lookup returns the campaign with derived progress", func() {
		c := s.seedEvent("evt_42", campaign.StatusActive)
		s.Require().NoError(s.store.ApplySettlement(ctx, c.ID, 50000, campaign.NewFeedEntry(50000, "alice", "", s.now)))

		got, err := s.service.EventCampaign(ctx, "evt_42")
		s.Require().NoError(err)
		s.Equal(c.ID, got.ID)
		s.Equal(float64(50), got.ProgressPercent)
		s.False(got.IsGoalMet)
	})

	s.Run("profile lookup resolves by username", func() {
		c := s.seedProfile("satoshi", campaign.StatusActive)

		got, err := s.service.ProfileCampaign(ctx, "satoshi")
		s.Require().NoError(err)
		s.Equal(c.ID, got.ID)
	})

	s.Run("an empty event id is rejected before any store access", func() {
		_, err := s.service.EventCampaign(ctx, "")
		s.Require().Error(err)
		s.Equal(derrors.CodeBadRequest, derrors.CodeOf(err))
		s.Equal("eventId is required", err.Error())
	})

	s.Run("an empty username is rejected before any store access", func() {
		_, err := s.service.ProfileCampaign(ctx, "")
		s.Require().Error(err)
		s.Equal(derrors.CodeBadRequest, derrors.CodeOf(err))
		s.Equal("username is required", err.Error())
	})

	s.Run("a missing campaign is not found", func() {
		_, err := s.service.EventCampaign(ctx, "evt_missing")
		s.Require().ErrorIs(err, campaign.ErrNotFound)
	})
}

func (s *CampaignServiceSuite) TestFeeds() {
	ctx := context.Background()

	s.Run("returns the feed newest first", func() {
		c := s.seedEvent("evt_42", campaign.StatusActive)
		older := campaign.NewFeedEntry(100, "alice", "", s.now)
		newer := campaign.NewFeedEntry(500, "", "", s.now.Add(time.Minute))
		s.Require().NoError(s.store.ApplySettlement(ctx, c.ID, 100, older))
		s.Require().NoError(s.store.ApplySettlement(ctx, c.ID, 500, newer))

		feed, err := s.service.EventFeed(ctx, "evt_42", 0)
		s.Require().NoError(err)
		s.Require().Len(feed, 2)
		s.Equal(newer, feed[0])
		s.Equal(older, feed[1])
	})

	s.Run("profile feeds resolve through the username", func() {
		c := s.seedProfile("satoshi", campaign.StatusActive)
		s.Require().NoError(s.store.ApplySettlement(ctx, c.ID, 21, campaign.NewFeedEntry(21, "", "", s.now)))

		feed, err := s.service.ProfileFeed(ctx, "satoshi", 0)
		s.Require().NoError(err)
		s.Len(feed, 1)
	})

	s.Run("a feed for a missing campaign is not found", func() {
		_, err := s.service.EventFeed(ctx, "evt_missing", 0)
		s.Require().ErrorIs(err, campaign.ErrNotFound)
	})
}

func (s *CampaignServiceSuite) TestFindPledgeable() {
	ctx := context.Background()

	s.Run("active campaigns accept pledges", func() {
		c := s.seedEvent("evt_42", campaign.StatusActive)

		got, err := s.service.FindPledgeable(ctx, campaign.ScopeEvent, "evt_42")
		s.Require().NoError(err)
		s.Equal(c.ID, got.ID)
	})

	s.Run("paused and closed campaigns reject pledges with the client-facing message", func() {
		s.seedEvent("evt_paused", campaign.StatusPaused)
		s.seedProfile("closed_user", campaign.StatusClosed)

		_, err := s.service.FindPledgeable(ctx, campaign.ScopeEvent, "evt_paused")
		s.Require().Error(err)
		s.Equal(derrors.CodeBadRequest, derrors.CodeOf(err))
		s.Equal("Campaign is not active", err.Error())

		_, err = s.service.FindPledgeable(ctx, campaign.ScopeProfile, "closed_user")
		s.Require().Error(err)
		s.Equal("Campaign is not active", err.Error())
	})
}

func (s *CampaignServiceSuite) TestRecordSettlement() {
	ctx := context.Background()

	s.Run("applies totals and the feed entry", func() {
		c := s.seedEvent("evt_42", campaign.StatusActive)
		entry := campaign.NewFeedEntry(500, "alice", "https://img.example/a.png", s.now)

		s.Require().NoError(s.service.RecordSettlement(ctx, c.ID, 500, entry))

		got, err := s.service.EventCampaign(ctx, "evt_42")
		s.Require().NoError(err)
		s.Equal(int64(500), got.RaisedSats)
		s.Equal(int64(1), got.PledgeCount)

		feed, err := s.service.EventFeed(ctx, "evt_42", 0)
		s.Require().NoError(err)
		s.Require().Len(feed, 1)
		s.Equal(entry, feed[0])
	})

	s.Run("settling against an unknown campaign fails", func() {
		err := s.service.RecordSettlement(ctx, "cmp_missing", 500, campaign.NewFeedEntry(500, "", "", s.now))
		s.Require().ErrorIs(err, campaign.ErrNotFound)
	})
}
