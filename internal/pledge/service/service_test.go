package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"evento/internal/campaign"
	campaignservice "evento/internal/campaign/service"
	"evento/internal/platform/logger"
	"evento/internal/pledge"
	"evento/internal/pledge/events"
	"evento/internal/pledge/invoice"
	derrors "evento/pkg/domain-errors"
)

const invoiceTTL = 10 * time.Minute

type PledgeServiceSuite struct {
	suite.Suite
	campaignStore *campaign.InMemoryStore
	pledgeStore   *pledge.InMemoryStore
	invoicer      *invoice.Fake
	publisher     *events.MemoryPublisher
	service       *Service
	now           time.Time
}

func (s *PledgeServiceSuite) SetupTest() {
	s.now = time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	log := logger.New()
	s.campaignStore = campaign.NewInMemoryStore(campaign.WithClock(clock))
	s.pledgeStore = pledge.NewInMemoryStore()
	s.invoicer = invoice.NewFake()
	s.publisher = events.NewMemoryPublisher()

	campaigns := campaignservice.New(s.campaignStore, nil, log)
	s.service = New(s.pledgeStore, campaigns, s.invoicer, s.publisher, nil, log, invoiceTTL, WithClock(clock))
}

// SetupSubTest resets the stores and publisher for every s.Run subtest; the
// subtests seed their own fixtures and assert on per-subtest state.
func (s *PledgeServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func TestPledgeServiceSuite(t *testing.T) {
	suite.Run(t, new(PledgeServiceSuite))
}

func (s *PledgeServiceSuite) seedEvent(eventID string, status campaign.Status) campaign.Campaign {
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
	s.Require().NoError(s.campaignStore.Create(context.Background(), c))
	return c
}

func (s *PledgeServiceSuite) createPledge(payer Payer) pledge.CreateResult {
	result, err := s.service.Create(context.Background(), campaign.ScopeEvent, "evt_42", 500, payer)
	s.Require().NoError(err)
	return result
}

func (s *PledgeServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("issues an invoice and persists a pending pledge", func() {
		s.seedEvent("evt_42", campaign.StatusActive)

		result, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42", 500, Payer{})
		s.Require().NoError(err)

		s.NotEmpty(result.PledgeID)
		s.NotEmpty(result.Invoice)
		s.Equal(int64(500), result.AmountSats)
		s.Equal(s.now.Add(invoiceTTL), result.ExpiresAt)

		stored, err := s.pledgeStore.FindByID(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.Equal(pledge.StatusPending, stored.Status)
		s.Equal(result.Invoice, stored.Invoice)
		s.NotEmpty(stored.PaymentHash)
	})

	s.Run("rejects non-positive amounts", func() {
		s.seedEvent("evt_42b", campaign.StatusActive)

		_, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42b", 0, Payer{})
		s.Require().Error(err)
		s.Equal(derrors.CodeBadRequest, derrors.CodeOf(err))
		s.Equal("amountSats must be positive", err.Error())
	})

	s.Run("rejects pledges against a non-active campaign", func() {
		s.seedEvent("evt_paused", campaign.StatusPaused)

		_, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_paused", 100, Payer{})
		s.Require().Error(err)
		s.Equal(derrors.CodeBadRequest, derrors.CodeOf(err))
		s.Equal("Campaign is not active", err.Error())
	})

	s.Run("rejects pledges when no campaign exists", func() {
		_, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_missing", 100, Payer{})
		s.Require().ErrorIs(err, campaign.ErrNotFound)
	})

	s.Run("successive pledges get distinct ids and invoices", func() {
		s.seedEvent("evt_42c", campaign.StatusActive)

		first, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42c", 100, Payer{})
		s.Require().NoError(err)
		second, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42c", 100, Payer{})
		s.Require().NoError(err)

		s.NotEqual(first.PledgeID, second.PledgeID)
		s.NotEqual(first.Invoice, second.Invoice)
	})
}

func (s *PledgeServiceSuite) TestStatus() {
	ctx := context.Background()

	s.Run("a fresh pledge polls as pending", func() {
		s.seedEvent("evt_42", campaign.StatusActive)
		result := s.createPledge(Payer{})

		status, err := s.service.Status(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.Equal(pledge.StatusPending, status.Status)
		s.Equal(int64(500), status.AmountSats)
		s.Nil(status.SettledAt)
	})

	s.Run("a pending pledge past its window polls as expired", func() {
		s.seedEvent("evt_42d", campaign.StatusActive)
		result, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42d", 100, Payer{})
		s.Require().NoError(err)

		s.now = s.now.Add(invoiceTTL + time.Second)

		status, err := s.service.Status(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.Equal(pledge.StatusExpired, status.Status)

		stored, err := s.pledgeStore.FindByID(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.Equal(pledge.StatusExpired, stored.Status)
	})

	s.Run("an unknown pledge is not found", func() {
		_, err := s.service.Status(ctx, "plg_missing")
		s.Require().ErrorIs(err, pledge.ErrNotFound)
	})
}

func (s *PledgeServiceSuite) TestSettle() {
	ctx := context.Background()

	s.Run("settlement updates campaign totals, feed, and emits an event", func() {
		c := s.seedEvent("evt_42", campaign.StatusActive)
		result := s.createPledge(Payer{Username: "alice", AvatarURL: "https://img.example/a.png"})

		s.Require().NoError(s.service.Settle(ctx, result.PledgeID))

		status, err := s.service.Status(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.Equal(pledge.StatusSettled, status.Status)
		s.Require().NotNil(status.SettledAt)
		s.Equal(s.now, *status.SettledAt)

		updated, err := s.campaignStore.FindByID(ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(int64(500), updated.RaisedSats)
		s.Equal(int64(1), updated.PledgeCount)

		feed, err := s.campaignStore.ListFeed(ctx, c.ID, 0)
		s.Require().NoError(err)
		s.Require().Len(feed, 1)
		s.Equal("alice", feed[0].PayerUsername)
		s.Equal("https://img.example/a.png", feed[0].PayerAvatar)

		published := s.publisher.Events()
		s.Require().Len(published, 1)
		s.Equal(result.PledgeID, published[0].PledgeID)
		s.Equal(c.ID, published[0].CampaignID)
		s.Equal("alice", published[0].PayerUsername)
	})

	s.Run("anonymous settlements hit the feed without identity", func() {
		c := s.seedEvent("evt_42e", campaign.StatusActive)
		result, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42e", 100, Payer{})
		s.Require().NoError(err)

		s.Require().NoError(s.service.Settle(ctx, result.PledgeID))

		feed, err := s.campaignStore.ListFeed(ctx, c.ID, 0)
		s.Require().NoError(err)
		s.Require().Len(feed, 1)
		s.Equal(campaign.AnonymousPayer, feed[0].PayerUsername)
		s.Empty(feed[0].PayerAvatar)
	})

	s.Run("duplicate settles apply the settlement once", func() {
		c := s.seedEvent("evt_42f", campaign.StatusActive)
		result, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42f", 100, Payer{})
		s.Require().NoError(err)

		s.Require().NoError(s.service.Settle(ctx, result.PledgeID))
		s.Require().NoError(s.service.Settle(ctx, result.PledgeID))

		updated, err := s.campaignStore.FindByID(ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(int64(100), updated.RaisedSats)
		s.Equal(int64(1), updated.PledgeCount)
		s.Len(s.publisher.Events(), 1)
	})

	s.Run("settling an expired pledge is a no-op", func() {
		c := s.seedEvent("evt_42g", campaign.StatusActive)
		result, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42g", 100, Payer{})
		s.Require().NoError(err)

		s.Require().NoError(s.service.Expire(ctx, result.PledgeID))
		s.Require().NoError(s.service.Settle(ctx, result.PledgeID))

		updated, err := s.campaignStore.FindByID(ctx, c.ID)
		s.Require().NoError(err)
		s.Zero(updated.RaisedSats)
		s.Empty(s.publisher.Events())
	})
}

func (s *PledgeServiceSuite) TestWorker() {
	ctx := context.Background()
	worker := func() *Worker { return NewWorker(s.service, time.Second, time.Second) }

	s.Run("settles pledges whose invoices were paid", func() {
		c := s.seedEvent("evt_42", campaign.StatusActive)
		result := s.createPledge(Payer{Username: "alice"})

		stored, err := s.pledgeStore.FindByID(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.invoicer.MarkPaid(stored.PaymentHash)

		s.Require().NoError(worker().CheckPending(ctx))

		status, err := s.service.Status(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.Equal(pledge.StatusSettled, status.Status)

		updated, err := s.campaignStore.FindByID(ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(int64(500), updated.RaisedSats)
	})

	s.Run("expires pledges whose invoices lapsed at the backend", func() {
		s.seedEvent("evt_42h", campaign.StatusActive)
		result, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42h", 100, Payer{})
		s.Require().NoError(err)

		stored, err := s.pledgeStore.FindByID(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.invoicer.MarkExpired(stored.PaymentHash)

		s.Require().NoError(worker().CheckPending(ctx))

		status, err := s.service.Status(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.Equal(pledge.StatusExpired, status.Status)
	})

	s.Run("leaves unpaid unexpired pledges pending", func() {
		s.seedEvent("evt_42i", campaign.StatusActive)
		result, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42i", 100, Payer{})
		s.Require().NoError(err)

		s.Require().NoError(worker().CheckPending(ctx))

		status, err := s.service.Status(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.Equal(pledge.StatusPending, status.Status)
	})

	s.Run("the sweeper expires overdue pledges", func() {
		s.seedEvent("evt_42j", campaign.StatusActive)
		result, err := s.service.Create(ctx, campaign.ScopeEvent, "evt_42j", 100, Payer{})
		s.Require().NoError(err)

		s.now = s.now.Add(invoiceTTL + time.Second)
		s.Require().NoError(worker().SweepExpired(ctx))

		stored, err := s.pledgeStore.FindByID(ctx, result.PledgeID)
		s.Require().NoError(err)
		s.Equal(pledge.StatusExpired, stored.Status)
	})

	s.Run("run stops when the context is cancelled", func() {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- worker().Run(runCtx) }()

		cancel()
		select {
		case err := <-done:
			s.Require().ErrorIs(err, context.Canceled)
		case <-time.After(2 * time.Second):
			s.Fail("worker did not stop after cancellation")
		}
	})
}
