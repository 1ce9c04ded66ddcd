// Package service implements the pledge lifecycle: intent creation, status
// reads, and the settlement/expiry transitions driven by the worker.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"evento/internal/campaign"
	"evento/internal/platform/metrics"
	"evento/internal/pledge"
	"evento/internal/pledge/events"
	"evento/internal/pledge/invoice"
	derrors "evento/pkg/domain-errors"
)

// Campaigns is the slice of the campaign service the pledge lifecycle needs.
type Campaigns interface {
	FindPledgeable(ctx context.Context, scope campaign.Scope, key string) (campaign.Campaign, error)
	RecordSettlement(ctx context.Context, campaignID string, amountSats int64, entry campaign.FeedEntry) error
}

// Payer is the optional identity of the pledger, taken from auth claims.
// Zero value means an anonymous pledge.
type Payer struct {
	Username  string
	AvatarURL string
}

// Service drives the pledge lifecycle.
type Service struct {
	store     pledge.Store
	campaigns Campaigns
	invoicer  invoice.Invoicer
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	invoiceTTL time.Duration
	clock      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a pledge Service. metrics may be nil in tests.
func New(
	store pledge.Store,
	campaigns Campaigns,
	invoicer invoice.Invoicer,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	invoiceTTL time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		store:      store,
		campaigns:  campaigns,
		invoicer:   invoicer,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
		invoiceTTL: invoiceTTL,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create validates the intent, obtains a Lightning invoice, and persists a
// pending pledge. The campaign must be active; the amount must be positive.
func (s *Service) Create(ctx context.Context, scope campaign.Scope, scopeKey string, amountSats int64, payer Payer) (pledge.CreateResult, error) {
	if amountSats <= 0 {
		return pledge.CreateResult{}, derrors.New(derrors.CodeBadRequest, "amountSats must be positive")
	}

	c, err := s.campaigns.FindPledgeable(ctx, scope, scopeKey)
	if err != nil {
		return pledge.CreateResult{}, err
	}

	memo := fmt.Sprintf("Evento pledge: %s", c.Title)
	inv, err := s.invoicer.CreateInvoice(ctx, amountSats, memo)
	if err != nil {
		return pledge.CreateResult{}, err
	}

	now := s.clock()
	p := pledge.Pledge{
		ID:            pledge.NewID(),
		CampaignID:    c.ID,
		Scope:         scope,
		AmountSats:    amountSats,
		Invoice:       inv.PaymentRequest,
		PaymentHash:   inv.PaymentHash,
		PayerUsername: payer.Username,
		PayerAvatar:   payer.AvatarURL,
		Status:        pledge.StatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.invoiceTTL),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return pledge.CreateResult{}, derrors.Wrap(derrors.CodeInternal, "persist pledge", err)
	}

	if s.metrics != nil {
		s.metrics.PledgesCreated.WithLabelValues(string(scope)).Inc()
	}
	s.logger.InfoContext(ctx, "pledge created",
		"pledge_id", p.ID,
		"campaign_id", c.ID,
		"scope", scope,
		"amount_sats", amountSats,
	)

	return pledge.CreateResult{
		PledgeID:   p.ID,
		Invoice:    p.Invoice,
		AmountSats: p.AmountSats,
		ExpiresAt:  p.ExpiresAt,
	}, nil
}

// Status returns the polled view of a pledge. A pending pledge past its
// expiry is lazily transitioned so pollers observe expiry without waiting for
// the sweeper.
func (s *Service) Status(ctx context.Context, pledgeID string) (pledge.StatusResult, error) {
	p, err := s.store.FindByID(ctx, pledgeID)
	if err != nil {
		return pledge.StatusResult{}, err
	}

	if p.Status == pledge.StatusPending && s.clock().After(p.ExpiresAt) {
		expired, transitioned, err := s.store.MarkExpired(ctx, pledgeID)
		if err != nil {
			return pledge.StatusResult{}, err
		}
		if transitioned && s.metrics != nil {
			s.metrics.PledgesExpired.Inc()
		}
		p = expired
	}

	return pledge.StatusResultOf(p), nil
}

// Settle transitions a pending pledge to settled and propagates the
// settlement: campaign totals, feed entry, event publish, metrics. Duplicate
// calls are no-ops past the conditional store write.
func (s *Service) Settle(ctx context.Context, pledgeID string) error {
	settledAt := s.clock()
	p, transitioned, err := s.store.MarkSettled(ctx, pledgeID, settledAt)
	if err != nil {
		return err
	}
	if !transitioned {
		return nil
	}

	entry := campaign.NewFeedEntry(p.AmountSats, p.PayerUsername, p.PayerAvatar, settledAt)
	if err := s.campaigns.RecordSettlement(ctx, p.CampaignID, p.AmountSats, entry); err != nil {
		return fmt.Errorf("record settlement for pledge %s: %w", p.ID, err)
	}

	if s.publisher != nil {
		event := events.PledgeSettled{
			PledgeID:      p.ID,
			CampaignID:    p.CampaignID,
			Scope:         string(p.Scope),
			AmountSats:    p.AmountSats,
			PayerUsername: entry.PayerUsername,
			SettledAt:     settledAt,
		}
		if err := s.publisher.PublishSettled(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "pledge event publish failed",
				"pledge_id", p.ID,
				"error", err,
			)
		}
	}

	if s.metrics != nil {
		s.metrics.PledgesSettled.WithLabelValues(string(p.Scope)).Inc()
		s.metrics.SatsRaised.Add(float64(p.AmountSats))
	}
	s.logger.InfoContext(ctx, "pledge settled",
		"pledge_id", p.ID,
		"campaign_id", p.CampaignID,
		"amount_sats", p.AmountSats,
	)
	return nil
}

// Expire transitions a pending pledge to expired.
func (s *Service) Expire(ctx context.Context, pledgeID string) error {
	_, transitioned, err := s.store.MarkExpired(ctx, pledgeID)
	if err != nil {
		return err
	}
	if transitioned {
		if s.metrics != nil {
			s.metrics.PledgesExpired.Inc()
		}
		s.logger.InfoContext(ctx, "pledge expired", "pledge_id", pledgeID)
	}
	return nil
}
