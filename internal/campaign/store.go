package campaign

import (
	"context"

	derrors "evento/pkg/domain-errors"
)

// ErrNotFound keeps campaign 404s consistent across store implementations.
var ErrNotFound = derrors.New(derrors.CodeNotFound, "campaign not found")

// Store is interface-driven to keep domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code.
type Store interface {
	Create(ctx context.Context, c Campaign) error
	FindByID(ctx context.Context, id string) (Campaign, error)
	FindByEvent(ctx context.Context, eventID string) (Campaign, error)
	FindByUsername(ctx context.Context, username string) (Campaign, error)

	// ApplySettlement atomically adds a settled pledge to the campaign's
	// totals and appends its feed entry. Called only by the pledge
	// settlement path.
	ApplySettlement(ctx context.Context, campaignID string, amountSats int64, entry FeedEntry) error

	// ListFeed returns the campaign's activity feed, newest first.
	ListFeed(ctx context.Context, campaignID string, limit int) ([]FeedEntry, error)
}
