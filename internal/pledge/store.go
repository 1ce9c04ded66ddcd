package pledge

import (
	"context"
	"time"

	derrors "evento/pkg/domain-errors"
)

// ErrNotFound keeps pledge 404s consistent across store implementations.
var ErrNotFound = derrors.New(derrors.CodeNotFound, "pledge not found")

// Store persists pledges. Transition methods are conditional writes: they only
// move a pending pledge, so duplicate settlement or expiry delivery is
// harmless at the storage layer.
type Store interface {
	Create(ctx context.Context, p Pledge) error
	FindByID(ctx context.Context, id string) (Pledge, error)

	// ListPending returns pledges still awaiting payment, oldest first.
	ListPending(ctx context.Context, limit int) ([]Pledge, error)

	// MarkSettled transitions a pending pledge to settled. Returns the
	// updated pledge and whether this call performed the transition.
	MarkSettled(ctx context.Context, id string, settledAt time.Time) (Pledge, bool, error)

	// MarkExpired transitions a pending pledge to expired. Returns the
	// updated pledge and whether this call performed the transition.
	MarkExpired(ctx context.Context, id string) (Pledge, bool, error)
}
