package pledge

import (
	"time"

	"github.com/google/uuid"

	"evento/internal/campaign"
)

// Status is the pledge lifecycle state. A pledge starts pending, then
// transitions exactly once to settled (payment observed) or expired (invoice
// validity window lapsed). Both terminal states are sticky.
type Status string

const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
	StatusExpired Status = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusExpired
}

// Pledge is the full server-side record. The bolt11 invoice and payment hash
// are needed for settlement tracking; they must never appear in feed entries.
type Pledge struct {
	ID         string
	CampaignID string
	Scope      campaign.Scope
	AmountSats int64
	Invoice    string
	// PaymentHash identifies the invoice at the Lightning backend.
	PaymentHash string

	PayerUsername string
	PayerAvatar   string

	Status    Status
	CreatedAt time.Time
	ExpiresAt time.Time
	SettledAt *time.Time
}

// NewID returns a fresh pledge identifier.
func NewID() string {
	return "plg_" + uuid.NewString()
}

// CreateResult is the response to a pledge intent: the durable pledge handle,
// the opaque bolt11 invoice the payer scans, and the invoice expiry.
type CreateResult struct {
	PledgeID   string    `json:"pledgeId"`
	Invoice    string    `json:"invoice"`
	AmountSats int64     `json:"amountSats"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// StatusResult is the polled view of a pledge.
type StatusResult struct {
	Status     Status     `json:"status"`
	AmountSats int64      `json:"amountSats"`
	SettledAt  *time.Time `json:"settledAt,omitempty"`
}

// StatusResultOf projects a pledge onto its polled view.
func StatusResultOf(p Pledge) StatusResult {
	return StatusResult{
		Status:     p.Status,
		AmountSats: p.AmountSats,
		SettledAt:  p.SettledAt,
	}
}

// CreateRequest is the pledge creation body. Scope identity travels in the
// URL, never duplicated here.
type CreateRequest struct {
	AmountSats int64 `json:"amountSats"`
}
