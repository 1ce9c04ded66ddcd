package campaign

import (
	"time"

	"github.com/google/uuid"
)

// Scope distinguishes campaigns attached to an event from campaigns attached
// to a user profile. Handlers and the client SDK dispatch on this tag instead
// of duplicating per-scope implementations.
type Scope string

const (
	ScopeEvent   Scope = "event"
	ScopeProfile Scope = "profile"
)

// Status is the campaign lifecycle state. Only active campaigns accept
// pledges; paused campaigns stay visible but reject new pledges.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusClosed Status = "closed"
)

// Campaign is the crowdfunding aggregate. Raised totals and pledge counts are
// maintained by the pledge settlement path, never written by readers.
type Campaign struct {
	ID                   string    `json:"id"`
	EventID              *string   `json:"event_id"`
	UserID               string    `json:"user_id"`
	Scope                Scope     `json:"scope"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	GoalSats             *int64    `json:"goal_sats"`
	RaisedSats           int64     `json:"raised_sats"`
	PledgeCount          int64     `json:"pledge_count"`
	Visibility           string    `json:"visibility"`
	Status               Status    `json:"status"`
	DestinationAddress   string    `json:"destination_address"`
	DestinationVerifyURL string    `json:"destination_verify_url"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewID returns a fresh campaign identifier.
func NewID() string {
	return "cmp_" + uuid.NewString()
}

// WithProgress derives the display fields served to clients. progressPercent
// is 0 when no goal is set; it may exceed 100 when a goal is overfunded.
func (c Campaign) WithProgress() WithProgress {
	out := WithProgress{Campaign: c}
	if c.GoalSats != nil && *c.GoalSats > 0 {
		out.ProgressPercent = float64(c.RaisedSats) / float64(*c.GoalSats) * 100
		out.IsGoalMet = c.RaisedSats >= *c.GoalSats
	}
	return out
}

// WithProgress is a Campaign plus derived progress fields. The derived fields
// keep the camelCase names the web client binds to.
type WithProgress struct {
	Campaign
	ProgressPercent float64 `json:"progressPercent"`
	IsGoalMet       bool    `json:"isGoalMet"`
}

// FeedEntry is one row of a campaign's public activity feed. This type is the
// sanitization boundary: it can only ever hold the four public fields, so
// payment internals (payment hash, preimage, verify URL, the bolt11 invoice)
// cannot leak into feed responses by construction.
type FeedEntry struct {
	AmountSats    int64     `json:"amount_sats"`
	PayerAvatar   string    `json:"payer_avatar"`
	PayerUsername string    `json:"payer_username"`
	SettledAt     time.Time `json:"settled_at"`
}

// AnonymousPayer is used for feed entries from unauthenticated pledgers.
const AnonymousPayer = "anonymous"

// NewFeedEntry builds a feed entry from the public facts of a settlement.
// Callers hold the full pledge record; only these fields cross the boundary.
func NewFeedEntry(amountSats int64, payerUsername, payerAvatar string, settledAt time.Time) FeedEntry {
	if payerUsername == "" {
		payerUsername = AnonymousPayer
		payerAvatar = ""
	}
	return FeedEntry{
		AmountSats:    amountSats,
		PayerAvatar:   payerAvatar,
		PayerUsername: payerUsername,
		SettledAt:     settledAt,
	}
}
