// Package events publishes pledge lifecycle events for downstream consumers
// (notification fan-out, analytics). Publishing is best-effort: a failed
// publish never rolls back a settlement.
package events

import (
	"context"
	"sync"
	"time"
)

// PledgeSettled is emitted once per settled pledge. It carries only the
// public facts of the settlement, mirroring the feed sanitization boundary.
type PledgeSettled struct {
	PledgeID      string    `json:"pledge_id"`
	CampaignID    string    `json:"campaign_id"`
	Scope         string    `json:"scope"`
	AmountSats    int64     `json:"amount_sats"`
	PayerUsername string    `json:"payer_username"`
	SettledAt     time.Time `json:"settled_at"`
}

// Publisher emits pledge events.
type Publisher interface {
	PublishSettled(ctx context.Context, event PledgeSettled) error
}

// MemoryPublisher records events in memory for tests and single-process
// deployments without a broker.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []PledgeSettled
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) PublishSettled(_ context.Context, event PledgeSettled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []PledgeSettled {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PledgeSettled{}, p.events...)
}
