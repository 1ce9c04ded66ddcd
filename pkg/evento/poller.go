package evento

import (
	"context"
	"time"
)

const (
	// DefaultPollInterval is how often a pledge's status is refetched while
	// it is still pending.
	DefaultPollInterval = 3 * time.Second

	// MinPollInterval is the floor applied to configured intervals so a
	// misconfigured caller cannot hammer the API.
	MinPollInterval = time.Second
)

// StatusUpdate is one observation delivered by a StatusPoller. Err is set
// when a poll attempt failed; Status is only meaningful when Err is nil.
type StatusUpdate struct {
	PledgeID string
	Status   PledgeStatus
	Err      error
}

// StatusPoller repeatedly fetches a pledge's status until it reaches a
// terminal state. Each poller is keyed to a single pledge id; a new pledge
// means a new poller.
type StatusPoller struct {
	client   Client
	pledgeID string
	interval time.Duration
}

// PollerOption configures a StatusPoller.
type PollerOption func(*StatusPoller)

// WithPollInterval overrides the polling interval. Values below
// MinPollInterval are clamped to it.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *StatusPoller) {
		if d < MinPollInterval {
			d = MinPollInterval
		}
		p.interval = d
	}
}

// NewStatusPoller creates a poller for the given pledge id. An empty id
// yields an idle poller that never issues a request.
func NewStatusPoller(client Client, pledgeID string, opts ...PollerOption) *StatusPoller {
	p := &StatusPoller{
		client:   client,
		pledgeID: pledgeID,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the effective polling interval.
func (p *StatusPoller) Interval() time.Duration {
	return p.interval
}

// Watch starts polling and returns a channel of updates. The channel closes
// when the pledge reaches a terminal status or the context is cancelled.
// Failed polls are delivered as updates with Err set and polling continues;
// the poller itself never retries eagerly.
func (p *StatusPoller) Watch(ctx context.Context) <-chan StatusUpdate {
	updates := make(chan StatusUpdate)
	if p.pledgeID == "" {
		close(updates)
		return updates
	}

	go func() {
		defer close(updates)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			status, err := p.client.PledgeStatus(ctx, p.pledgeID)
			update := StatusUpdate{PledgeID: p.pledgeID, Status: status, Err: err}

			select {
			case updates <- update:
			case <-ctx.Done():
				return
			}
			if err == nil && status.Terminal() {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates
}
