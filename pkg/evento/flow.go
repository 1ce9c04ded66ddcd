package evento

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// FlowState is a phase of the pledge sheet.
type FlowState string

const (
	// StateAmount is the initial phase: the payer picks a quick amount.
	StateAmount FlowState = "amount"
	// StateInvoice shows the Lightning invoice while polling for settlement.
	StateInvoice FlowState = "invoice"
	// StateSettled is terminal success; the sheet auto-closes shortly after.
	StateSettled FlowState = "settled"
	// StateExpired is terminal failure; the payer may retry.
	StateExpired FlowState = "expired"
)

// QuickAmounts are the fixed pledge denominations offered in the amount
// phase, in satoshis.
var QuickAmounts = []int64{21, 100, 500, 1000, 5000}

// Clipboard abstracts the host clipboard for invoice copying.
type Clipboard interface {
	WriteText(text string) error
}

const (
	// DefaultAutoCloseDelay is how long a settled sheet stays visible before
	// closing itself.
	DefaultAutoCloseDelay = 2500 * time.Millisecond

	// DefaultCopiedAckDelay is how long the "copied" acknowledgement shows
	// after the invoice is written to the clipboard.
	DefaultCopiedAckDelay = 2 * time.Second
)

// ErrAmountNotSelected is returned by CreatePledge before an amount is
// chosen.
var ErrAmountNotSelected = errors.New("no amount selected")

// Session drives one pledge sheet through amount → invoice →
// settled/expired. All methods are safe for concurrent use; poll updates
// arriving after a retry or close are discarded.
type Session struct {
	client       Client
	cache        *QueryCache
	clipboard    Clipboard
	scope        Scope
	key          string
	pollInterval time.Duration
	autoClose    time.Duration
	copiedAck    time.Duration
	after        func(time.Duration, func()) *time.Timer
	onClose      func()

	mu             sync.Mutex
	state          FlowState
	amountSats     int64
	pledgeID       string
	invoice        string
	settledAt      *time.Time
	settledHandled bool
	copied         bool
	copiedTimer    *time.Timer
	closeTimer     *time.Timer
	pollCancel     context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCache attaches a QueryCache whose campaign entries are invalidated on
// settlement.
func WithCache(cache *QueryCache) SessionOption {
	return func(s *Session) {
		s.cache = cache
	}
}

// WithClipboard sets the clipboard used by CopyInvoice.
func WithClipboard(cb Clipboard) SessionOption {
	return func(s *Session) {
		s.clipboard = cb
	}
}

// WithSessionPollInterval sets the status poll interval.
func WithSessionPollInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		s.pollInterval = d
	}
}

// WithAutoCloseDelay overrides how long a settled sheet lingers.
func WithAutoCloseDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		s.autoClose = d
	}
}

// WithCopiedAckDelay overrides the copied-acknowledgement duration.
func WithCopiedAckDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		s.copiedAck = d
	}
}

// WithAfterFunc replaces the timer constructor, for tests.
func WithAfterFunc(after func(time.Duration, func()) *time.Timer) SessionOption {
	return func(s *Session) {
		s.after = after
	}
}

// WithOnClose registers a callback invoked whenever the session closes,
// including the post-settlement auto-close.
func WithOnClose(fn func()) SessionOption {
	return func(s *Session) {
		s.onClose = fn
	}
}

// NewSession opens a pledge sheet for the campaign identified by scope and
// key (an event id or a username). The session starts in the amount phase.
func NewSession(client Client, scope Scope, key string, opts ...SessionOption) *Session {
	s := &Session{
		client:       client,
		scope:        scope,
		key:          key,
		pollInterval: DefaultPollInterval,
		autoClose:    DefaultAutoCloseDelay,
		copiedAck:    DefaultCopiedAckDelay,
		after:        time.AfterFunc,
		state:        StateAmount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current flow phase.
func (s *Session) State() FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AmountSats returns the selected amount, or zero before selection.
func (s *Session) AmountSats() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amountSats
}

// PledgeID returns the id of the active pledge, if any.
func (s *Session) PledgeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pledgeID
}

// Invoice returns the active invoice string, if any.
func (s *Session) Invoice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoice
}

// SettledAt returns the settlement time once the pledge has settled.
func (s *Session) SettledAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settledAt
}

// Copied reports whether the copied acknowledgement is currently showing.
func (s *Session) Copied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copied
}

// SelectAmount picks one of the quick amounts. Only valid in the amount
// phase.
func (s *Session) SelectAmount(sats int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAmount {
		return fmt.Errorf("cannot select amount in %s state", s.state)
	}
	for _, quick := range QuickAmounts {
		if sats == quick {
			s.amountSats = sats
			return nil
		}
	}
	return fmt.Errorf("%d is not a quick amount", sats)
}

// CreatePledge submits the pledge intent and, on success, advances to the
// invoice phase and starts polling. On failure the session stays in the
// amount phase with the selection intact so the payer can try again.
func (s *Session) CreatePledge(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAmount {
		s.mu.Unlock()
		return fmt.Errorf("cannot create pledge in %s state", s.state)
	}
	if s.amountSats == 0 {
		s.mu.Unlock()
		return ErrAmountNotSelected
	}
	intent := PledgeIntent{
		Scope:      s.scope,
		AmountSats: s.amountSats,
	}
	if s.scope == ScopeProfile {
		intent.Username = s.key
	} else {
		intent.EventID = s.key
	}
	s.mu.Unlock()

	result, err := s.client.CreatePledge(ctx, intent)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAmount {
		// Closed or retried while the request was in flight.
		return nil
	}
	s.pledgeID = result.PledgeID
	s.invoice = result.Invoice
	s.state = StateInvoice

	// The session owns the poller's lifetime: Close and Retry cancel it.
	// Deriving from the caller's ctx would stop polling the moment a
	// request-scoped ctx ends, stranding the sheet in the invoice phase.
	pollCtx, cancel := context.WithCancel(context.Background())
	s.pollCancel = cancel
	poller := NewStatusPoller(s.client, result.PledgeID, WithPollInterval(s.pollInterval))
	go s.consume(poller.Watch(pollCtx))
	return nil
}

func (s *Session) consume(updates <-chan StatusUpdate) {
	for update := range updates {
		if update.Err != nil {
			continue
		}
		s.ApplyUpdate(update)
	}
}

// ApplyUpdate feeds one status observation into the state machine. Updates
// for a different pledge, or arriving outside the invoice phase, are
// ignored; duplicate settled deliveries settle exactly once.
func (s *Session) ApplyUpdate(update StatusUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInvoice || update.PledgeID != s.pledgeID {
		return
	}

	switch update.Status.Status {
	case StatusSettled:
		if s.settledHandled {
			return
		}
		s.settledHandled = true
		s.state = StateSettled
		s.settledAt = update.Status.SettledAt
		if s.cache != nil {
			s.cache.Invalidate(CampaignKey(s.scope, s.key), AggregateCampaignsKey)
		}
		s.closeTimer = s.after(s.autoClose, s.Close)
	case StatusExpired:
		s.state = StateExpired
	}
}

// CopyInvoice writes the invoice to the clipboard and shows the copied
// acknowledgement for a short while.
func (s *Session) CopyInvoice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInvoice {
		return fmt.Errorf("no invoice to copy in %s state", s.state)
	}
	if s.clipboard == nil {
		return errors.New("no clipboard configured")
	}
	if err := s.clipboard.WriteText(s.invoice); err != nil {
		return err
	}
	s.copied = true
	if s.copiedTimer != nil {
		s.copiedTimer.Stop()
	}
	s.copiedTimer = s.after(s.copiedAck, func() {
		s.mu.Lock()
		s.copied = false
		s.mu.Unlock()
	})
	return nil
}

// Retry abandons an expired pledge and returns to the amount phase. The
// next CreatePledge issues a brand-new pledge with a fresh invoice; the old
// pledge id is gone for good.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateExpired {
		return fmt.Errorf("cannot retry in %s state", s.state)
	}
	s.stopPollingLocked()
	s.pledgeID = ""
	s.invoice = ""
	s.settledHandled = false
	s.state = StateAmount
	return nil
}

// Close dismisses the sheet: polling stops, timers are cancelled, and all
// state resets so reopening starts at amount selection.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopPollingLocked()
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
	if s.copiedTimer != nil {
		s.copiedTimer.Stop()
		s.copiedTimer = nil
	}
	s.state = StateAmount
	s.amountSats = 0
	s.pledgeID = ""
	s.invoice = ""
	s.settledAt = nil
	s.settledHandled = false
	s.copied = false
	onClose := s.onClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

func (s *Session) stopPollingLocked() {
	if s.pollCancel != nil {
		s.pollCancel()
		s.pollCancel = nil
	}
}
