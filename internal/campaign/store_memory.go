package campaign

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps development and unit-test setups lightweight. It
// intentionally favors clarity over performance.
type InMemoryStore struct {
	mu        sync.RWMutex
	campaigns map[string]Campaign
	feeds     map[string][]FeedEntry
	clock     func() time.Time
}

// InMemoryStoreOption configures an InMemoryStore.
type InMemoryStoreOption func(*InMemoryStore)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemoryStore(opts ...InMemoryStoreOption) *InMemoryStore {
	s := &InMemoryStore{
		campaigns: make(map[string]Campaign),
		feeds:     make(map[string][]FeedEntry),
		clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *InMemoryStore) Create(_ context.Context, c Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.campaigns[id]; ok {
		return c, nil
	}
	return Campaign{}, ErrNotFound
}

func (s *InMemoryStore) FindByEvent(_ context.Context, eventID string) (Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.campaigns {
		if c.Scope == ScopeEvent && c.EventID != nil && *c.EventID == eventID {
			return c, nil
		}
	}
	return Campaign{}, ErrNotFound
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.campaigns {
		if c.Scope == ScopeProfile && c.UserID == username {
			return c, nil
		}
	}
	return Campaign{}, ErrNotFound
}

func (s *InMemoryStore) ApplySettlement(_ context.Context, campaignID string, amountSats int64, entry FeedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return ErrNotFound
	}
	c.RaisedSats += amountSats
	c.PledgeCount++
	c.UpdatedAt = s.clock()
	s.campaigns[campaignID] = c
	s.feeds[campaignID] = append([]FeedEntry{entry}, s.feeds[campaignID]...)
	return nil
}

func (s *InMemoryStore) ListFeed(_ context.Context, campaignID string, limit int) ([]FeedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.campaigns[campaignID]; !ok {
		return nil, ErrNotFound
	}
	feed := s.feeds[campaignID]
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return append([]FeedEntry{}, feed...), nil
}
