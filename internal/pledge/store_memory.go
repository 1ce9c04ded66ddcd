package pledge

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore backs development and unit tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	pledges map[string]Pledge
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{pledges: make(map[string]Pledge)}
}

func (s *InMemoryStore) Create(_ context.Context, p Pledge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pledges[p.ID] = p
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Pledge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.pledges[id]; ok {
		return p, nil
	}
	return Pledge{}, ErrNotFound
}

func (s *InMemoryStore) ListPending(_ context.Context, limit int) ([]Pledge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []Pledge
	for _, p := range s.pledges {
		if p.Status == StatusPending {
			pending = append(pending, p)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *InMemoryStore) MarkSettled(_ context.Context, id string, settledAt time.Time) (Pledge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pledges[id]
	if !ok {
		return Pledge{}, false, ErrNotFound
	}
	if p.Status != StatusPending {
		return p, false, nil
	}
	p.Status = StatusSettled
	p.SettledAt = &settledAt
	s.pledges[id] = p
	return p, true, nil
}

func (s *InMemoryStore) MarkExpired(_ context.Context, id string) (Pledge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pledges[id]
	if !ok {
		return Pledge{}, false, ErrNotFound
	}
	if p.Status != StatusPending {
		return p, false, nil
	}
	p.Status = StatusExpired
	s.pledges[id] = p
	return p, true, nil
}
