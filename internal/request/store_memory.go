package request

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*domain.Request
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]*domain.Request)}
}

func clone(r *domain.Request) *domain.Request {
	cp := *r
	if r.Location != nil {
		loc := *r.Location
		cp.Location = &loc
	}
	return &cp
}

func (s *InMemoryStore) Create(_ context.Context, r *domain.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.WaitingSince.IsZero() {
		r.WaitingSince = now
	}
	s.requests[r.ID] = clone(r)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemoryStore) Update(_ context.Context, r *domain.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	r.UpdatedAt = time.Now()
	s.requests[r.ID] = clone(r)
	return nil
}

func (s *InMemoryStore) ListWaiting(_ context.Context, filter WaitingFilter) ([]*domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*domain.Request
	for _, r := range s.requests {
		if r.Status != domain.RequestWaiting {
			continue
		}
		if r.Type != filter.Type || r.BloodGroup != filter.BloodGroup {
			continue
		}
		matched = append(matched, clone(r))
	}
	// Longest-waiting first so wait time acts as the priority tiebreak.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].WaitingSince.Before(matched[j].WaitingSince)
	})
	return matched, nil
}

func (s *InMemoryStore) ListByDoctor(_ context.Context, doctorID string) ([]*domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*domain.Request
	for _, r := range s.requests {
		if r.DoctorID == doctorID {
			matched = append(matched, clone(r))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}
