package organ

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	organs map[string]*domain.Organ
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{organs: make(map[string]*domain.Organ)}
}

func clone(o *domain.Organ) *domain.Organ {
	cp := *o
	if o.Location != nil {
		loc := *o.Location
		cp.Location = &loc
	}
	return &cp
}

func (s *InMemoryStore) Create(_ context.Context, o *domain.Organ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	s.organs[o.ID] = clone(o)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*domain.Organ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(o), nil
}

func (s *InMemoryStore) Update(_ context.Context, o *domain.Organ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organs[o.ID]; !ok {
		return sentinel.ErrNotFound
	}
	o.UpdatedAt = time.Now()
	s.organs[o.ID] = clone(o)
	return nil
}

func (s *InMemoryStore) ListAvailable(_ context.Context, filter AvailableFilter) ([]*domain.Organ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*domain.Organ
	for _, o := range s.organs {
		if o.Status != domain.OrganAvailable {
			continue
		}
		if o.Type != filter.Type || o.BloodGroup != filter.BloodGroup {
			continue
		}
		matched = append(matched, clone(o))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

func (s *InMemoryStore) ListByDonor(_ context.Context, donorID string) ([]*domain.Organ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*domain.Organ
	for _, o := range s.organs {
		if o.DonorID == donorID {
			matched = append(matched, clone(o))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}
