package consent

import (
	"context"
	"sync"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	consents map[string]*domain.Consent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{consents: make(map[string]*domain.Consent)}
}

func (s *InMemoryStore) Create(_ context.Context, c *domain.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.consents[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*domain.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.consents[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id string, status domain.ConsentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.consents[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.Status = status
	return nil
}

func (s *InMemoryStore) ListByDonor(_ context.Context, donorID string) ([]*domain.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*domain.Consent
	for _, c := range s.consents {
		if c.DonorID == donorID {
			cp := *c
			matched = append(matched, &cp)
		}
	}
	return matched, nil
}
