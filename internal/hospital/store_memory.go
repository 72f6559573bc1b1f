package hospital

import (
	"context"
	"sort"
	"sync"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	hospitals map[string]*domain.Hospital
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{hospitals: make(map[string]*domain.Hospital)}
}

func (s *InMemoryStore) Create(_ context.Context, h *domain.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *h
	s.hospitals[h.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hospitals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (s *InMemoryStore) GetByNameAddress(_ context.Context, name, address string) (*domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hospitals {
		if h.Name == name && h.Address == address {
			cp := *h
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]*domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Hospital, 0, len(s.hospitals))
	for _, h := range s.hospitals {
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
