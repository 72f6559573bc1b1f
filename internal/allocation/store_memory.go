package allocation

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
)

// InMemoryStore keeps allocations in a map. The version check under the write
// lock gives the same compare-and-swap guarantee the postgres store gets from
// its conditional UPDATE.
type InMemoryStore struct {
	mu          sync.RWMutex
	allocations map[string]*domain.Allocation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{allocations: make(map[string]*domain.Allocation)}
}

func clone(a *domain.Allocation) *domain.Allocation {
	cp := *a
	cp.History = append([]domain.HistoryEntry(nil), a.History...)
	if a.CompletionTime != nil {
		t := *a.CompletionTime
		cp.CompletionTime = &t
	}
	return &cp
}

func (s *InMemoryStore) Create(_ context.Context, alloc *domain.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.allocations[alloc.ID]; exists {
		return sentinel.ErrConflict
	}
	now := time.Now()
	alloc.CreatedAt = now
	alloc.UpdatedAt = now
	alloc.Version = 1
	s.allocations[alloc.ID] = clone(alloc)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*domain.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.allocations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(stored), nil
}

func (s *InMemoryStore) Update(_ context.Context, alloc *domain.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.allocations[alloc.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != alloc.Version {
		return sentinel.ErrConflict
	}
	alloc.Version++
	alloc.UpdatedAt = time.Now()
	s.allocations[alloc.ID] = clone(alloc)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, page, pageSize int, filter ListFilter) (*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.Allocation, 0, len(s.allocations))
	for _, a := range s.allocations {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		matched = append(matched, clone(a))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	pages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &Page{
		Allocations: matched[start:end],
		Total:       total,
		PageNumber:  page,
		PageSize:    pageSize,
		Pages:       pages,
	}, nil
}

func (s *InMemoryStore) ListByHospital(_ context.Context, hospitalID string, filter ListFilter) ([]*domain.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*domain.Allocation
	for _, a := range s.allocations {
		if a.HospitalID != hospitalID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		matched = append(matched, clone(a))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}
