package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
)

type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]*domain.Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{notifications: make(map[string]*domain.Notification)}
}

func (s *InMemoryStore) Create(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return sentinel.ErrNotFound
	}
	n.Read = true
	return nil
}
