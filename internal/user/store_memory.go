package user

import (
	"context"
	"sync"
	"time"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*domain.User
	byEmail map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func clone(u *domain.User) *domain.User {
	cp := *u
	if u.Location != nil {
		loc := *u.Location
		cp.Location = &loc
	}
	return &cp
}

func (s *InMemoryStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[u.Email]; taken {
		return sentinel.ErrConflict
	}
	u.CreatedAt = time.Now()
	s.users[u.ID] = clone(u)
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(u), nil
}

func (s *InMemoryStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.users[id]), nil
}
