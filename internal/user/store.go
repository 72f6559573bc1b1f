// Package user owns registration, login, and user persistence.
package user

import (
	"context"

	"lifebridge/internal/domain"
)

type Store interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
