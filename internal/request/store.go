// Package request persists organ requests.
package request

import (
	"context"

	"lifebridge/internal/domain"
)

// WaitingFilter selects open requests a donor can browse.
type WaitingFilter struct {
	Type       domain.OrganType
	BloodGroup domain.BloodGroup
}

type Store interface {
	Create(ctx context.Context, r *domain.Request) error
	Get(ctx context.Context, id string) (*domain.Request, error)
	Update(ctx context.Context, r *domain.Request) error
	ListWaiting(ctx context.Context, filter WaitingFilter) ([]*domain.Request, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*domain.Request, error)
}
