// Package organ persists donated organs.
package organ

import (
	"context"

	"lifebridge/internal/domain"
)

// AvailableFilter selects organs a doctor can match against.
type AvailableFilter struct {
	Type       domain.OrganType
	BloodGroup domain.BloodGroup
}

type Store interface {
	Create(ctx context.Context, o *domain.Organ) error
	Get(ctx context.Context, id string) (*domain.Organ, error)
	Update(ctx context.Context, o *domain.Organ) error
	ListAvailable(ctx context.Context, filter AvailableFilter) ([]*domain.Organ, error)
	ListByDonor(ctx context.Context, donorID string) ([]*domain.Organ, error)
}
