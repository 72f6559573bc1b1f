// Package hospital owns the registry of care sites doctors belong to.
package hospital

import (
	"context"

	"lifebridge/internal/domain"
)

type Store interface {
	Create(ctx context.Context, h *domain.Hospital) error
	Get(ctx context.Context, id string) (*domain.Hospital, error)
	// GetByNameAddress resolves a hospital by its exact name and address
	// pair; registration uses it to bind doctors to an existing site.
	GetByNameAddress(ctx context.Context, name, address string) (*domain.Hospital, error)
	List(ctx context.Context) ([]*domain.Hospital, error)
}
