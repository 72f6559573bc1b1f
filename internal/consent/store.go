// Package consent persists donor consent records. A consent is created once
// per donation confirmation and immutable afterwards except for its status.
package consent

import (
	"context"

	"lifebridge/internal/domain"
)

type Store interface {
	Create(ctx context.Context, c *domain.Consent) error
	Get(ctx context.Context, id string) (*domain.Consent, error)
	UpdateStatus(ctx context.Context, id string, status domain.ConsentStatus) error
	ListByDonor(ctx context.Context, donorID string) ([]*domain.Consent, error)
}
