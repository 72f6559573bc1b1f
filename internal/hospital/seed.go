package hospital

import (
	"context"

	"github.com/google/uuid"

	"lifebridge/internal/domain"
)

// SeedDevelopment inserts a few well-known hospitals so doctors can register
// against an empty in-memory store without creating one first.
func SeedDevelopment(ctx context.Context, store Store) error {
	for _, h := range []domain.Hospital{
		{Name: "City General Hospital", Address: "100 Main Street, Springfield"},
		{Name: "St. Mary Medical Center", Address: "42 River Road, Riverside"},
		{Name: "Northside Transplant Institute", Address: "7 Hill Avenue, Northside"},
	} {
		h.ID = uuid.NewString()
		if err := store.Create(ctx, &h); err != nil {
			return err
		}
	}
	return nil
}
