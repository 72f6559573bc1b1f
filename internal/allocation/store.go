package allocation

import (
	"context"

	"lifebridge/internal/domain"
)

// ListFilter narrows List to an exact status match when Status is non-empty.
type ListFilter struct {
	Status domain.AllocationStatus
}

// Page is one page of allocations, newest first.
type Page struct {
	Allocations []*domain.Allocation
	Total       int
	PageNumber  int
	PageSize    int
	Pages       int
}

// Store persists allocations. Update is a per-document compare-and-swap on
// Version: implementations must reject a write whose expected version no
// longer matches with sentinel.ErrConflict, which is what keeps racing status
// changes from corrupting the hash chain.
type Store interface {
	Create(ctx context.Context, alloc *domain.Allocation) error
	Get(ctx context.Context, id string) (*domain.Allocation, error)
	// Update persists alloc if the stored version equals alloc.Version, then
	// increments the version. Returns sentinel.ErrConflict on a lost race and
	// sentinel.ErrNotFound when the document is missing.
	Update(ctx context.Context, alloc *domain.Allocation) error
	List(ctx context.Context, page, pageSize int, filter ListFilter) (*Page, error)
	ListByHospital(ctx context.Context, hospitalID string, filter ListFilter) ([]*domain.Allocation, error)
}
