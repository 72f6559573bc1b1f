package allocation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifebridge/internal/allocation/ledger"
	"lifebridge/internal/domain"
	"lifebridge/internal/hospital"
	"lifebridge/internal/organ"
	"lifebridge/internal/platform/metrics"
	"lifebridge/internal/request"
	"lifebridge/internal/user"
	"lifebridge/internal/witness"
	dErrors "lifebridge/pkg/domainerrors"
	"lifebridge/pkg/sentinel"
)

var testMetrics = metrics.New()

func newTestService(store Store) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(
		store, witness.Noop{},
		organ.NewInMemoryStore(), request.NewInMemoryStore(),
		user.NewInMemoryStore(), hospital.NewInMemoryStore(),
		logger, testMetrics,
	)
}

func create(t *testing.T, svc *Service) *domain.Allocation {
	t.Helper()
	res, err := svc.Create(context.Background(), CreateInput{
		OrganID:      "organ-1",
		RequestID:    "request-1",
		HospitalID:   "hospital-1",
		MatchScore:   82,
		DispatcherID: "doctor-1",
	})
	require.NoError(t, err)
	return res.Allocation
}

func TestCreateOpensChain(t *testing.T) {
	svc := newTestService(NewInMemoryStore())
	alloc := create(t, svc)

	assert.Equal(t, domain.AllocationPendingConfirmation, alloc.Status)
	require.Len(t, alloc.History, 1)
	assert.Equal(t, domain.AllocationPendingConfirmation, alloc.History[0].Status)
	assert.NotEmpty(t, alloc.History[0].Hash)
	assert.Equal(t, alloc.History[0].Hash, alloc.LastHash)
	assert.False(t, alloc.DispatchTime.IsZero())
}

func TestUpdateStatusExtendsChain(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store)
	alloc := create(t, svc)

	res, err := svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
		ActorID:      "donor-1",
	})
	require.NoError(t, err)
	updated := res.Allocation

	assert.Equal(t, domain.AllocationMatched, updated.Status)
	require.Len(t, updated.History, 2)
	assert.Equal(t, updated.History[1].Hash, updated.LastHash)

	// Each hash commits to its predecessor.
	recomputed := ledger.ComputeEntryHash(updated.ID, domain.AllocationMatched,
		updated.History[0].Hash, updated.History[1].Timestamp)
	assert.Equal(t, recomputed, updated.History[1].Hash)

	// Repeating the same transition is rejected by the state machine.
	_, err = svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidTransition))
}

func TestCompleteAndTerminality(t *testing.T) {
	svc := newTestService(NewInMemoryStore())
	alloc := create(t, svc)

	_, err := svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
	})
	require.NoError(t, err)

	res, err := svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationCompleted,
		ActorID:      "doctor-1",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Allocation.CompletionTime)
	assert.Equal(t, "doctor-1", res.Allocation.CompletedBy)

	// COMPLETED is terminal.
	_, err = svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationFailed,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidTransition))
}

func TestFailRecordsReason(t *testing.T) {
	svc := newTestService(NewInMemoryStore())
	alloc := create(t, svc)

	_, err := svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
	})
	require.NoError(t, err)

	res, err := svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID:  alloc.ID,
		NewStatus:     domain.AllocationFailed,
		FailureReason: "organ no longer viable",
	})
	require.NoError(t, err)
	assert.Equal(t, "organ no longer viable", res.Allocation.FailureReason)
	require.NotNil(t, res.Allocation.CompletionTime)
}

func TestUnwitnessedWritesAreDegradedNotFailed(t *testing.T) {
	svc := newTestService(NewInMemoryStore())

	res, err := svc.Create(context.Background(), CreateInput{
		OrganID: "organ-1", RequestID: "request-1", HospitalID: "hospital-1",
	})
	require.NoError(t, err)
	assert.False(t, res.BlockchainRecorded)
	assert.Empty(t, res.Allocation.History[0].WitnessRef)
}

func TestVerify(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store)
	alloc := create(t, svc)

	_, err := svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
	})
	require.NoError(t, err)

	v, err := svc.Verify(context.Background(), alloc.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusVerified, v.Status)

	// Tamper with the stored first entry and verify again.
	stored, err := store.Get(context.Background(), alloc.ID)
	require.NoError(t, err)
	stored.History[0].Status = domain.AllocationMatched
	require.NoError(t, store.Update(context.Background(), stored))

	v, err = svc.Verify(context.Background(), alloc.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusTampered, v.Status)
}

func TestListPagination(t *testing.T) {
	svc := newTestService(NewInMemoryStore())

	for i := 0; i < 12; i++ {
		_, err := svc.Create(context.Background(), CreateInput{
			OrganID:    fmt.Sprintf("organ-%d", i),
			RequestID:  fmt.Sprintf("request-%d", i),
			HospitalID: "hospital-1",
		})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	page1, err := svc.List(context.Background(), 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, page1.PageNumber, "page defaults to 1")
	assert.Equal(t, 10, page1.PageSize, "page size defaults to 10")
	assert.Equal(t, 12, page1.Total)
	assert.Equal(t, 2, page1.Pages)
	assert.Len(t, page1.Allocations, 10)

	page2, err := svc.List(context.Background(), 2, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 3, page2.Pages)
	require.Len(t, page2.Allocations, 5)

	// Newest first: page 2 of 5 holds the 6th through 10th most recent.
	assert.Equal(t, "organ-6", page2.Allocations[0].OrganID)
	assert.Equal(t, "organ-2", page2.Allocations[4].OrganID)
}

func TestListFiltersByStatus(t *testing.T) {
	svc := newTestService(NewInMemoryStore())
	alloc := create(t, svc)
	create(t, svc)

	_, err := svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
	})
	require.NoError(t, err)

	matched, err := svc.List(context.Background(), 1, 10, domain.AllocationMatched)
	require.NoError(t, err)
	require.Len(t, matched.Allocations, 1)
	assert.Equal(t, alloc.ID, matched.Allocations[0].ID)
}

// conflictingStore makes the first n Update calls lose the compare-and-swap.
type conflictingStore struct {
	Store
	remaining int
}

func (s *conflictingStore) Update(ctx context.Context, alloc *domain.Allocation) error {
	if s.remaining > 0 {
		s.remaining--
		return sentinel.ErrConflict
	}
	return s.Store.Update(ctx, alloc)
}

func TestUpdateStatusRetriesLostRace(t *testing.T) {
	inner := NewInMemoryStore()
	store := &conflictingStore{Store: inner, remaining: 1}
	svc := newTestService(store)
	alloc := create(t, svc)

	res, err := svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AllocationMatched, res.Allocation.Status)
	require.Len(t, res.Allocation.History, 2, "the losing attempt must not leave a chain entry behind")
}

func TestUpdateStatusGivesUpAfterRepeatedConflicts(t *testing.T) {
	inner := NewInMemoryStore()
	store := &conflictingStore{Store: inner, remaining: 99}
	svc := newTestService(store)
	alloc := create(t, svc)

	_, err := svc.UpdateStatus(context.Background(), UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}
