package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifebridge/internal/domain"
)

func chainOf(t *testing.T, statuses ...domain.AllocationStatus) *domain.Allocation {
	t.Helper()
	alloc := &domain.Allocation{ID: "alloc-1"}
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	for i, s := range statuses {
		Append(alloc, s, "", ts.Add(time.Duration(i)*time.Minute))
	}
	return alloc
}

func TestComputeEntryHash_Deterministic(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 600700800, time.UTC)
	h1 := ComputeEntryHash("a1", domain.AllocationMatched, "prev", ts)
	h2 := ComputeEntryHash("a1", domain.AllocationMatched, "prev", ts)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	// Any field change moves the digest.
	assert.NotEqual(t, h1, ComputeEntryHash("a2", domain.AllocationMatched, "prev", ts))
	assert.NotEqual(t, h1, ComputeEntryHash("a1", domain.AllocationCompleted, "prev", ts))
	assert.NotEqual(t, h1, ComputeEntryHash("a1", domain.AllocationMatched, "", ts))
	assert.NotEqual(t, h1, ComputeEntryHash("a1", domain.AllocationMatched, "prev", ts.Add(time.Nanosecond)))
}

func TestAppend_ChainsOnLastHash(t *testing.T) {
	alloc := chainOf(t, domain.AllocationPendingConfirmation, domain.AllocationMatched)
	require.Len(t, alloc.History, 2)
	assert.Equal(t, alloc.History[1].Hash, alloc.LastHash)

	first := alloc.History[0]
	recomputed := ComputeEntryHash(alloc.ID, first.Status, "", first.Timestamp)
	assert.Equal(t, first.Hash, recomputed, "first entry hashes with a null previous hash")

	second := alloc.History[1]
	recomputed = ComputeEntryHash(alloc.ID, second.Status, first.Hash, second.Timestamp)
	assert.Equal(t, second.Hash, recomputed)
}

func TestVerify_RoundTrip(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d entries", n), func(t *testing.T) {
			statuses := make([]domain.AllocationStatus, 0, n)
			statuses = append(statuses, domain.AllocationPendingConfirmation)
			for len(statuses) < n {
				statuses = append(statuses, domain.AllocationMatched)
			}
			alloc := chainOf(t, statuses...)
			result := Verify(alloc)
			assert.Equal(t, StatusVerified, result.Status)
			assert.Empty(t, result.FailedAt)
		})
	}
}

func TestVerify_EmptyHistory(t *testing.T) {
	result := Verify(&domain.Allocation{ID: "alloc-1"})
	assert.Equal(t, StatusNoData, result.Status)
}

func TestVerify_TamperDetection(t *testing.T) {
	for tampered := 0; tampered < 3; tampered++ {
		t.Run(fmt.Sprintf("entry %d mutated", tampered), func(t *testing.T) {
			alloc := chainOf(t,
				domain.AllocationPendingConfirmation,
				domain.AllocationMatched,
				domain.AllocationCompleted,
			)
			original := alloc.History[tampered].Status
			alloc.History[tampered].Status = domain.AllocationFailed

			result := Verify(alloc)
			require.Equal(t, StatusTampered, result.Status)
			// FailedAt reports the entry as stored, which now carries the
			// mutated label at the point of first divergence.
			assert.Equal(t, string(domain.AllocationFailed), result.FailedAt)
			assert.NotEqual(t, string(original), result.FailedAt)
		})
	}
}

func TestVerify_LastHashMismatch(t *testing.T) {
	alloc := chainOf(t, domain.AllocationPendingConfirmation, domain.AllocationMatched)
	alloc.LastHash = "0000"
	result := Verify(alloc)
	require.Equal(t, StatusTampered, result.Status)
	assert.Equal(t, string(domain.AllocationMatched), result.FailedAt)
}
