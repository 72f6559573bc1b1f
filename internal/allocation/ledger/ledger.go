// Package ledger maintains the hash-chained status history attached to an
// allocation. Each entry's hash covers the previous entry's hash, so altering
// any historical status invalidates every following hash deterministically.
// The chain is verifiable locally, independent of any external witness.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"lifebridge/internal/domain"
)

// VerificationStatus is the outcome of a chain walk.
type VerificationStatus string

const (
	StatusVerified VerificationStatus = "VERIFIED"
	StatusNoData   VerificationStatus = "NO_DATA"
	StatusTampered VerificationStatus = "TAMPERED"
)

// Verification reports the result of Verify. FailedAt carries the status label
// of the first mismatching entry when the chain is tampered.
type Verification struct {
	Status   VerificationStatus `json:"status"`
	FailedAt string             `json:"failedAt,omitempty"`
}

// entryPreimage is the deterministic serialization hashed for each entry.
// Field order is fixed; PreviousHash is null for the first entry; the
// timestamp is encoded as UTC RFC3339Nano so verification re-hashes the exact
// bytes the append produced.
type entryPreimage struct {
	AllocationID string  `json:"allocationId"`
	Status       string  `json:"status"`
	PreviousHash *string `json:"previousHash"`
	Timestamp    string  `json:"timestamp"`
}

// ComputeEntryHash returns the hex sha256 digest for one chain entry.
// previousHash must be empty for the first entry.
func ComputeEntryHash(allocationID string, status domain.AllocationStatus, previousHash string, ts time.Time) string {
	var prev *string
	if previousHash != "" {
		prev = &previousHash
	}
	raw, err := json.Marshal(entryPreimage{
		AllocationID: allocationID,
		Status:       string(status),
		PreviousHash: prev,
		Timestamp:    ts.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		// Marshalling a flat struct of strings cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Append chains a new entry onto the allocation's history and advances
// LastHash. The caller persists the whole document afterwards, so history and
// LastHash commit together or not at all.
func Append(alloc *domain.Allocation, status domain.AllocationStatus, witnessRef string, ts time.Time) domain.HistoryEntry {
	entry := domain.HistoryEntry{
		Status:     status,
		Hash:       ComputeEntryHash(alloc.ID, status, alloc.LastHash, ts),
		WitnessRef: witnessRef,
		Timestamp:  ts,
	}
	alloc.History = append(alloc.History, entry)
	alloc.LastHash = entry.Hash
	return entry
}

// Verify walks the history in order, recomputing each hash. It short-circuits
// at the first mismatch: once one entry diverges, the validity of everything
// after it is meaningless.
func Verify(alloc *domain.Allocation) Verification {
	if len(alloc.History) == 0 {
		return Verification{Status: StatusNoData}
	}
	previous := ""
	for _, entry := range alloc.History {
		recomputed := ComputeEntryHash(alloc.ID, entry.Status, previous, entry.Timestamp)
		if recomputed != entry.Hash {
			return Verification{Status: StatusTampered, FailedAt: string(entry.Status)}
		}
		previous = entry.Hash
	}
	if previous != alloc.LastHash {
		last := alloc.History[len(alloc.History)-1]
		return Verification{Status: StatusTampered, FailedAt: string(last.Status)}
	}
	return Verification{Status: StatusVerified}
}
