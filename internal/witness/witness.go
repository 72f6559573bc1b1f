// Package witness forwards allocation chain entries to an external immutable
// log as a secondary integrity check. The system is correct with no witness at
// all: every failure path degrades to an unwitnessed receipt instead of an
// error, and callers only surface the degraded flag.
package witness

import (
	"context"
	"time"
)

// Receipt reports the outcome of a witness write. Witnessed=false means the
// entry was not externally recorded; that is a degraded mode, not an error.
type Receipt struct {
	Witnessed bool   `json:"witnessed"`
	Ref       string `json:"ref,omitempty"`
	TxRef     string `json:"txRef,omitempty"`
}

// Record is an externally witnessed chain entry as read back from the log.
type Record struct {
	AllocationID string    `json:"allocationId"`
	DataHash     string    `json:"dataHash"`
	Status       string    `json:"status"`
	PreviousHash string    `json:"previousHash,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Ref          string    `json:"ref,omitempty"`
}

// Witness is the external audit log contract. Writes are fire-and-forget
// relative to local correctness; reads return empty values when the log is
// unavailable, never an error a caller must handle.
type Witness interface {
	RecordEntry(ctx context.Context, allocationID, dataHash, status, previousHash string) Receipt
	UpdateEntry(ctx context.Context, allocationID, dataHash, status, previousHash string) Receipt
	GetRecord(ctx context.Context, allocationID string) *Record
	GetHistory(ctx context.Context, allocationID string) []Record
	TotalCount(ctx context.Context) int64
	Configured() bool
}

// Noop is the unconfigured witness. It performs zero I/O.
type Noop struct{}

func (Noop) RecordEntry(context.Context, string, string, string, string) Receipt { return Receipt{} }
func (Noop) UpdateEntry(context.Context, string, string, string, string) Receipt { return Receipt{} }
func (Noop) GetRecord(context.Context, string) *Record                           { return nil }
func (Noop) GetHistory(context.Context, string) []Record                         { return nil }
func (Noop) TotalCount(context.Context) int64                                    { return 0 }
func (Noop) Configured() bool                                                    { return false }
