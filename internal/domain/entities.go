// Package domain holds the core entities shared across services. Entities are
// plain structs keyed by opaque string identities; stores own persistence and
// services own every status transition.
package domain

import "time"

// Location is a WGS84 point.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Organ is a donated unit.
//
// Invariants enforced by the workflow services: status AVAILABLE implies
// ConsentID is set and that consent is VERIFIED; status RESERVED or ALLOCATED
// implies AllocationID points at a non-terminal allocation.
type Organ struct {
	ID           string      `json:"id"`
	Type         OrganType   `json:"organType"`
	BloodGroup   BloodGroup  `json:"bloodGroup"`
	Location     *Location   `json:"location,omitempty"`
	DonorID      string      `json:"donorId"`
	HospitalID   string      `json:"hospitalId,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Address      string      `json:"address,omitempty"`
	ConsentID    string      `json:"consentId,omitempty"`
	AllocationID string      `json:"allocationId,omitempty"`
	Status       OrganStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Request is an organ need registered by a doctor on behalf of a patient.
type Request struct {
	ID           string        `json:"id"`
	Type         OrganType     `json:"organType"`
	BloodGroup   BloodGroup    `json:"bloodGroup"`
	HospitalID   string        `json:"hospitalId,omitempty"`
	DoctorID     string        `json:"doctorId"`
	DoctorName   string        `json:"doctorName,omitempty"`
	Address      string        `json:"address,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	UrgencyScore int           `json:"urgencyScore"` // 1..10, default 5
	WaitingSince time.Time     `json:"waitingSince"`
	Location     *Location     `json:"location,omitempty"`
	AllocationID string        `json:"allocationId,omitempty"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Consent is a donor's recorded authorization. Immutable after creation except
// for Status.
type Consent struct {
	ID       string        `json:"id"`
	DonorID  string        `json:"donorId"`
	Type     ConsentType   `json:"consentType"`
	Status   ConsentStatus `json:"status"`
	SignedAt time.Time     `json:"signedAt"`
}

// HistoryEntry is one link of an allocation's hash chain. Entries are
// append-only and never mutated or removed.
type HistoryEntry struct {
	Status     AllocationStatus `json:"status"`
	Hash       string           `json:"hash"`
	WitnessRef string           `json:"witnessRef,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Allocation ties one donated organ to one request.
//
// LastHash always equals the hash of the last history entry, or "" while the
// history is empty. Version backs the store's per-document compare-and-swap.
type Allocation struct {
	ID             string           `json:"id"`
	OrganID        string           `json:"organId"`
	RequestID      string           `json:"requestId"`
	HospitalID     string           `json:"hospitalId"`
	MatchScore     int              `json:"matchScore"`
	Status         AllocationStatus `json:"status"`
	DispatchTime   time.Time        `json:"dispatchTime"`
	CompletionTime *time.Time       `json:"completionTime,omitempty"`
	FailureReason  string           `json:"failureReason,omitempty"`
	DispatchedBy   string           `json:"dispatchedBy,omitempty"`
	CompletedBy    string           `json:"completedBy,omitempty"`
	LastHash       string           `json:"lastHash,omitempty"`
	History        []HistoryEntry   `json:"history"`
	Version        int64            `json:"-"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// User is an acting party. PasswordHash is a bcrypt digest; plaintext is never
// stored.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	HospitalID   string    `json:"hospitalId,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Location     *Location `json:"location,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Notification is a message to a user about an allocation. Creating one never
// mutates allocation state.
type Notification struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Message      string    `json:"message"`
	AllocationID string    `json:"allocationId,omitempty"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Hospital is a care site doctors belong to.
type Hospital struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}
