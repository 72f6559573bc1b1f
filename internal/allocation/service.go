// Package allocation owns the allocation lifecycle. It is the only writer of
// allocation status, and it routes every transition through the state machine
// and onto the hash chain before persisting.
package allocation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lifebridge/internal/allocation/ledger"
	"lifebridge/internal/allocation/state"
	"lifebridge/internal/domain"
	"lifebridge/internal/platform/metrics"
	"lifebridge/internal/witness"
	dErrors "lifebridge/pkg/domainerrors"
	"lifebridge/pkg/sentinel"
)

// casAttempts bounds how often a status write retries after losing the
// compare-and-swap. The re-validation after a lost race almost always turns
// the retry into an invalid_transition instead.
const casAttempts = 2

type OrganReader interface {
	Get(ctx context.Context, id string) (*domain.Organ, error)
}

type RequestReader interface {
	Get(ctx context.Context, id string) (*domain.Request, error)
}

type UserReader interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

type HospitalReader interface {
	Get(ctx context.Context, id string) (*domain.Hospital, error)
}

// Service orchestrates allocation state, the integrity ledger, and the
// external witness. The witness is constructor-injected, never ambient.
type Service struct {
	store     Store
	witness   witness.Witness
	organs    OrganReader
	requests  RequestReader
	users     UserReader
	hospitals HospitalReader
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

func NewService(
	store Store,
	w witness.Witness,
	organs OrganReader,
	requests RequestReader,
	users UserReader,
	hospitals HospitalReader,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:     store,
		witness:   w,
		organs:    organs,
		requests:  requests,
		users:     users,
		hospitals: hospitals,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("lifebridge/allocation"),
		now:       time.Now,
	}
}

// CreateInput names the fields required to open an allocation.
type CreateInput struct {
	OrganID      string
	RequestID    string
	HospitalID   string
	MatchScore   int
	DispatcherID string
}

// Result pairs an allocation with the witness outcome of the write that
// produced it. BlockchainRecorded=false means the system is running in
// degraded-audit mode for this entry, not that the write failed.
type Result struct {
	Allocation         *domain.Allocation
	BlockchainRecorded bool
}

// Create opens an allocation in PENDING_CONFIRMATION with its first ledger
// entry. Organ and request linkage is the accepting workflow's concern.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "allocation.Create")
	defer span.End()

	if in.OrganID == "" || in.RequestID == "" || in.HospitalID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "organId, requestId and hospitalId are required")
	}

	now := s.now()
	alloc := &domain.Allocation{
		ID:           uuid.NewString(),
		OrganID:      in.OrganID,
		RequestID:    in.RequestID,
		HospitalID:   in.HospitalID,
		MatchScore:   in.MatchScore,
		Status:       domain.AllocationPendingConfirmation,
		DispatchTime: now,
		DispatchedBy: in.DispatcherID,
	}
	span.SetAttributes(attribute.String("allocation.id", alloc.ID))

	hash := ledger.ComputeEntryHash(alloc.ID, alloc.Status, "", now)
	receipt := s.witness.RecordEntry(ctx, alloc.ID, hash, string(alloc.Status), "")
	if !receipt.Witnessed {
		s.metrics.WitnessFailures.Inc()
	}
	ledger.Append(alloc, alloc.Status, receipt.Ref, now)

	if err := s.store.Create(ctx, alloc); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create allocation", err)
	}

	s.metrics.AllocationsCreated.Inc()
	s.logger.InfoContext(ctx, "allocation created",
		"allocation_id", alloc.ID,
		"organ_id", alloc.OrganID,
		"request_id", alloc.RequestID,
		"witnessed", receipt.Witnessed,
	)
	return &Result{Allocation: alloc, BlockchainRecorded: receipt.Witnessed}, nil
}

// UpdateInput drives one status transition.
type UpdateInput struct {
	AllocationID  string
	NewStatus     domain.AllocationStatus
	ActorID       string
	FailureReason string
}

// UpdateStatus validates and applies one transition, chains it, and persists
// under compare-and-swap. A caller racing another status change observes the
// now-invalid current status and fails with invalid_transition.
func (s *Service) UpdateStatus(ctx context.Context, in UpdateInput) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "allocation.UpdateStatus",
		trace.WithAttributes(
			attribute.String("allocation.id", in.AllocationID),
			attribute.String("allocation.next_status", string(in.NewStatus)),
		))
	defer span.End()

	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		alloc, err := s.load(ctx, in.AllocationID)
		if err != nil {
			return nil, err
		}

		if err := state.ValidateTransition(alloc.Status, in.NewStatus); err != nil {
			return nil, err
		}

		now := s.now()
		previousHash := alloc.LastHash
		alloc.Status = in.NewStatus
		switch in.NewStatus {
		case domain.AllocationCompleted:
			alloc.CompletionTime = &now
			alloc.CompletedBy = in.ActorID
		case domain.AllocationFailed:
			alloc.CompletionTime = &now
			alloc.FailureReason = in.FailureReason
		}

		hash := ledger.ComputeEntryHash(alloc.ID, in.NewStatus, previousHash, now)
		receipt := s.witness.UpdateEntry(ctx, alloc.ID, hash, string(in.NewStatus), previousHash)
		if !receipt.Witnessed {
			s.metrics.WitnessFailures.Inc()
		}
		ledger.Append(alloc, in.NewStatus, receipt.Ref, now)

		err = s.store.Update(ctx, alloc)
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the race; re-read and re-validate against the new truth.
			lastErr = err
			continue
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "allocation not found")
		}
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to update allocation", err)
		}

		s.metrics.StatusTransitions.WithLabelValues(string(in.NewStatus)).Inc()
		s.logger.InfoContext(ctx, "allocation status updated",
			"allocation_id", alloc.ID,
			"status", in.NewStatus,
			"witnessed", receipt.Witnessed,
		)
		return &Result{Allocation: alloc, BlockchainRecorded: receipt.Witnessed}, nil
	}
	return nil, dErrors.Wrap(dErrors.CodeConflict, "allocation update kept losing to concurrent writers", lastErr)
}

func (s *Service) load(ctx context.Context, id string) (*domain.Allocation, error) {
	alloc, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "allocation not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load allocation", err)
	}
	return alloc, nil
}

// Detail is an allocation with relations expanded and the best-effort witness
// read-back. Missing relations and an unreachable witness leave nil fields.
type Detail struct {
	Allocation    *domain.Allocation
	Organ         *domain.Organ
	Request       *domain.Request
	Hospital      *domain.Hospital
	DispatchedBy  *domain.User
	CompletedBy   *domain.User
	WitnessRecord *witness.Record
}

// Get loads an allocation with full relation expansion. The witness read never
// blocks the response beyond its own timeout.
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	alloc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Allocation: alloc}
	if organ, err := s.organs.Get(ctx, alloc.OrganID); err == nil {
		detail.Organ = organ
	}
	if request, err := s.requests.Get(ctx, alloc.RequestID); err == nil {
		detail.Request = request
	}
	if hospital, err := s.hospitals.Get(ctx, alloc.HospitalID); err == nil {
		detail.Hospital = hospital
	}
	if alloc.DispatchedBy != "" {
		if u, err := s.users.Get(ctx, alloc.DispatchedBy); err == nil {
			detail.DispatchedBy = u
		}
	}
	if alloc.CompletedBy != "" {
		if u, err := s.users.Get(ctx, alloc.CompletedBy); err == nil {
			detail.CompletedBy = u
		}
	}
	if s.witness.Configured() {
		detail.WitnessRecord = s.witness.GetRecord(ctx, id)
	}
	return detail, nil
}

// HistoryResult pairs the local chain with the external witness history.
type HistoryResult struct {
	Local   []domain.HistoryEntry
	Witness []witness.Record
}

// History returns the local chain plus whatever the witness can report.
func (s *Service) History(ctx context.Context, id string) (*HistoryResult, error) {
	alloc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &HistoryResult{Local: alloc.History}
	if s.witness.Configured() {
		result.Witness = s.witness.GetHistory(ctx, id)
	}
	return result, nil
}

// List returns a page of allocations, newest first. page and pageSize default
// to 1 and 10.
func (s *Service) List(ctx context.Context, page, pageSize int, status domain.AllocationStatus) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	result, err := s.store.List(ctx, page, pageSize, ListFilter{Status: status})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list allocations", err)
	}
	return result, nil
}

// ListByHospital returns a hospital's allocations, optionally filtered.
func (s *Service) ListByHospital(ctx context.Context, hospitalID string, status domain.AllocationStatus) ([]*domain.Allocation, error) {
	allocs, err := s.store.ListByHospital(ctx, hospitalID, ListFilter{Status: status})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list hospital allocations", err)
	}
	return allocs, nil
}

// Verify re-walks the allocation's hash chain.
func (s *Service) Verify(ctx context.Context, id string) (*ledger.Verification, error) {
	alloc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	v := ledger.Verify(alloc)
	return &v, nil
}

// AuthorizeDoctor enforces the ownership rule for doctor-initiated status
// changes: the acting doctor's hospital must equal the allocation's hospital.
func (s *Service) AuthorizeDoctor(ctx context.Context, allocationID, doctorID string) (*domain.Allocation, error) {
	alloc, err := s.load(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.users.Get(ctx, doctorID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "doctor not found")
	}
	if doctor.Role != domain.RoleDoctor {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only doctors may manage allocations")
	}
	if doctor.HospitalID == "" || doctor.HospitalID != alloc.HospitalID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "doctor does not belong to the allocation's hospital")
	}
	return alloc, nil
}

// WithClock overrides the service clock; test use only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
