// Package doctor implements the doctor-facing workflow: registering organ
// requests, discovering and accepting organs, and closing out allocations for
// their hospital.
package doctor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lifebridge/internal/allocation"
	"lifebridge/internal/consent"
	"lifebridge/internal/domain"
	"lifebridge/internal/geo"
	"lifebridge/internal/matching"
	"lifebridge/internal/notification"
	"lifebridge/internal/organ"
	"lifebridge/internal/request"
	"lifebridge/internal/user"
	dErrors "lifebridge/pkg/domainerrors"
	"lifebridge/pkg/sentinel"
	"lifebridge/pkg/uow"
)

// defaultUrgencyScore is applied when a request omits the urgency score, so
// stored requests always carry a value in the 1 to 10 range.
const defaultUrgencyScore = 5

// Lifecycle is the slice of the allocation service the doctor workflow needs.
type Lifecycle interface {
	Create(ctx context.Context, in allocation.CreateInput) (*allocation.Result, error)
	UpdateStatus(ctx context.Context, in allocation.UpdateInput) (*allocation.Result, error)
	AuthorizeDoctor(ctx context.Context, allocationID, doctorID string) (*domain.Allocation, error)
	ListByHospital(ctx context.Context, hospitalID string, status domain.AllocationStatus) ([]*domain.Allocation, error)
}

// Matcher ranks available organs for a requester.
type Matcher interface {
	FindAvailableOrgans(ctx context.Context, organType domain.OrganType, bloodGroup domain.BloodGroup, requesterID string, urgencyScore int) ([]matching.Candidate, error)
}

type Service struct {
	allocations Lifecycle
	matcher     Matcher
	organs      organ.Store
	requests    request.Store
	consents    consent.Store
	users       user.Store
	distances   geo.DistanceClient
	notifier    notification.Notifier
	runner      uow.Runner
	logger      *slog.Logger
}

func NewService(
	allocations Lifecycle,
	matcher Matcher,
	organs organ.Store,
	requests request.Store,
	consents consent.Store,
	users user.Store,
	distances geo.DistanceClient,
	notifier notification.Notifier,
	runner uow.Runner,
	logger *slog.Logger,
) *Service {
	return &Service{
		allocations: allocations,
		matcher:     matcher,
		organs:      organs,
		requests:    requests,
		consents:    consents,
		users:       users,
		distances:   distances,
		notifier:    notifier,
		runner:      runner,
		logger:      logger,
	}
}

// RequestInput registers an organ need for a patient. BloodGroup accepts
// human notation or the internal enum. UrgencyScore 0 means unspecified and
// is stored as the default.
type RequestInput struct {
	DoctorID     string
	OrganType    domain.OrganType
	BloodGroup   string
	UrgencyScore int
}

// RequestOrgan creates a WAITING request carrying a denormalized snapshot of
// the requesting doctor so donors browsing requests see contact details
// without extra lookups.
func (s *Service) RequestOrgan(ctx context.Context, in RequestInput) (*domain.Request, error) {
	if !in.OrganType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown organ type")
	}
	bloodGroup, ok := domain.ParseBloodGroup(in.BloodGroup)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown blood group")
	}
	if in.UrgencyScore < 0 || in.UrgencyScore > 10 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "urgency score must be between 1 and 10")
	}
	if in.UrgencyScore == 0 {
		in.UrgencyScore = defaultUrgencyScore
	}

	doctor, err := s.doctor(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	r := &domain.Request{
		ID:           uuid.NewString(),
		Type:         in.OrganType,
		BloodGroup:   bloodGroup,
		HospitalID:   doctor.HospitalID,
		DoctorID:     doctor.ID,
		DoctorName:   doctor.Name,
		Address:      doctor.Address,
		Phone:        doctor.Phone,
		UrgencyScore: in.UrgencyScore,
		WaitingSince: time.Now(),
		Location:     doctor.Location,
		Status:       domain.RequestWaiting,
	}
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create request", err)
	}

	s.logger.InfoContext(ctx, "organ requested",
		"request_id", r.ID, "doctor_id", doctor.ID, "organ_type", r.Type)
	return r, nil
}

// FindAvailableOrgans ranks the open pool for the doctor's request.
func (s *Service) FindAvailableOrgans(ctx context.Context, doctorID, requestID string) ([]matching.Candidate, error) {
	req, err := s.ownedRequest(ctx, doctorID, requestID)
	if err != nil {
		return nil, err
	}
	return s.matcher.FindAvailableOrgans(ctx, req.Type, req.BloodGroup, doctorID, req.UrgencyScore)
}

// AcceptOrgan commits an available organ to the doctor's request. It opens a
// PENDING_CONFIRMATION allocation, reserves the organ, and asks the donor to
// confirm or reject.
func (s *Service) AcceptOrgan(ctx context.Context, doctorID, requestID, organID string) (*allocation.Result, error) {
	doctor, err := s.doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	req, err := s.ownedRequest(ctx, doctorID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestWaiting {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "request is not open for matching")
	}

	o, err := s.organs.Get(ctx, organID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "organ not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load organ", err)
	}
	if o.Status != domain.OrganAvailable {
		return nil, dErrors.New(dErrors.CodeOrganNotAvailable, "organ is not available for allocation")
	}
	c, err := s.consents.Get(ctx, o.ConsentID)
	if err != nil || c.Status != domain.ConsentVerified {
		return nil, dErrors.New(dErrors.CodeConsentNotVerified, "donor consent is not verified")
	}

	result, err := s.allocations.Create(ctx, allocation.CreateInput{
		OrganID:      o.ID,
		RequestID:    req.ID,
		HospitalID:   doctor.HospitalID,
		MatchScore:   s.matchScore(ctx, req, o),
		DispatcherID: doctor.ID,
	})
	if err != nil {
		return nil, err
	}
	alloc := result.Allocation

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		o.Status = domain.OrganReserved
		o.AllocationID = alloc.ID
		if err := s.organs.Update(ctx, o); err != nil {
			return dErrors.Partial("organ", err)
		}
		req.Status = domain.RequestPendingConfirmation
		req.AllocationID = alloc.ID
		if err := s.requests.Update(ctx, req); err != nil {
			return dErrors.Partial("request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(o.DonorID, "Hospital has requested transplant. Confirm or reject.", alloc.ID)
	s.logger.InfoContext(ctx, "organ accepted",
		"allocation_id", alloc.ID, "organ_id", o.ID, "request_id", req.ID, "doctor_id", doctor.ID)
	return result, nil
}

// CompleteAllocation records a successful transplant.
func (s *Service) CompleteAllocation(ctx context.Context, doctorID, allocationID string) (*allocation.Result, error) {
	alloc, err := s.allocations.AuthorizeDoctor(ctx, allocationID, doctorID)
	if err != nil {
		return nil, err
	}

	result, err := s.allocations.UpdateStatus(ctx, allocation.UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationCompleted,
		ActorID:      doctorID,
	})
	if err != nil {
		return nil, err
	}

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		return s.settle(ctx, alloc, domain.OrganTransplanted, domain.RequestTransplanted, false)
	})
	if err != nil {
		return nil, err
	}

	s.notifyDonor(ctx, alloc, "The transplant was completed. Thank you.")
	s.logger.InfoContext(ctx, "allocation completed",
		"allocation_id", alloc.ID, "doctor_id", doctorID)
	return result, nil
}

// FailAllocation records a failed transplant and returns the organ and the
// request to the open pool.
func (s *Service) FailAllocation(ctx context.Context, doctorID, allocationID, reason string) (*allocation.Result, error) {
	alloc, err := s.allocations.AuthorizeDoctor(ctx, allocationID, doctorID)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "allocation failed"
	}

	result, err := s.allocations.UpdateStatus(ctx, allocation.UpdateInput{
		AllocationID:  alloc.ID,
		NewStatus:     domain.AllocationFailed,
		ActorID:       doctorID,
		FailureReason: reason,
	})
	if err != nil {
		return nil, err
	}

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		return s.settle(ctx, alloc, domain.OrganAvailable, domain.RequestWaiting, true)
	})
	if err != nil {
		return nil, err
	}

	s.notifyDonor(ctx, alloc, "The transplant could not be completed: "+reason)
	s.logger.InfoContext(ctx, "allocation failed",
		"allocation_id", alloc.ID, "doctor_id", doctorID, "reason", reason)
	return result, nil
}

// ListAllocations returns the doctor's hospital allocations, optionally
// filtered by status.
func (s *Service) ListAllocations(ctx context.Context, doctorID string, status domain.AllocationStatus) ([]*domain.Allocation, error) {
	doctor, err := s.doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return s.allocations.ListByHospital(ctx, doctor.HospitalID, status)
}

// ListRequests returns the doctor's own requests.
func (s *Service) ListRequests(ctx context.Context, doctorID string) ([]*domain.Request, error) {
	reqs, err := s.requests.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list requests", err)
	}
	return reqs, nil
}

// settle moves the organ and request of a closed allocation to their terminal
// or re-opened states. release clears the allocation linkage.
func (s *Service) settle(ctx context.Context, alloc *domain.Allocation, organStatus domain.OrganStatus, requestStatus domain.RequestStatus, release bool) error {
	o, err := s.organs.Get(ctx, alloc.OrganID)
	if err != nil {
		return dErrors.Partial("organ", err)
	}
	o.Status = organStatus
	if release {
		o.AllocationID = ""
	}
	if err := s.organs.Update(ctx, o); err != nil {
		return dErrors.Partial("organ", err)
	}

	req, err := s.requests.Get(ctx, alloc.RequestID)
	if err != nil {
		return dErrors.Partial("request", err)
	}
	req.Status = requestStatus
	if release {
		req.AllocationID = ""
	}
	if err := s.requests.Update(ctx, req); err != nil {
		return dErrors.Partial("request", err)
	}
	return nil
}

// matchScore computes the recorded score at acceptance time. An unresolvable
// leg falls back to the unknown-distance sentinel inside the score engine.
func (s *Service) matchScore(ctx context.Context, req *domain.Request, o *domain.Organ) int {
	var distance *float64
	if req.Location != nil && o.Location != nil {
		route := s.distances.GetDistance(ctx, *req.Location, *o.Location)
		distance = route.DistanceKm
	}
	score := matching.CalculateScore(matching.ScoreInput{
		Organ:        o.Type,
		UrgencyScore: req.UrgencyScore,
		DistanceKm:   distance,
	})
	return score.MatchScore
}

func (s *Service) doctor(ctx context.Context, doctorID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, doctorID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "doctor not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load doctor", err)
	}
	if u.Role != domain.RoleDoctor {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only doctors may perform this action")
	}
	if u.HospitalID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "doctor is not bound to a hospital")
	}
	return u, nil
}

func (s *Service) ownedRequest(ctx context.Context, doctorID, requestID string) (*domain.Request, error) {
	req, err := s.requests.Get(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load request", err)
	}
	if req.DoctorID != doctorID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "request belongs to another doctor")
	}
	return req, nil
}

func (s *Service) notifyDonor(ctx context.Context, alloc *domain.Allocation, message string) {
	o, err := s.organs.Get(ctx, alloc.OrganID)
	if err != nil {
		s.logger.WarnContext(ctx, "could not resolve organ for donor notification",
			"allocation_id", alloc.ID, "error", err)
		return
	}
	s.notifier.Notify(o.DonorID, message, alloc.ID)
}
