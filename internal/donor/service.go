// Package donor implements the donor-facing workflow: registering donations,
// confirming consent, and answering transplant confirmation requests. All
// allocation status writes are delegated to the allocation lifecycle service.
package donor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lifebridge/internal/allocation"
	"lifebridge/internal/consent"
	"lifebridge/internal/domain"
	"lifebridge/internal/notification"
	"lifebridge/internal/organ"
	"lifebridge/internal/request"
	"lifebridge/internal/user"
	dErrors "lifebridge/pkg/domainerrors"
	"lifebridge/pkg/sentinel"
	"lifebridge/pkg/uow"
)

// rejectionReason is the recorded failure reason when a donor declines.
const rejectionReason = "donor rejected the transplant request"

// Lifecycle is the slice of the allocation service the donor workflow needs.
type Lifecycle interface {
	UpdateStatus(ctx context.Context, in allocation.UpdateInput) (*allocation.Result, error)
}

type Service struct {
	allocations Lifecycle
	allocStore  allocation.Store
	organs      organ.Store
	requests    request.Store
	consents    consent.Store
	users       user.Store
	notifier    notification.Notifier
	runner      uow.Runner
	logger      *slog.Logger
}

func NewService(
	allocations Lifecycle,
	allocStore allocation.Store,
	organs organ.Store,
	requests request.Store,
	consents consent.Store,
	users user.Store,
	notifier notification.Notifier,
	runner uow.Runner,
	logger *slog.Logger,
) *Service {
	return &Service{
		allocations: allocations,
		allocStore:  allocStore,
		organs:      organs,
		requests:    requests,
		consents:    consents,
		users:       users,
		notifier:    notifier,
		runner:      runner,
		logger:      logger,
	}
}

// DonationInput registers one organ for donation. BloodGroup accepts human
// notation ("A+") or the internal enum. Phone and Address default to the
// donor's profile when empty.
type DonationInput struct {
	DonorID     string
	OrganType   domain.OrganType
	BloodGroup  string
	Phone       string
	Address     string
	ConsentType domain.ConsentType
}

// CreateDonation records a new organ in PENDING_CONSENT together with its
// pending consent record. The organ stays invisible to matching until the
// donor confirms consent.
func (s *Service) CreateDonation(ctx context.Context, in DonationInput) (*domain.Organ, error) {
	if !in.OrganType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown organ type")
	}
	bloodGroup, ok := domain.ParseBloodGroup(in.BloodGroup)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown blood group")
	}
	consentType := in.ConsentType
	if consentType == "" {
		consentType = domain.ConsentLiving
	}

	donor, err := s.users.Get(ctx, in.DonorID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load donor", err)
	}

	phone := in.Phone
	if phone == "" {
		phone = donor.Phone
	}
	address := in.Address
	if address == "" {
		address = donor.Address
	}

	c := &domain.Consent{
		ID:       uuid.NewString(),
		DonorID:  donor.ID,
		Type:     consentType,
		Status:   domain.ConsentPending,
		SignedAt: time.Now(),
	}
	o := &domain.Organ{
		ID:         uuid.NewString(),
		Type:       in.OrganType,
		BloodGroup: bloodGroup,
		Location:   donor.Location,
		DonorID:    donor.ID,
		Phone:      phone,
		Address:    address,
		ConsentID:  c.ID,
		Status:     domain.OrganPendingConsent,
	}

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		if err := s.consents.Create(ctx, c); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "create consent", err)
		}
		if err := s.organs.Create(ctx, o); err != nil {
			return dErrors.Partial("organ", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "donation registered",
		"organ_id", o.ID, "donor_id", donor.ID, "organ_type", o.Type)
	return o, nil
}

// ConfirmDonation verifies the donor's consent and makes the organ visible to
// matching.
func (s *Service) ConfirmDonation(ctx context.Context, donorID, organID string) (*domain.Organ, error) {
	o, err := s.ownedOrgan(ctx, donorID, organID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrganPendingConsent {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "organ is not awaiting consent")
	}
	c, err := s.consents.Get(ctx, o.ConsentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "consent record not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load consent", err)
	}
	if c.Status == domain.ConsentRevoked {
		return nil, dErrors.New(dErrors.CodeConsentNotVerified, "consent has been revoked")
	}

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		if err := s.consents.UpdateStatus(ctx, c.ID, domain.ConsentVerified); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "verify consent", err)
		}
		o.Status = domain.OrganAvailable
		if err := s.organs.Update(ctx, o); err != nil {
			return dErrors.Partial("organ", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "donation consent confirmed",
		"organ_id", o.ID, "donor_id", donorID, "consent_id", c.ID)
	return o, nil
}

// ListDonations returns the donor's own organs, newest first.
func (s *Service) ListDonations(ctx context.Context, donorID string) ([]*domain.Organ, error) {
	organs, err := s.organs.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list donations", err)
	}
	return organs, nil
}

// ListRequests returns open requests a donor's organ could serve.
func (s *Service) ListRequests(ctx context.Context, organType domain.OrganType, bloodGroup domain.BloodGroup) ([]*domain.Request, error) {
	reqs, err := s.requests.ListWaiting(ctx, request.WaitingFilter{
		Type:       organType,
		BloodGroup: bloodGroup,
	})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list waiting requests", err)
	}
	return reqs, nil
}

// ConfirmAllocation is the donor accepting a transplant request. The
// allocation moves to MATCHED and the organ is committed to it.
func (s *Service) ConfirmAllocation(ctx context.Context, donorID, allocationID string) (*allocation.Result, error) {
	alloc, o, err := s.ownedAllocation(ctx, donorID, allocationID)
	if err != nil {
		return nil, err
	}

	result, err := s.allocations.UpdateStatus(ctx, allocation.UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
		ActorID:      donorID,
	})
	if err != nil {
		return nil, err
	}

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		o.Status = domain.OrganAllocated
		if err := s.organs.Update(ctx, o); err != nil {
			return dErrors.Partial("organ", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyDoctor(ctx, alloc, "The donor confirmed the transplant request.")
	s.logger.InfoContext(ctx, "allocation confirmed by donor",
		"allocation_id", alloc.ID, "donor_id", donorID)
	return result, nil
}

// RejectAllocation is the donor declining. The allocation is recorded as
// MATCHED then immediately FAILED so the ledger shows the donor's decision,
// and the organ and request return to the open pool.
func (s *Service) RejectAllocation(ctx context.Context, donorID, allocationID string) (*allocation.Result, error) {
	alloc, o, err := s.ownedAllocation(ctx, donorID, allocationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.allocations.UpdateStatus(ctx, allocation.UpdateInput{
		AllocationID: alloc.ID,
		NewStatus:    domain.AllocationMatched,
		ActorID:      donorID,
	}); err != nil {
		return nil, err
	}
	result, err := s.allocations.UpdateStatus(ctx, allocation.UpdateInput{
		AllocationID:  alloc.ID,
		NewStatus:     domain.AllocationFailed,
		ActorID:       donorID,
		FailureReason: rejectionReason,
	})
	if err != nil {
		return nil, err
	}

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		o.Status = domain.OrganAvailable
		o.AllocationID = ""
		if err := s.organs.Update(ctx, o); err != nil {
			return dErrors.Partial("organ", err)
		}
		req, err := s.requests.Get(ctx, alloc.RequestID)
		if err != nil {
			return dErrors.Partial("request", err)
		}
		req.Status = domain.RequestWaiting
		req.AllocationID = ""
		if err := s.requests.Update(ctx, req); err != nil {
			return dErrors.Partial("request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyDoctor(ctx, alloc, "The donor rejected the transplant request.")
	s.logger.InfoContext(ctx, "allocation rejected by donor",
		"allocation_id", alloc.ID, "donor_id", donorID)
	return result, nil
}

// ownedOrgan loads an organ and enforces donor ownership.
func (s *Service) ownedOrgan(ctx context.Context, donorID, organID string) (*domain.Organ, error) {
	o, err := s.organs.Get(ctx, organID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "organ not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load organ", err)
	}
	if o.DonorID != donorID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "organ belongs to another donor")
	}
	return o, nil
}

// ownedAllocation resolves an allocation through its organ's donor.
func (s *Service) ownedAllocation(ctx context.Context, donorID, allocationID string) (*domain.Allocation, *domain.Organ, error) {
	alloc, err := s.allocStore.Get(ctx, allocationID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "allocation not found")
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(dErrors.CodeInternal, "load allocation", err)
	}
	o, err := s.ownedOrgan(ctx, donorID, alloc.OrganID)
	if err != nil {
		return nil, nil, err
	}
	return alloc, o, nil
}

func (s *Service) notifyDoctor(ctx context.Context, alloc *domain.Allocation, message string) {
	req, err := s.requests.Get(ctx, alloc.RequestID)
	if err != nil {
		s.logger.WarnContext(ctx, "could not resolve request for doctor notification",
			"allocation_id", alloc.ID, "error", err)
		return
	}
	s.notifier.Notify(req.DoctorID, message, alloc.ID)
}
