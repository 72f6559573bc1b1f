package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifebridge/internal/allocation"
	"lifebridge/internal/domain"
	"lifebridge/internal/donor"
	"lifebridge/internal/platform/middleware"
	dErrors "lifebridge/pkg/domainerrors"
	"lifebridge/pkg/httputil"
)

// Service defines the interface for donor operations.
type Service interface {
	CreateDonation(ctx context.Context, in donor.DonationInput) (*domain.Organ, error)
	ConfirmDonation(ctx context.Context, donorID, organID string) (*domain.Organ, error)
	ListDonations(ctx context.Context, donorID string) ([]*domain.Organ, error)
	ListRequests(ctx context.Context, organType domain.OrganType, bloodGroup domain.BloodGroup) ([]*domain.Request, error)
	ConfirmAllocation(ctx context.Context, donorID, allocationID string) (*allocation.Result, error)
	RejectAllocation(ctx context.Context, donorID, allocationID string) (*allocation.Result, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts donor endpoints. The router guards them with the DONOR role.
func (h *Handler) Register(r chi.Router) {
	r.Post("/donor/donations", h.handleCreateDonation)
	r.Get("/donor/donations", h.handleListDonations)
	r.Post("/donor/donations/{organID}/confirm", h.handleConfirmDonation)
	r.Get("/donor/requests", h.handleListRequests)
	r.Post("/donor/allocations/{allocationID}/confirm", h.handleConfirmAllocation)
	r.Post("/donor/allocations/{allocationID}/reject", h.handleRejectAllocation)
}

type donationRequest struct {
	OrganType   string `json:"organType"`
	BloodGroup  string `json:"bloodGroup"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	ConsentType string `json:"consentType"`
}

func (h *Handler) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[donationRequest](w, r)
	if !ok {
		return
	}

	o, err := h.service.CreateDonation(r.Context(), donor.DonationInput{
		DonorID:     middleware.GetUserID(r.Context()),
		OrganType:   domain.OrganType(req.OrganType),
		BloodGroup:  req.BloodGroup,
		Phone:       req.Phone,
		Address:     req.Address,
		ConsentType: domain.ConsentType(req.ConsentType),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) handleConfirmDonation(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.ConfirmDonation(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "organID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) handleListDonations(w http.ResponseWriter, r *http.Request) {
	organs, err := h.service.ListDonations(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"donations": organs})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	organType := domain.OrganType(r.URL.Query().Get("organType"))
	if !organType.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown organ type"))
		return
	}
	bloodGroup, ok := domain.ParseBloodGroup(r.URL.Query().Get("bloodGroup"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown blood group"))
		return
	}

	reqs, err := h.service.ListRequests(r.Context(), organType, bloodGroup)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *Handler) handleConfirmAllocation(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ConfirmAllocation(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "allocationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"allocation":         res.Allocation,
		"blockchainRecorded": res.BlockchainRecorded,
	})
}

func (h *Handler) handleRejectAllocation(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.RejectAllocation(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "allocationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"allocation":         res.Allocation,
		"blockchainRecorded": res.BlockchainRecorded,
	})
}
