package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifebridge/internal/allocation"
	"lifebridge/internal/doctor"
	"lifebridge/internal/domain"
	"lifebridge/internal/matching"
	"lifebridge/internal/platform/middleware"
	"lifebridge/pkg/httputil"
)

// Service defines the interface for doctor operations.
type Service interface {
	RequestOrgan(ctx context.Context, in doctor.RequestInput) (*domain.Request, error)
	ListRequests(ctx context.Context, doctorID string) ([]*domain.Request, error)
	FindAvailableOrgans(ctx context.Context, doctorID, requestID string) ([]matching.Candidate, error)
	AcceptOrgan(ctx context.Context, doctorID, requestID, organID string) (*allocation.Result, error)
	CompleteAllocation(ctx context.Context, doctorID, allocationID string) (*allocation.Result, error)
	FailAllocation(ctx context.Context, doctorID, allocationID, reason string) (*allocation.Result, error)
	ListAllocations(ctx context.Context, doctorID string, status domain.AllocationStatus) ([]*domain.Allocation, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts doctor endpoints. The router guards them with the DOCTOR role.
func (h *Handler) Register(r chi.Router) {
	r.Post("/doctor/requests", h.handleRequestOrgan)
	r.Get("/doctor/requests", h.handleListRequests)
	r.Get("/doctor/requests/{requestID}/matches", h.handleFindOrgans)
	r.Post("/doctor/requests/{requestID}/accept", h.handleAcceptOrgan)
	r.Get("/doctor/allocations", h.handleListAllocations)
	r.Post("/doctor/allocations/{allocationID}/complete", h.handleCompleteAllocation)
	r.Post("/doctor/allocations/{allocationID}/fail", h.handleFailAllocation)
}

type requestOrganRequest struct {
	OrganType    string `json:"organType"`
	BloodGroup   string `json:"bloodGroup"`
	UrgencyScore int    `json:"urgencyScore"`
}

func (h *Handler) handleRequestOrgan(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[requestOrganRequest](w, r)
	if !ok {
		return
	}

	created, err := h.service.RequestOrgan(r.Context(), doctor.RequestInput{
		DoctorID:     middleware.GetUserID(r.Context()),
		OrganType:    domain.OrganType(req.OrganType),
		BloodGroup:   req.BloodGroup,
		UrgencyScore: req.UrgencyScore,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListRequests(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

type candidateResponse struct {
	Organ           *domain.Organ         `json:"organ"`
	DistanceKm      *float64              `json:"distanceKm"`
	DurationMinutes *float64              `json:"durationMinutes,omitempty"`
	MatchScore      int                   `json:"matchScore"`
	RiskLevel       domain.RiskLevel      `json:"riskLevel"`
	Recommendation  domain.Recommendation `json:"recommendation"`
}

func (h *Handler) handleFindOrgans(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.FindAvailableOrgans(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]candidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, candidateResponse{
			Organ:           c.Organ,
			DistanceKm:      c.DistanceKm,
			DurationMinutes: c.DurationMinutes,
			MatchScore:      c.MatchScore,
			RiskLevel:       c.RiskLevel,
			Recommendation:  c.Recommendation,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"matches": out})
}

type acceptOrganRequest struct {
	OrganID string `json:"organId"`
}

func (h *Handler) handleAcceptOrgan(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[acceptOrganRequest](w, r)
	if !ok {
		return
	}

	res, err := h.service.AcceptOrgan(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "requestID"), req.OrganID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"allocation":         res.Allocation,
		"blockchainRecorded": res.BlockchainRecorded,
	})
}

func (h *Handler) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	status := domain.AllocationStatus(r.URL.Query().Get("status"))
	allocs, err := h.service.ListAllocations(r.Context(), middleware.GetUserID(r.Context()), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"allocations": allocs})
}

func (h *Handler) handleCompleteAllocation(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.CompleteAllocation(r.Context(),
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

type failAllocationRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleFailAllocation(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[failAllocationRequest](w, r)
	if !ok {
		return
	}

	res, err := h.service.FailAllocation(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "allocationID"), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"allocation":         res.Allocation,
		"blockchainRecorded": res.BlockchainRecorded,
	})
}
