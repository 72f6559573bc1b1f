package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lifebridge/internal/allocation"
	"lifebridge/internal/allocation/ledger"
	"lifebridge/internal/domain"
	"lifebridge/pkg/httputil"
)

// Service defines the read surface for allocations.
type Service interface {
	Get(ctx context.Context, id string) (*allocation.Detail, error)
	History(ctx context.Context, id string) (*allocation.HistoryResult, error)
	Verify(ctx context.Context, id string) (*ledger.Verification, error)
	List(ctx context.Context, page, pageSize int, status domain.AllocationStatus) (*allocation.Page, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated allocation read endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/allocations", h.handleList)
	r.Get("/allocations/{allocationID}", h.handleGet)
	r.Get("/allocations/{allocationID}/history", h.handleHistory)
	r.Get("/allocations/{allocationID}/verify", h.handleVerify)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	status := domain.AllocationStatus(r.URL.Query().Get("status"))

	result, err := h.service.List(r.Context(), page, pageSize, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"allocations": result.Allocations,
		"pagination": map[string]int{
			"total":    result.Total,
			"page":     result.PageNumber,
			"pageSize": result.PageSize,
			"pages":    result.Pages,
		},
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "allocationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"allocation":    detail.Allocation,
		"organ":         detail.Organ,
		"request":       detail.Request,
		"hospital":      detail.Hospital,
		"dispatchedBy":  detail.DispatchedBy,
		"completedBy":   detail.CompletedBy,
		"witnessRecord": detail.WitnessRecord,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.History(r.Context(), chi.URLParam(r, "allocationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"history":        result.Local,
		"witnessHistory": result.Witness,
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Verify(r.Context(), chi.URLParam(r, "allocationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}
