package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifebridge/internal/domain"
	"lifebridge/internal/platform/middleware"
	dErrors "lifebridge/pkg/domainerrors"
	"lifebridge/pkg/httputil"
	"lifebridge/pkg/sentinel"
)

// Store is the notification read surface exposed over HTTP.
type Store interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the authenticated notification endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Post("/notifications/{notificationID}/read", h.handleMarkRead)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.store.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "list notifications", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	err := h.store.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), middleware.GetUserID(r.Context()))
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "notification not found"))
		return
	}
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "mark notification read", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"read": true})
}
