package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifebridge/internal/domain"
	"lifebridge/internal/user"
	"lifebridge/pkg/httputil"
)

// Service defines the interface for account operations.
type Service interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.AuthResult, error)
	Login(ctx context.Context, email, password string) (*user.AuthResult, error)
}

// Handler wires the public auth endpoints to the user service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the unauthenticated endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	HospitalName    string `json:"hospitalName"`
	HospitalAddress string `json:"hospitalAddress"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Role       string           `json:"role"`
	HospitalID string           `json:"hospitalId,omitempty"`
	Phone      string           `json:"phone,omitempty"`
	Address    string           `json:"address,omitempty"`
	Location   *domain.Location `json:"location,omitempty"`
}

func fromAuthResult(res *user.AuthResult) authResponse {
	return authResponse{
		Token: res.Token,
		User: userResponse{
			ID:         res.User.ID,
			Name:       res.User.Name,
			Email:      res.User.Email,
			Role:       string(res.User.Role),
			HospitalID: res.User.HospitalID,
			Phone:      res.User.Phone,
			Address:    res.User.Address,
			Location:   res.User.Location,
		},
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[registerRequest](w, r)
	if !ok {
		return
	}

	res, err := h.service.Register(r.Context(), user.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Role:            domain.Role(req.Role),
		Phone:           req.Phone,
		Address:         req.Address,
		HospitalName:    req.HospitalName,
		HospitalAddress: req.HospitalAddress,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "registration failed", "email", req.Email, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromAuthResult(res))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[loginRequest](w, r)
	if !ok {
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "login failed", "email", req.Email, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromAuthResult(res))
}
