package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"lifebridge/internal/allocation"
	"lifebridge/internal/domain"
	"lifebridge/internal/donor"
)

type stubService struct {
	listRequestsCalled bool
	requests           []*domain.Request
}

func (s *stubService) CreateDonation(context.Context, donor.DonationInput) (*domain.Organ, error) {
	return nil, nil
}

func (s *stubService) ConfirmDonation(context.Context, string, string) (*domain.Organ, error) {
	return nil, nil
}

func (s *stubService) ListDonations(context.Context, string) ([]*domain.Organ, error) {
	return nil, nil
}

func (s *stubService) ListRequests(context.Context, domain.OrganType, domain.BloodGroup) ([]*domain.Request, error) {
	s.listRequestsCalled = true
	return s.requests, nil
}

func (s *stubService) ConfirmAllocation(context.Context, string, string) (*allocation.Result, error) {
	return nil, nil
}

func (s *stubService) RejectAllocation(context.Context, string, string) (*allocation.Result, error) {
	return nil, nil
}

func newDonorRouter(svc Service) chi.Router {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestListRequestsRejectsUnknownBloodGroup(t *testing.T) {
	svc := &stubService{}
	router := newDonorRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/donor/requests?organType=Kidney&bloodGroup=Q%2B", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown blood group, got %d", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.Error != "bad_request" {
		t.Fatalf("expected bad_request error, got %q", body.Error)
	}
	if svc.listRequestsCalled {
		t.Fatalf("service should not be reached with an invalid blood group")
	}
}

func TestListRequestsRejectsUnknownOrganType(t *testing.T) {
	svc := &stubService{}
	router := newDonorRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/donor/requests?organType=Spleen&bloodGroup=O%2B", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown organ type, got %d", rec.Code)
	}
	if svc.listRequestsCalled {
		t.Fatalf("service should not be reached with an invalid organ type")
	}
}

func TestListRequestsPassesValidFilters(t *testing.T) {
	svc := &stubService{requests: []*domain.Request{{ID: "req-1", Type: domain.OrganKidney}}}
	router := newDonorRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/donor/requests?organType=Kidney&bloodGroup=O%2B", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !svc.listRequestsCalled {
		t.Fatalf("expected the service to be called")
	}
}
