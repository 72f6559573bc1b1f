// Package httptransport assembles the HTTP surface. Handlers stay thin and
// delegate to the domain services; all auth and role checks happen here at
// the routing layer.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	allocationhandler "lifebridge/internal/allocation/handler"
	doctorhandler "lifebridge/internal/doctor/handler"
	donorhandler "lifebridge/internal/donor/handler"
	notificationhandler "lifebridge/internal/notification/handler"
	userhandler "lifebridge/internal/user/handler"
	"lifebridge/internal/domain"
	"lifebridge/internal/platform/middleware"
)

// Deps carries everything the router mounts.
type Deps struct {
	Users         *userhandler.Handler
	Donors        *donorhandler.Handler
	Doctors       *doctorhandler.Handler
	Allocations   *allocationhandler.Handler
	Notifications *notificationhandler.Handler
	Tokens        middleware.TokenValidator
	Logger        *slog.Logger
}

// NewRouter wires the full route map under /api/v1.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		d.Users.Register(api)

		api.Group(func(auth chi.Router) {
			auth.Use(middleware.RequireAuth(d.Tokens, d.Logger))

			d.Allocations.Register(auth)
			d.Notifications.Register(auth)

			auth.Group(func(donors chi.Router) {
				donors.Use(middleware.RequireRole(string(domain.RoleDonor), d.Logger))
				d.Donors.Register(donors)
			})
			auth.Group(func(doctors chi.Router) {
				doctors.Use(middleware.RequireRole(string(domain.RoleDoctor), d.Logger))
				d.Doctors.Register(doctors)
			})
		})
	})
	return r
}
