// Package server exposes the application services over a JSON HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/divvyapp/divvy/internal/auth"
	"github.com/divvyapp/divvy/internal/middleware"
	"github.com/divvyapp/divvy/internal/service"
)

// Server wires the application services to HTTP routes.
type Server struct {
	auth        *service.AuthService
	groups      *service.GroupService
	expenses    *service.ExpenseService
	settlements *service.SettlementService
	jwtManager  *auth.JWTManager
	registry    *prometheus.Registry
	metrics     *middleware.Metrics
}

// New creates a Server over the given services.
func New(
	authService *service.AuthService,
	groupService *service.GroupService,
	expenseService *service.ExpenseService,
	settlementService *service.SettlementService,
	jwtManager *auth.JWTManager,
) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Server{
		auth:        authService,
		groups:      groupService,
		expenses:    expenseService,
		settlements: settlementService,
		jwtManager:  jwtManager,
		registry:    registry,
		metrics:     middleware.NewMetrics(registry),
	}
}

// Routes builds the full route tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.metrics.Instrument)
	r.Use(middleware.RequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.jwtManager))

			r.Get("/me", s.handleCurrentUser)

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", s.handleCreateGroup)
				r.Get("/", s.handleListGroups)

				r.Route("/{groupID}", func(r chi.Router) {
					r.Get("/", s.handleGetGroup)
					r.Put("/", s.handleUpdateGroup)
					r.Delete("/", s.handleDeleteGroup)

					r.Get("/balances", s.handleGetBalances)
					r.Post("/balances/recompute", s.handleRecomputeBalances)

					r.Post("/expenses", s.handleCreateExpense)
					r.Get("/expenses", s.handleListExpenses)

					r.Post("/settlements", s.handleCreateSettlement)
					r.Get("/settlements", s.handleListSettlements)
				})
			})

			r.Route("/expenses/{expenseID}", func(r chi.Router) {
				r.Get("/", s.handleGetExpense)
				r.Put("/", s.handleUpdateExpense)
				r.Delete("/", s.handleDeleteExpense)
			})

			r.Route("/settlements/{settlementID}", func(r chi.Router) {
				r.Put("/", s.handleUpdateSettlement)
				r.Delete("/", s.handleDeleteSettlement)
			})
		})
	})

	return r
}
