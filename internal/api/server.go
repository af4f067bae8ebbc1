// Package api provides the HTTP API server and handlers for the
// keyword-research dashboard backend.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mostaks/kwr-dashboard-server/internal/http/response"
	"github.com/mostaks/kwr-dashboard-server/internal/service"
	"github.com/mostaks/kwr-dashboard-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	dashboardService *service.DashboardService
	clientService    *service.ClientService
	authService      *service.AuthService
	validator        *validation.Validator
	router           *chi.Mux
	logger           *slog.Logger
	requestTimeout   time.Duration
	corsOrigins      []string
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	dashboardService *service.DashboardService,
	clientService *service.ClientService,
	authService *service.AuthService,
	logger *slog.Logger,
	requestTimeout time.Duration,
	corsOrigins string,
) *Server {
	s := &Server{
		dashboardService: dashboardService,
		clientService:    clientService,
		authService:      authService,
		validator:        validation.New(),
		router:           chi.NewRouter(),
		logger:           logger,
		requestTimeout:   requestTimeout,
		corsOrigins:      splitOrigins(corsOrigins),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	// Dashboard imports can trigger a provider fetch, so the per-request
	// deadline is generous; it exists to bound runaway requests, not to
	// police normal latency.
	s.router.Use(middleware.Timeout(s.requestTimeout))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/sign-in", s.handleSignIn)
		r.Get("/auth/session", s.handleSession)

		r.Route("/dashboards", func(r chi.Router) {
			r.Post("/", s.handleCreateOrUpdateDashboard)
			r.Get("/", s.handleListDashboards)
			r.Get("/{id}", s.handleGetDashboard)
			r.Patch("/{id}", s.handleUpdateDashboard)
			r.Delete("/{id}", s.handleDeleteDashboard)
			r.Post("/{id}/cleanup", s.handleCleanupDashboard)
			r.Get("/suffix/{suffix}", s.handleGetDashboardBySuffix)
			r.Get("/client/{clientSuffix}/{dashboardSuffix}", s.handleGetDashboardByClientAndSuffix)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Post("/", s.handleCreateClient)
			r.Get("/", s.handleListClients)
			r.Get("/{id}", s.handleGetClient)
			r.Patch("/{id}", s.handleUpdateClient)
			r.Delete("/{id}", s.handleDeleteClient)
			r.Get("/{id}/dashboards", s.handleListClientDashboards)
			r.Post("/{id}/verify-access", s.handleVerifyClientAccess)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}

func splitOrigins(origins string) []string {
	if origins == "" {
		return []string{"*"}
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
