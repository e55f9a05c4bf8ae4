// Package server provides HTTP server management and lifecycle handling for the slim API.
// It includes server setup, middleware configuration, route management, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giygas/slim-api/config"
	"github.com/giygas/slim-api/handlers"
	"github.com/giygas/slim-api/logging"
	"github.com/giygas/slim-api/metrics"
)

// ShutdownTimeout bounds the graceful shutdown
const ShutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	router   chi.Router
	handler  *handlers.HTTPHandlerImpl
	config   *config.Config
	limiter  *RateLimiter
	profiler *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, h *handlers.HTTPHandlerImpl) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:        router,
			Addr:           cfg.ListenAddr(),
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   cfg.AITimeout + 15*time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: int(cfg.MaxHeaderSize),
		},
		router:  router,
		handler: h,
		config:  cfg,
		limiter: NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMaxRequests),
	}

	if cfg.Env == config.EnvDevelopment {
		s.profiler = newProfilingServer()
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Metrics)
	s.router.Use(SecurityHeadersMiddleware(s.config.IsDevelopment()))
	s.router.Use(CORSMiddleware(s.config.AllowedOrigins))
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(middleware.Compress(5, "application/json"))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	h := s.handler

	s.router.NotFound(h.NotFound)
	s.router.MethodNotAllowed(h.MethodNotAllowed)

	s.router.Get("/", s.serveIndex)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/api/health", h.HealthCheck)

	s.router.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/signup", h.Signup)
			r.Post("/signin", h.Signin)
			r.Post("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)
			r.With(h.RequireAuth).Get("/me", h.Me)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(h.RequireAuth, h.RequireAdmin)
			r.Get("/users", h.ListUsers)
			r.Get("/users/{id}", h.GetUser)
			r.Get("/users/{id}/demande", h.GetUserDemande)
			r.Post("/users/{id}/assign-plan", h.AssignPlan)
			r.Get("/stats", h.Stats)
		})

		r.Route("/api/demandes", func(r chi.Router) {
			r.Use(h.RequireAuth, h.RequireAdmin)
			r.Get("/", h.ListDemandes)
			r.Get("/{id}", h.GetDemande)
			r.Put("/{id}/status", h.UpdateDemandeStatus)
			r.Get("/{id}/profiles", h.GetDemandeProfiles)
			r.Post("/{id}/analyze", h.AnalyzeDemande)
			r.Get("/{id}/action-plans", h.ListDemandeActionPlans)
			r.Post("/{id}/action-plans", h.CreateDemandeActionPlan)
		})

		r.With(h.RequireAuth, h.RequireAdmin).Get("/api/action-plans/catalogue", h.ActionPlanCatalogue)

		r.Route("/api/ai", func(r chi.Router) {
			r.Get("/predict/{userId}", h.PredictForUser)
			r.Post("/predict/custom", h.CustomPredict)
			r.Post("/predict/onboarding/{userId}", h.OnboardingPredict)
			r.Get("/health", h.AIHealth)
		})

		r.Post("/api/intake", h.Intake)
	})
}

// serveIndex serves the public intake form
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, filepath.Join(s.config.StaticDir, "index.html"))
}

// Handler returns the routed handler, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server. It returns nil once the server is shut down.
func (s *Server) Start() error {
	s.limiter.StartCleanup(s.config.RateLimitWindow)

	if s.profiler != nil {
		s.startProfilingServer()
	}

	logging.Info("Starting server", "addr", s.server.Addr, "env", s.config.Env)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	defer s.limiter.Stop()

	if s.profiler != nil {
		_ = s.profiler.Close()
	}

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

func newProfilingServer() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &http.Server{Addr: "localhost:6060", Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := s.profiler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
