// Package web provides the HTTP API of the generation engine.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/synthedata/internal/config"
	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/web/middleware"
)

// maxBodySize bounds JSON request bodies (1MB).
const maxBodySize = 1 << 20

// Server is the HTTP server for the generation API.
type Server struct {
	cfg    *config.Config
	engine *core.Engine
	jobs   *core.JobRunner
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, engine *core.Engine, jobs *core.JobRunner) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		jobs:   jobs,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Rate.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(middleware.RateLimiter(middleware.PerMinute(s.cfg.Rate.RequestsPerMinute)))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Catalog
		r.Get("/domains", s.handleListDomains)
		r.Get("/tables/{domain}", s.handleListTables)
		r.Get("/schema/{domain}/{table}", s.handleGetSchema)
		r.Get("/options", s.handleOptions)
		r.Get("/ecosystems", s.handleListEcosystems)

		// Synchronous generation, with a tighter rate limit
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(middleware.RateLimiter(middleware.PerMinute(s.cfg.Rate.GenerateLimit)))
			}
			r.Post("/generate", s.handleGenerate)
			r.Post("/generate/history", s.handleGenerateHistory)
			r.Post("/generate/linked", s.handleGenerateLinked)
			r.Post("/generate/ecosystem", s.handleGenerateEcosystem)
			r.Post("/profile/{domain}/{table}", s.handleProfile)
			r.Post("/jobs", s.handleSubmitJob)
		})

		// Background jobs
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Get("/jobs/{id}/profile", s.handleJobProfile)
		r.Delete("/jobs/{id}", s.handleDiscardJob)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
