package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/csbs/studyportal/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Services groups the domain services the HTTP API exposes.
type Services struct {
	Works     *work.Service
	Portions  *portion.Service
	Materials *material.Service
	Activity  *activity.Service
}

// Config configures the HTTP server.
type Config struct {
	Services Services
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	// Verifier enables bearer-token auth when non-nil.
	Verifier TokenVerifier
	// MCPHandler is mounted at /mcp when non-nil.
	MCPHandler http.Handler
}

// Server wires HTTP handlers.
type Server struct {
	services  Services
	logger    *zap.Logger
	metrics   *metrics.Metrics
	validator *Validator
	authOn    bool
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &Server{
		services:  cfg.Services,
		logger:    logger,
		metrics:   cfg.Metrics,
		validator: NewValidator(),
		authOn:    cfg.Verifier != nil,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(AccessLog(logger))
	r.Use(cfg.Metrics.Middleware)
	if cfg.Verifier != nil {
		r.Use(AuthMiddleware(cfg.Verifier))
	}

	r.Get("/health", srv.handleHealth)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	if cfg.MCPHandler != nil {
		r.Handle("/mcp", cfg.MCPHandler)
		r.Handle("/mcp/*", cfg.MCPHandler)
	}

	srv.routes(r)
	r.Route("/api", srv.routes)

	return r
}

func (s *Server) routes(r chi.Router) {
	r.Get("/works", s.handleListWorks)
	r.Get("/work/{id}", s.handleGetWork)
	r.With(s.admin).Post("/work/add", s.handleAddWork)
	r.With(s.user).Post("/work/status/{id}", s.handleSetStatus)
	r.With(s.admin).Delete("/work/{id}", s.handleDeleteWork)

	r.Get("/portions", s.handleListPortions)
	r.Post("/portions", s.handleAddTopic)

	r.Get("/materials", s.handleListMaterials)
	r.Post("/materials", s.handleAddMaterial)

	r.Get("/activity", s.handleListActivity)
}

// admin guards a route with RequireAdmin when auth is on.
func (s *Server) admin(next http.Handler) http.Handler {
	if !s.authOn {
		return next
	}
	return RequireAdmin(next)
}

// user guards a route with RequireIdentity when auth is on.
func (s *Server) user(next http.Handler) http.Handler {
	if !s.authOn {
		return next
	}
	return RequireIdentity(next)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// decodeAndValidate reads a JSON body into dst and validates it. It writes the
// error response itself and returns false on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, errBadBody)
		return false
	}
	if fields := s.validator.Struct(dst); fields != nil {
		writeValidation(w, fields)
		return false
	}
	return true
}
