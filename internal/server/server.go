package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ainews/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	healthPingTimeout = 2 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server mounts the routes of every enabled feature behind shared middleware
type Server struct {
	config   *core.Config
	logger   *core.Logger
	db       *core.Database
	registry *core.Registry
	server   *http.Server
}

// New creates the HTTP server. Features must already be registered.
func New(config *core.Config, logger *core.Logger, db *core.Database, registry *core.Registry) *Server {
	s := &Server{
		config:   config,
		logger:   logger,
		db:       db,
		registry: registry,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)

	mux.Get("/health", s.healthHandler)

	for _, route := range s.registry.GetAllRoutes() {
		mux.Method(route.Method, route.Path, route.Handler)
	}

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		core.HandleError(w, core.NewNotFoundError("route not found", nil))
	})

	return mux
}

// healthHandler reports whether the store answers a ping
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	dbStatus := "ok"
	if err := s.db.PingWithTimeout(healthPingTimeout); err != nil {
		s.logger.Error("Health check ping failed", "error", err)
		status = http.StatusServiceUnavailable
		dbStatus = "unreachable"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	core.WriteJSON(w, status, map[string]any{
		"status":   overall,
		"service":  "ainews",
		"database": dbStatus,
		"features": s.registry.GetFeatureStatus(),
	})
}

// Start initializes all features and serves until Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}

	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops features, the HTTP server and the database, in that order
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
