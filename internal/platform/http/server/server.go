// Package server provides HTTP server wiring and lifecycle management.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shareack/shareack/internal/components/api/auth"
	"github.com/shareack/shareack/internal/components/api/invitations"
	"github.com/shareack/shareack/internal/platform/config"
	"github.com/shareack/shareack/internal/platform/logutil"
)

// Handlers bundles the endpoint handlers mounted by the server.
type Handlers struct {
	Auth        *auth.Handler
	Invitations *invitations.Handler

	// DriverName is reported by the health endpoint.
	DriverName string
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	logger     *slog.Logger
	handlers   Handlers
}

// New creates a new Server with the given configuration and handlers.
func New(cfg *config.Config, logger *slog.Logger, handlers Handlers) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logutil.NoopIfNil(logger),
		handlers: handlers,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server. It blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.cfg.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
