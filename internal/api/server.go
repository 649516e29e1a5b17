// Package api is the HTTP boundary over the engine. It translates plain
// JSON requests into engine calls and failed results into status codes;
// the engine itself never sees the wire format.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tde/internal/auth"
	"tde/internal/engine"
	"tde/internal/logging"
)

// Server is the HTTP API server
type Server struct {
	router *http.ServeMux
	server *http.Server
	addr   string
	logger *logging.Logger
	engine *engine.Engine
	tokens *auth.Store
}

// NewServer creates a server over the engine. tokens may be nil when
// authentication is disabled.
func NewServer(addr string, eng *engine.Engine, tokens *auth.Store, logger *logging.Logger) *Server {
	s := &Server{
		addr:   addr,
		logger: logger,
		engine: eng,
		tokens: tokens,
		router: http.NewServeMux(),
	}

	s.registerRoutes()

	handler := s.applyMiddleware(s.router)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": s.addr,
		"auth": s.tokens != nil,
	})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in reverse order so
// the first listed runs outermost
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	if s.tokens != nil {
		handler = AuthMiddleware(s.tokens)(handler)
	}
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware()(handler)
	return handler
}
