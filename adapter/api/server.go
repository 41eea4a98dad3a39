// Package api provides the HTTP surface of the coordination service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Server is the coordination HTTP server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *CoordinationHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new coordination API server.
func NewServer(cfg ServerConfig, handler *CoordinationHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:     mux,
		logger:  logger,
		handler: handler,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/coordination/rooms", s.handler.CreateRoom)
	s.mux.HandleFunc("POST /api/coordination/rooms/join", s.handler.JoinRoom)
	s.mux.HandleFunc("GET /api/coordination/rooms/{roomID}", s.handler.GetRoom)
	s.mux.HandleFunc("POST /api/coordination/rooms/{roomID}/run-schedule", s.handler.RunSchedule)
	s.mux.HandleFunc("POST /api/coordination/rooms/{roomID}/confirm-schedule", s.handler.ConfirmSchedule)
	s.mux.HandleFunc("POST /api/coordination/rooms/{roomID}/parse-exchange-request", s.handler.ParseExchangeRequest)
	s.mux.HandleFunc("POST /api/coordination/rooms/{roomID}/smart-exchange", s.handler.SmartExchange)
	s.mux.HandleFunc("POST /api/coordination/requests/{requestID}/approve", s.handler.ApproveRequest)
	s.mux.HandleFunc("POST /api/coordination/requests/{requestID}/reject", s.handler.RejectRequest)
	s.mux.HandleFunc("DELETE /api/coordination/requests/{requestID}", s.handler.CancelRequest)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting coordination API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down coordination API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}
