// Package server provides the HTTP server for the handtrack service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/logger"
	"github.com/ayusman/handtrack/internal/recorder"
	"github.com/ayusman/handtrack/internal/server/api"
	"github.com/ayusman/handtrack/internal/store"
	"github.com/ayusman/handtrack/internal/tracker"
)

// Config holds the server configuration.
type Config struct {
	StaticDir     string
	Store         *store.Store
	Detector      detector.Detector
	Tracker       tracker.Config
	MaxImageBytes int64
}

// Server represents the HTTP server for the handtrack service.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	var rec *recorder.Recorder
	if s.config.Store != nil {
		rec = recorder.New(s.config.Store)

		snapshotsHandler := api.NewSnapshotsHandler(s.config.Store)
		s.mux.Handle("/api/snapshots", snapshotsHandler)
		s.mux.Handle("/api/snapshots/", snapshotsHandler)
	}

	// Register hand tracking endpoints if a Detector is configured
	if s.config.Detector != nil {
		handsHandler := api.NewHandsHandler(s.config.Detector, s.config.Tracker, rec, s.config.MaxImageBytes)
		s.mux.Handle("/api/hands", handsHandler)
		s.mux.Handle("/api/hands/", handsHandler)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":   "ok",
		"uptime":   time.Since(s.start).String(),
		"detector": s.config.Detector != nil,
		"store":    s.config.Store != nil,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	logger.L().Info("starting server", zap.String("addr", addr))
	return http.ListenAndServe(addr, s)
}
