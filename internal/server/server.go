// Package server provides the HTTP and websocket front end of the form coach.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/app"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/server/api"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/store"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	// App enables the session and live websockets.
	App *app.App
}

// Server represents the HTTP server.
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

	if s.config.Store != nil {
		workouts := api.NewWorkoutHandler(s.config.Store)
		s.mux.Handle("/api/workouts", workouts)
		s.mux.Handle("/api/workouts/", workouts)
	}

	if s.config.App != nil {
		s.mux.Handle("/api/session", NewSessionHandler(s.config.App))
		if hub := s.config.App.Hub(); hub != nil {
			s.mux.Handle("/api/live", NewLiveHandler(hub))
		}
	}

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
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["enabled"] = a.IsEnabled()
		response["active_workouts"] = len(a.ActiveWorkouts())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
