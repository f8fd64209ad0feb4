// Package server provides the HTTP API: state, mode switching, photos, the
// live websocket and the camera preview stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/wenxinhu03/christmas-tree2/internal/interaction"
	"github.com/wenxinhu03/christmas-tree2/internal/server/api"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
	"github.com/wenxinhu03/christmas-tree2/internal/store"
)

// PointerInput receives pointer events forwarded from browser clients.
// *interaction.Controller implements it.
type PointerInput interface {
	Press(x, y float64)
	Move(p interaction.Pointer)
	Release()
	DoublePress()
}

// Config holds the server configuration. Routes whose dependency is nil
// are not registered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	State      *state.State
	Modes      api.ModeSwitcher
	Pointer    PointerInput
	Frames     FrameSource
	PhotoSlots int
	Logger     *slog.Logger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.PhotoSlots <= 0 {
		config.PhotoSlots = interaction.DefaultPhotoSlots
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.State != nil {
		stateHandler := api.NewStateHandler(s.config.State, s.config.Modes)
		s.mux.HandleFunc("/api/state", stateHandler.State)
		s.mux.HandleFunc("/api/mode", stateHandler.Mode)

		live := NewLiveHandler(s.config.State, s.config.Pointer, s.logger)
		s.mux.Handle("/api/live", live)
	}

	if s.config.Store != nil {
		photoHandler := api.NewPhotoHandler(s.config.Store, s.config.PhotoSlots, s.logger)
		s.mux.Handle("/api/photos", photoHandler)
		s.mux.Handle("/api/photos/", photoHandler)
		s.mux.HandleFunc("/api/slots", photoHandler.Slots)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames, s.logger))
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

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.State != nil {
		response["mode"] = s.config.State.Mode()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
