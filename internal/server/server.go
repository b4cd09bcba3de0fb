// Package server provides the HTTP server for the airvoxel web UI.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/airvoxel/internal/server/api"
	"github.com/ayusman/airvoxel/internal/store"
)

// Config holds the server's collaborators. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir      string
	Store          *store.Store
	Voxels         api.VoxelSource
	Tuner          api.Tuner
	Frames         FrameSource
	StreamInterval time.Duration
	CurrentSession func() string
}

// Server is the airvoxel HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	state  *StateHandler
	start  time.Time
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		state:  NewStateHandler(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/state", s.state)

	if s.config.Voxels != nil {
		s.mux.Handle("/api/voxels", api.NewVoxelsHandler(s.config.Voxels))
	}

	if s.config.Tuner != nil {
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Tuner, s.config.Store))
	}

	if s.config.Store != nil {
		sessions := api.NewSessionsHandler(s.config.Store, s.config.CurrentSession)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames, s.config.StreamInterval))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// State returns the WebSocket broadcaster. Register it as a renderer to
// feed /api/state.
func (s *Server) State() *StateHandler {
	return s.state
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Clients int    `json:"clients"`
	Voxels  *int   `json:"voxels,omitempty"`
	Session string `json:"session,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.start).Round(time.Second).String(),
		Clients: s.state.Clients(),
	}
	if s.config.Voxels != nil {
		n := len(s.config.Voxels.Snapshot().Voxels)
		response.Voxels = &n
	}
	if s.config.CurrentSession != nil {
		response.Session = s.config.CurrentSession()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
