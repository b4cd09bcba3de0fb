package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/airvoxel/internal/store"
)

// DefaultSessionLimit caps GET /api/sessions without a limit parameter.
const DefaultSessionLimit = 50

// SessionsHandler serves recorded session statistics.
type SessionsHandler struct {
	store   *store.Store
	current func() string
}

// NewSessionsHandler creates a SessionsHandler. current reports the running
// session's ID and may be nil.
func NewSessionsHandler(s *store.Store, current func() string) *SessionsHandler {
	return &SessionsHandler{store: s, current: current}
}

type listSessionsResponse struct {
	Current  string           `json:"current,omitempty"`
	Sessions []*store.Session `json:"sessions"`
}

// ServeHTTP routes /api/sessions and /api/sessions/{id}.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	id = strings.Trim(id, "/")

	if id == "" {
		h.list(w, r)
		return
	}
	h.get(w, id)
}

func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}

	resp := listSessionsResponse{Sessions: sessions}
	if h.current != nil {
		resp.Current = h.current()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionsHandler) get(w http.ResponseWriter, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
