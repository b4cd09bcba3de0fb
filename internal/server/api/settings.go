package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/airvoxel/internal/config"
	"github.com/ayusman/airvoxel/internal/session"
	"github.com/ayusman/airvoxel/internal/store"
)

// SettingsHandler reads and updates the live gesture tuning. Updates are
// applied to the running session and, when a store is configured,
// persisted so the next start picks them up.
type SettingsHandler struct {
	tuner Tuner
	store *store.Store
}

// NewSettingsHandler creates a SettingsHandler. s may be nil.
func NewSettingsHandler(tuner Tuner, s *store.Store) *SettingsHandler {
	return &SettingsHandler{tuner: tuner, store: s}
}

type settingsResponse struct {
	PinchThreshold float64 `json:"pinch_threshold"`
	FistThreshold  float64 `json:"fist_threshold"`
	DwellMs        int64   `json:"dwell_ms"`
}

type updateSettingsRequest struct {
	PinchThreshold *float64 `json:"pinch_threshold"`
	FistThreshold  *float64 `json:"fist_threshold"`
	DwellMs        *int     `json:"dwell_ms"`
}

func toSettingsResponse(t session.Tuning) settingsResponse {
	return settingsResponse{
		PinchThreshold: t.PinchThreshold,
		FistThreshold:  t.FistThreshold,
		DwellMs:        t.Dwell.Milliseconds(),
	}
}

// ServeHTTP handles GET and PUT on /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toSettingsResponse(h.tuner.Tuning()))
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	current := h.tuner.Tuning()
	cfg := config.Default()
	cfg.Gesture.PinchThreshold = current.PinchThreshold
	cfg.Gesture.FistThreshold = current.FistThreshold
	cfg.Gesture.DwellMs = int(current.Dwell.Milliseconds())

	if req.PinchThreshold != nil {
		cfg.Gesture.PinchThreshold = *req.PinchThreshold
	}
	if req.FistThreshold != nil {
		cfg.Gesture.FistThreshold = *req.FistThreshold
	}
	if req.DwellMs != nil {
		cfg.Gesture.DwellMs = *req.DwellMs
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to validate settings")
		return
	}

	tuning := session.Tuning{
		PinchThreshold: cfg.Gesture.PinchThreshold,
		FistThreshold:  cfg.Gesture.FistThreshold,
		Dwell:          time.Duration(cfg.Gesture.DwellMs) * time.Millisecond,
	}

	if h.store != nil {
		if err := h.store.Settings().SetAll(config.TuningSettings(tuning)); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}

	h.tuner.SetTuning(tuning)
	log.Printf("Tuning updated: pinch=%.3f fist=%.3f dwell=%dms",
		tuning.PinchThreshold, tuning.FistThreshold, cfg.Gesture.DwellMs)

	writeJSON(w, http.StatusOK, toSettingsResponse(h.tuner.Tuning()))
}
