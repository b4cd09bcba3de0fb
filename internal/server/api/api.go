// Package api provides the JSON HTTP handlers for airvoxel.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/airvoxel/internal/session"
)

// VoxelSource is the live grid the voxel endpoints read and clear.
type VoxelSource interface {
	Snapshot() session.Snapshot
	Clear()
}

// Tuner exposes the live gesture thresholds.
type Tuner interface {
	Tuning() session.Tuning
	SetTuning(t session.Tuning)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
