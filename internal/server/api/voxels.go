package api

import (
	"net/http"

	"github.com/ayusman/airvoxel/internal/grid"
)

// VoxelsHandler serves the occupied cells and clears them.
type VoxelsHandler struct {
	source VoxelSource
}

// NewVoxelsHandler creates a VoxelsHandler over source.
func NewVoxelsHandler(source VoxelSource) *VoxelsHandler {
	return &VoxelsHandler{source: source}
}

type voxelsResponse struct {
	GridSize int        `json:"grid_size"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Count    int        `json:"count"`
	Voxels   []grid.Key `json:"voxels"`
}

// ServeHTTP handles GET and DELETE on /api/voxels.
func (h *VoxelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w)
	case http.MethodDelete:
		h.source.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *VoxelsHandler) list(w http.ResponseWriter) {
	snap := h.source.Snapshot()

	voxels := snap.Voxels
	if voxels == nil {
		voxels = []grid.Key{}
	}

	writeJSON(w, http.StatusOK, voxelsResponse{
		GridSize: snap.GridSize,
		Width:    snap.Width,
		Height:   snap.Height,
		Count:    len(voxels),
		Voxels:   voxels,
	})
}
