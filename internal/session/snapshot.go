package session

import (
	"time"

	"github.com/ayusman/airvoxel/internal/canvas"
	"github.com/ayusman/airvoxel/internal/detector"
	"github.com/ayusman/airvoxel/internal/gesture"
	"github.com/ayusman/airvoxel/internal/grid"
)

// Snapshot is everything a renderer needs to draw one frame.
type Snapshot struct {
	Time     time.Time  `json:"time"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	GridSize int        `json:"grid_size"`
	Voxels   []grid.Key `json:"voxels"`
	Hands    []Hand     `json:"hands"`
	Events   []Event    `json:"events,omitempty"`
}

// Hand is the per-hand feedback for one frame, in canvas pixels.
type Hand struct {
	Index     int                                `json:"index"`
	Shape     string                             `json:"shape"`
	Status    gesture.Status                     `json:"status"`
	Cursor    canvas.Point                       `json:"cursor"`
	Pinching  bool                               `json:"pinching"`
	Grabbing  bool                               `json:"grabbing"`
	Landmarks [detector.NumLandmarks]canvas.Point `json:"landmarks"`
}

// EventKind names a grid mutation.
type EventKind string

const (
	EventStamp EventKind = "stamp"
	EventShift EventKind = "shift"
)

// Event records a grid mutation caused by a hand during one frame.
type Event struct {
	Hand  int           `json:"hand"`
	Kind  EventKind     `json:"kind"`
	Cell  grid.Key      `json:"cell,omitzero"`
	Shift gesture.Shift `json:"shift,omitzero"`
}

// HandAt returns the hand at index i, if present.
func (s Snapshot) HandAt(i int) (Hand, bool) {
	for _, h := range s.Hands {
		if h.Index == i {
			return h, true
		}
	}
	return Hand{}, false
}
