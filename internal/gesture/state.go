package gesture

import (
	"time"

	"github.com/ayusman/airvoxel/internal/canvas"
)

// State is the gesture a hand is in, for display and logging.
type State string

const (
	StateIdle         State = "idle"
	StatePinching     State = "pinching"
	StateFistDwelling State = "fist_dwelling"
	StateGrabbing     State = "grabbing"
)

// Status is a hand's derived State with the data that belongs to it.
// Since is set for StateFistDwelling and Anchor for StateGrabbing.
type Status struct {
	State  State        `json:"state"`
	Since  time.Time    `json:"since,omitzero"`
	Anchor canvas.Point `json:"anchor,omitzero"`
}

// Describe derives a hand's Status from this frame's shape and the state
// after Step.
func Describe(shape Shape, s GrabState) Status {
	switch {
	case s.Grabbing:
		return Status{State: StateGrabbing, Anchor: s.Anchor}
	case s.Dwelling():
		return Status{State: StateFistDwelling, Since: s.FistStart}
	case shape == ShapePinch:
		return Status{State: StatePinching}
	default:
		return Status{State: StateIdle}
	}
}
