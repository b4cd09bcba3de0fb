package gesture

import (
	"math"
	"time"

	"github.com/ayusman/airvoxel/internal/canvas"
)

// DefaultDwell is how long a fist must be held before it grabs.
const DefaultDwell = 1000 * time.Millisecond

// GrabState is the per-hand state carried from one frame to the next.
// The zero value is a hand with no fist in progress.
type GrabState struct {
	FistStart time.Time // zero when no fist is being held
	Grabbing  bool
	Anchor    canvas.Point
	HasAnchor bool
}

// Dwelling reports whether a fist dwell timer is running.
func (s GrabState) Dwelling() bool {
	return !s.FistStart.IsZero()
}

// Shift is a whole-grid move in cells.
type Shift struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// GrabTracker turns a sustained fist into integer grid shifts.
type GrabTracker struct {
	Dwell    time.Duration
	GridSize int
}

// NewGrabTracker creates a GrabTracker. Non-positive values fall back to
// a 1s dwell and 40px cells.
func NewGrabTracker(dwell time.Duration, gridSize int) GrabTracker {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	if gridSize <= 0 {
		gridSize = canvas.DefaultGridSize
	}
	return GrabTracker{Dwell: dwell, GridSize: gridSize}
}

// Step advances one hand's state by one frame. wrist is the mirrored canvas
// position of the wrist. It returns the new state and, when ok is true, the
// shift to apply to the grid.
//
// Any frame that is not a fist drops the dwell timer, the grab and the anchor.
// While grabbing, motion under one cell in both axes is absorbed and the
// anchor stays put, so slow drags accumulate until they cross a cell.
func (t GrabTracker) Step(s GrabState, shape Shape, wrist canvas.Point, now time.Time) (next GrabState, shift Shift, ok bool) {
	if shape != ShapeFist {
		return GrabState{}, Shift{}, false
	}

	if !s.Dwelling() {
		s.FistStart = now
	} else if now.Sub(s.FistStart) > t.Dwell {
		s.Grabbing = true
	}

	if !s.Grabbing {
		return s, Shift{}, false
	}

	if !s.HasAnchor {
		s.Anchor = wrist
		s.HasAnchor = true
		return s, Shift{}, false
	}

	dx := wrist.X - s.Anchor.X
	dy := wrist.Y - s.Anchor.Y
	g := float64(t.GridSize)
	if math.Abs(dx) <= g && math.Abs(dy) <= g {
		return s, Shift{}, false
	}

	shift = Shift{DX: roundHalfUp(dx / g), DY: roundHalfUp(dy / g)}
	if shift.DX == 0 && shift.DY == 0 {
		return s, Shift{}, false
	}

	s.Anchor = wrist
	return s, shift, true
}

// roundHalfUp rounds to the nearest integer with halves going toward +Inf.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
