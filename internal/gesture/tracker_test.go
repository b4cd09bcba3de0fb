package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/airvoxel/internal/canvas"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

// holdFist feeds fist frames at the given offsets from t0 with a fixed wrist.
func holdFist(tr GrabTracker, s GrabState, wrist canvas.Point, offsets ...int) GrabState {
	for _, ms := range offsets {
		s, _, _ = tr.Step(s, ShapeFist, wrist, at(ms))
	}
	return s
}

func TestGrabTracker_DwellGating(t *testing.T) {
	tr := NewGrabTracker(DefaultDwell, 40)
	wrist := canvas.Point{X: 100, Y: 100}

	t.Run("never grabs before the dwell elapses", func(t *testing.T) {
		s := GrabState{}
		for ms := 0; ms <= 1000; ms += 10 {
			s, _, _ = tr.Step(s, ShapeFist, wrist, at(ms))
			require.False(t, s.Grabbing, "grabbing at %dms", ms)
		}
		assert.True(t, s.Dwelling())
		assert.Equal(t, t0, s.FistStart)
	})

	t.Run("exactly the dwell does not grab", func(t *testing.T) {
		s := holdFist(tr, GrabState{}, wrist, 0, 1000)
		assert.False(t, s.Grabbing)
	})

	tests := []struct {
		name    string
		offsets []int
	}{
		{name: "two samples", offsets: []int{0, 1001}},
		{name: "30 fps", offsets: func() []int {
			var o []int
			for ms := 0; ms <= 1034; ms += 33 {
				o = append(o, ms)
			}
			return o
		}()},
		{name: "irregular", offsets: []int{0, 5, 480, 999, 1200}},
	}

	for _, tt := range tests {
		t.Run("grabs after the dwell with "+tt.name, func(t *testing.T) {
			s := holdFist(tr, GrabState{}, wrist, tt.offsets...)
			assert.True(t, s.Grabbing)
		})
	}
}

func TestGrabTracker_FirstGrabFrameSetsAnchor(t *testing.T) {
	tr := NewGrabTracker(DefaultDwell, 40)
	wrist := canvas.Point{X: 300, Y: 200}

	s := holdFist(tr, GrabState{}, wrist, 0)
	s, _, ok := tr.Step(s, ShapeFist, wrist, at(1100))

	assert.False(t, ok, "anchoring frame must not shift")
	assert.True(t, s.Grabbing)
	assert.True(t, s.HasAnchor)
	assert.Equal(t, wrist, s.Anchor)
}

func TestGrabTracker_ReleaseCancels(t *testing.T) {
	tr := NewGrabTracker(DefaultDwell, 40)
	wrist := canvas.Point{X: 100, Y: 100}

	s := holdFist(tr, GrabState{}, wrist, 0, 1100)
	require.True(t, s.Grabbing)
	require.True(t, s.HasAnchor)

	for _, shape := range []Shape{ShapeNeither, ShapePinch} {
		released, _, ok := tr.Step(s, shape, wrist, at(1150))
		assert.False(t, ok)
		assert.Equal(t, GrabState{}, released, "%s should reset the hand", shape)
	}

	t.Run("a new fist needs a fresh dwell", func(t *testing.T) {
		s, _, _ := tr.Step(s, ShapeNeither, wrist, at(1150))
		s = holdFist(tr, s, wrist, 1200, 2100)
		assert.False(t, s.Grabbing, "only 900ms since the new fist started")

		s = holdFist(tr, s, wrist, 2201)
		assert.True(t, s.Grabbing)
	})
}

func TestGrabTracker_Shift(t *testing.T) {
	tr := NewGrabTracker(DefaultDwell, 40)
	start := canvas.Point{X: 640, Y: 360}
	grabbed := holdFist(tr, GrabState{}, start, 0, 1200)
	require.True(t, grabbed.HasAnchor)

	tests := []struct {
		name      string
		to        canvas.Point
		wantShift Shift
		wantOK    bool
	}{
		{name: "50px right", to: canvas.Point{X: 690, Y: 360}, wantShift: Shift{DX: 1, DY: 0}, wantOK: true},
		{name: "50px up", to: canvas.Point{X: 640, Y: 310}, wantShift: Shift{DX: 0, DY: -1}, wantOK: true},
		{name: "exactly one cell is absorbed", to: canvas.Point{X: 680, Y: 400}},
		{name: "sub-cell jitter", to: canvas.Point{X: 655, Y: 345}},
		{name: "diagonal rounds each axis", to: canvas.Point{X: 741, Y: 390}, wantShift: Shift{DX: 3, DY: 1}, wantOK: true},
		{name: "half cell rounds up", to: canvas.Point{X: 700, Y: 340}, wantShift: Shift{DX: 2, DY: 0}, wantOK: true},
		{name: "negative half rounds toward zero", to: canvas.Point{X: 580, Y: 380}, wantShift: Shift{DX: -1, DY: 1}, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, shift, ok := tr.Step(grabbed, ShapeFist, tt.to, at(1300))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantShift, shift)
			if ok {
				assert.Equal(t, tt.to, s.Anchor, "anchor should advance on shift")
			} else {
				assert.Equal(t, start, s.Anchor, "anchor should hold on absorbed motion")
			}
		})
	}
}

func TestGrabTracker_SubCellHysteresis(t *testing.T) {
	tr := NewGrabTracker(DefaultDwell, 40)
	wrist := canvas.Point{X: 100, Y: 100}
	s := holdFist(tr, GrabState{}, wrist, 0, 1100)

	var shifts []Shift
	ms := 1100
	for i := 0; i < 5; i++ {
		wrist.X += 10
		ms += 33
		var shift Shift
		var ok bool
		s, shift, ok = tr.Step(s, ShapeFist, wrist, at(ms))
		if ok {
			shifts = append(shifts, shift)
		}
	}

	// 10px steps: 10, 20, 30, 40 stay within one cell; 50 crosses it.
	require.Len(t, shifts, 1)
	assert.Equal(t, Shift{DX: 1, DY: 0}, shifts[0])
	assert.Equal(t, canvas.Point{X: 150, Y: 100}, s.Anchor)
}

func TestGrabTracker_Defaults(t *testing.T) {
	tr := NewGrabTracker(0, 0)
	assert.Equal(t, DefaultDwell, tr.Dwell)
	assert.Equal(t, canvas.DefaultGridSize, tr.GridSize)
}

func TestDescribe(t *testing.T) {
	anchor := canvas.Point{X: 1, Y: 2}

	tests := []struct {
		name  string
		shape Shape
		state GrabState
		want  Status
	}{
		{name: "idle", shape: ShapeNeither, want: Status{State: StateIdle}},
		{name: "pinching", shape: ShapePinch, want: Status{State: StatePinching}},
		{name: "dwelling", shape: ShapeFist, state: GrabState{FistStart: t0}, want: Status{State: StateFistDwelling, Since: t0}},
		{
			name:  "grabbing",
			shape: ShapeFist,
			state: GrabState{FistStart: t0, Grabbing: true, Anchor: anchor, HasAnchor: true},
			want:  Status{State: StateGrabbing, Anchor: anchor},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.shape, tt.state))
		})
	}
}
