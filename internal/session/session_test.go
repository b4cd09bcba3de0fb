package session

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/airvoxel/internal/detector"
	"github.com/ayusman/airvoxel/internal/gesture"
	"github.com/ayusman/airvoxel/internal/grid"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func hands(h ...detector.HandLandmarks) []detector.HandLandmarks {
	return h
}

// pixelsRight moves a hand by px display pixels to the right on a 1280-wide
// canvas. The display is mirrored, so raw X decreases.
func pixelsRight(h detector.HandLandmarks, px float64) detector.HandLandmarks {
	return h.Translate(-px/1280, 0)
}

// holdFist feeds one fist frame every step ms from start to end inclusive.
func holdFist(s *Session, hand detector.HandLandmarks, start, end, step int) Snapshot {
	var snap Snapshot
	for ms := start; ms <= end; ms += step {
		snap = s.Process(hands(hand), at(ms))
	}
	return snap
}

func TestSession_PinchStampsCell(t *testing.T) {
	s := New(DefaultConfig())

	snap := s.Process(hands(detector.PinchLandmarks()), at(0))

	assert.Equal(t, []grid.Key{{X: 16, Y: 9}}, snap.Voxels)
	require.Len(t, snap.Hands, 1)
	h := snap.Hands[0]
	assert.True(t, h.Pinching)
	assert.False(t, h.Grabbing)
	assert.Equal(t, gesture.StatePinching, h.Status.State)
	assert.InDelta(t, 640, h.Cursor.X, 1e-9)
	assert.InDelta(t, 362.16, h.Cursor.Y, 1e-9)
	assert.Equal(t, []Event{{Hand: 0, Kind: EventStamp, Cell: grid.Key{X: 16, Y: 9}}}, snap.Events)
}

func TestSession_StampIsIdempotent(t *testing.T) {
	s := New(DefaultConfig())

	s.Process(hands(detector.PinchLandmarks()), at(0))
	snap := s.Process(hands(detector.PinchLandmarks()), at(33))

	assert.Equal(t, []grid.Key{{X: 16, Y: 9}}, snap.Voxels)
	assert.Empty(t, snap.Events, "re-stamping an occupied cell is not a mutation")
	assert.Equal(t, int64(1), s.Stats().Stamps)
}

// Mirroring applies to stamping: a pinch on the raw left side of the camera
// image lands on the right side of the canvas.
func TestSession_StampUsesMirroredX(t *testing.T) {
	s := New(DefaultConfig())

	left := detector.PinchLandmarks().Translate(-0.4, 0) // index tip raw x = 0.10
	snap := s.Process(hands(left), at(0))

	require.Len(t, snap.Voxels, 1)
	assert.Equal(t, 28, snap.Voxels[0].X, "(1-0.10)*1280 = 1152 -> column 28")
}

func TestSession_FistGrabAndShift(t *testing.T) {
	s := New(DefaultConfig())
	s.Grid().Stamp(grid.Key{X: 3, Y: 3})
	fist := detector.FistLandmarks()

	snap := holdFist(s, fist, 0, 900, 100)
	require.Len(t, snap.Hands, 1)
	assert.Equal(t, gesture.StateFistDwelling, snap.Hands[0].Status.State)
	assert.Equal(t, t0, snap.Hands[0].Status.Since)
	assert.False(t, snap.Hands[0].Grabbing)

	snap = holdFist(s, fist, 1000, 1200, 100)
	assert.True(t, snap.Hands[0].Grabbing, "grabbing after 1000ms")
	assert.Equal(t, gesture.StateGrabbing, snap.Hands[0].Status.State)
	assert.Equal(t, []grid.Key{{X: 3, Y: 3}}, snap.Voxels, "anchoring does not move the grid")

	snap = s.Process(hands(pixelsRight(fist, 50)), at(1300))
	assert.Equal(t, []Event{{Hand: 0, Kind: EventShift, Shift: gesture.Shift{DX: 1, DY: 0}}}, snap.Events)
	assert.Equal(t, []grid.Key{{X: 4, Y: 3}}, snap.Voxels)
	assert.Equal(t, int64(1), s.Stats().Shifts)
}

func TestSession_GrabBecomesTrueAfterDwell(t *testing.T) {
	s := New(DefaultConfig())
	fist := detector.FistLandmarks()

	snap := s.Process(hands(fist), at(0))
	assert.False(t, snap.Hands[0].Grabbing)

	snap = s.Process(hands(fist), at(1000))
	assert.False(t, snap.Hands[0].Grabbing, "the dwell must be exceeded, not just reached")

	snap = s.Process(hands(fist), at(1001))
	assert.True(t, snap.Hands[0].Grabbing)
}

func TestSession_ReleaseCancelsGrab(t *testing.T) {
	s := New(DefaultConfig())
	fist := detector.FistLandmarks()

	snap := holdFist(s, fist, 0, 1100, 100)
	require.True(t, snap.Hands[0].Grabbing)

	snap = s.Process(hands(detector.OpenPalmLandmarks()), at(1133))
	assert.False(t, snap.Hands[0].Grabbing)
	assert.Equal(t, gesture.StateIdle, snap.Hands[0].Status.State)

	snap = holdFist(s, fist, 1166, 2166, 100)
	assert.False(t, snap.Hands[0].Grabbing, "a new fist needs a full dwell")

	// The anchor was forgotten: the first grabbing frame re-anchors even
	// though the wrist is far from where the old grab ended.
	moved := pixelsRight(fist, 200)
	snap = s.Process(hands(moved), at(2200))
	require.True(t, snap.Hands[0].Grabbing)
	assert.Empty(t, snap.Events)
}

func TestSession_FistSuppressesPinchStamp(t *testing.T) {
	s := New(DefaultConfig())
	both := detector.PinchAndFistLandmarks()

	for ms := 0; ms <= 1500; ms += 50 {
		snap := s.Process(hands(both), at(ms))
		require.Empty(t, snap.Voxels, "stamped at %dms", ms)
		assert.Equal(t, "fist", snap.Hands[0].Shape)
		assert.False(t, snap.Hands[0].Pinching)
	}
	assert.Equal(t, int64(0), s.Stats().Stamps)
}

func TestSession_SubCellMotionAccumulates(t *testing.T) {
	s := New(DefaultConfig())
	s.Grid().Stamp(grid.Key{X: 0, Y: 0})
	fist := detector.FistLandmarks()
	holdFist(s, fist, 0, 1100, 100)

	var shifts int
	ms := 1100
	for px := 15.0; px <= 90; px += 15 {
		ms += 33
		snap := s.Process(hands(pixelsRight(fist, px)), at(ms))
		shifts += len(snap.Events)
	}

	// 15, 30 absorbed; 45 shifts and re-anchors; 60, 75 absorbed; 90 shifts.
	assert.Equal(t, 2, shifts)
	assert.Equal(t, []grid.Key{{X: 2, Y: 0}}, s.Voxels())
}

func TestSession_ZeroHandsResetsState(t *testing.T) {
	s := New(DefaultConfig())
	fist := detector.FistLandmarks()

	holdFist(s, fist, 0, 900, 100)
	snap := s.Process(nil, at(950))
	assert.Empty(t, snap.Hands)
	assert.Empty(t, snap.Events)

	snap = holdFist(s, fist, 1000, 1900, 100)
	assert.False(t, snap.Hands[0].Grabbing, "dwell must restart after an empty frame")
	assert.Equal(t, at(1000), snap.Hands[0].Status.Since)

	snap = s.Process(hands(fist), at(2001))
	assert.True(t, snap.Hands[0].Grabbing)
}

func TestSession_ZeroHandsLeavesGridAlone(t *testing.T) {
	s := New(DefaultConfig())
	s.Process(hands(detector.PinchLandmarks()), at(0))

	snap := s.Process(hands(), at(33))
	assert.Equal(t, []grid.Key{{X: 16, Y: 9}}, snap.Voxels)
}

func TestSession_HandsAreIndependent(t *testing.T) {
	s := New(DefaultConfig())
	fist := detector.FistLandmarks()
	pinch := detector.PinchLandmarks()

	for ms := 0; ms <= 1100; ms += 100 {
		s.Process(hands(pinch, fist), at(ms))
	}
	snap := s.Process(hands(pinch, fist), at(1200))

	require.Len(t, snap.Hands, 2)
	assert.True(t, snap.Hands[0].Pinching)
	assert.True(t, snap.Hands[1].Grabbing)
	assert.Equal(t, []grid.Key{{X: 16, Y: 9}}, snap.Voxels)

	// Hand 0 stamps, then hand 1 drags everything including the new stamp.
	snap = s.Process(hands(pinch.Translate(0, 0.1), pixelsRight(fist, 50)), at(1300))
	if diff := cmp.Diff([]grid.Key{{X: 17, Y: 9}, {X: 17, Y: 10}}, snap.Voxels); diff != "" {
		t.Errorf("unexpected voxels (-want +got):\n%s", diff)
	}
	assert.Equal(t, []Event{
		{Hand: 0, Kind: EventStamp, Cell: grid.Key{X: 16, Y: 10}},
		{Hand: 1, Kind: EventShift, Shift: gesture.Shift{DX: 1}},
	}, snap.Events)
}

func TestSession_VanishedHandResets(t *testing.T) {
	s := New(DefaultConfig())
	fist := detector.FistLandmarks()
	palm := detector.OpenPalmLandmarks()

	for ms := 0; ms <= 800; ms += 100 {
		s.Process(hands(palm, fist), at(ms))
	}
	s.Process(hands(palm), at(850))

	snap := s.Process(hands(palm, fist), at(1100))
	require.Len(t, snap.Hands, 2)
	assert.Equal(t, gesture.StateFistDwelling, snap.Hands[1].Status.State)
	assert.Equal(t, at(1100), snap.Hands[1].Status.Since)
}

func TestSession_MaxHands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHands = 1
	s := New(cfg)

	snap := s.Process(hands(detector.OpenPalmLandmarks(), detector.PinchLandmarks()), at(0))
	assert.Len(t, snap.Hands, 1)
	assert.Empty(t, snap.Voxels, "the second hand is beyond max_hands")
}

func TestSession_Clear(t *testing.T) {
	s := New(DefaultConfig())
	s.Process(hands(detector.PinchLandmarks()), at(0))
	s.Process(hands(detector.PinchLandmarks().Translate(0, 0.1)), at(33))
	require.Equal(t, 2, s.Grid().Len())

	s.Clear()
	assert.Empty(t, s.Voxels())
	assert.Empty(t, s.Snapshot().Voxels)
	assert.Equal(t, int64(1), s.Stats().Clears)

	fresh := New(DefaultConfig())
	for _, sess := range []*Session{s, fresh} {
		sess.Grid().ShiftAll(3, 3)
		sess.Process(hands(detector.PinchLandmarks()), at(100))
	}
	assert.Equal(t, fresh.Voxels(), s.Voxels())
}

func TestSession_SetTuning(t *testing.T) {
	s := New(DefaultConfig())

	s.SetTuning(Tuning{Dwell: 500 * time.Millisecond})
	got := s.Tuning()
	assert.Equal(t, 500*time.Millisecond, got.Dwell)
	assert.Equal(t, gesture.DefaultPinchThreshold, got.PinchThreshold, "zero fields keep their value")

	fist := detector.FistLandmarks()
	s.Process(hands(fist), at(0))
	snap := s.Process(hands(fist), at(501))
	assert.True(t, snap.Hands[0].Grabbing)

	s.SetTuning(Tuning{PinchThreshold: 0.001})
	s.Process(nil, at(600))
	snap = s.Process(hands(detector.PinchLandmarks()), at(700))
	assert.False(t, snap.Hands[0].Pinching, "0.003 gap exceeds a 0.001 threshold")
}

func TestSession_Defaults(t *testing.T) {
	s := New(Config{})

	assert.Equal(t, DefaultConfig().Thresholds, s.config.Thresholds)
	assert.Equal(t, gesture.DefaultDwell, s.Tuning().Dwell)
	m := s.Mapper()
	assert.Equal(t, 1280, m.Width)
	assert.Equal(t, 720, m.Height)
	assert.Equal(t, 40, m.GridSize)

	snap := s.Snapshot()
	assert.Equal(t, 40, snap.GridSize)
	assert.Empty(t, snap.Voxels)
}

func TestSnapshot_HandAt(t *testing.T) {
	snap := Snapshot{Hands: []Hand{{Index: 0}, {Index: 1, Grabbing: true}}}

	h, ok := snap.HandAt(1)
	require.True(t, ok)
	assert.True(t, h.Grabbing)

	_, ok = snap.HandAt(2)
	assert.False(t, ok)
}

func TestStats_Sub(t *testing.T) {
	now := Stats{Frames: 10, Stamps: 4, Shifts: 2, Clears: 1}
	prev := Stats{Frames: 3, Stamps: 1}
	assert.Equal(t, Stats{Frames: 7, Stamps: 3, Shifts: 2, Clears: 1}, now.Sub(prev))
}
