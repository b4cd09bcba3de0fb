// Package session runs the per-frame gesture core: it classifies each hand,
// advances its grab state and applies the resulting stamps and shifts to the
// voxel grid.
package session

import (
	"sync"
	"time"

	"github.com/ayusman/airvoxel/internal/canvas"
	"github.com/ayusman/airvoxel/internal/detector"
	"github.com/ayusman/airvoxel/internal/gesture"
	"github.com/ayusman/airvoxel/internal/grid"
)

// DefaultMaxHands is the number of hands processed per frame.
const DefaultMaxHands = 2

// Config holds the tunable parameters of a Session.
type Config struct {
	Thresholds gesture.Thresholds
	Dwell      time.Duration
	GridSize   int
	Width      int
	Height     int
	MaxHands   int
}

// DefaultConfig returns the standard tuning for a 1280x720 canvas.
func DefaultConfig() Config {
	return Config{
		Thresholds: gesture.DefaultThresholds(),
		Dwell:      gesture.DefaultDwell,
		GridSize:   canvas.DefaultGridSize,
		Width:      canvas.DefaultWidth,
		Height:     canvas.DefaultHeight,
		MaxHands:   DefaultMaxHands,
	}
}

// Tuning is the subset of Config that can change while a session runs.
type Tuning struct {
	PinchThreshold float64       `json:"pinch_threshold"`
	FistThreshold  float64       `json:"fist_threshold"`
	Dwell          time.Duration `json:"-"`
}

// Stats counts what a session has done since it started.
type Stats struct {
	Frames int64 `json:"frames"`
	Stamps int64 `json:"stamps"`
	Shifts int64 `json:"shifts"`
	Clears int64 `json:"clears"`
}

// Sub returns the counts accumulated since prev.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		Frames: s.Frames - prev.Frames,
		Stamps: s.Stamps - prev.Stamps,
		Shifts: s.Shifts - prev.Shifts,
		Clears: s.Clears - prev.Clears,
	}
}

// Session owns the voxel grid and the per-hand gesture state.
//
// Hands are identified by their index in the detector output. The upstream
// tracker does not guarantee that index stays with the same physical hand
// across occlusion, so identity is best-effort.
type Session struct {
	mu         sync.Mutex
	config     Config
	mapper     canvas.Mapper
	classifier *gesture.Classifier
	tracker    gesture.GrabTracker
	grid       *grid.Store
	hands      []gesture.GrabState
	last       Snapshot
	stats      Stats
}

// New creates a Session with an empty grid.
func New(config Config) *Session {
	d := DefaultConfig()
	if config.GridSize <= 0 {
		config.GridSize = d.GridSize
	}
	if config.Width <= 0 {
		config.Width = d.Width
	}
	if config.Height <= 0 {
		config.Height = d.Height
	}
	if config.MaxHands <= 0 {
		config.MaxHands = d.MaxHands
	}

	s := &Session{
		config:     config,
		mapper:     canvas.Mapper{Width: config.Width, Height: config.Height, GridSize: config.GridSize},
		classifier: gesture.NewClassifier(config.Thresholds),
		tracker:    gesture.NewGrabTracker(config.Dwell, config.GridSize),
		grid:       grid.New(),
	}
	s.config.Thresholds = s.classifier.Thresholds()
	s.config.Dwell = s.tracker.Dwell
	s.last = s.snapshotLocked(nil, time.Time{})
	return s
}

// Process runs one frame of hands through the gesture core and returns the
// resulting snapshot. A frame with no hands resets every hand's state.
func (s *Session) Process(hands []detector.HandLandmarks, now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	hands = detector.Limit(hands, s.config.MaxHands)

	// Hands that are gone cannot be mid-fist.
	if len(s.hands) > len(hands) {
		s.hands = s.hands[:len(hands)]
	}
	for len(s.hands) < len(hands) {
		s.hands = append(s.hands, gesture.GrabState{})
	}

	views := make([]Hand, len(hands))
	var events []Event
	for i := range hands {
		views[i], events = s.processHand(i, &hands[i], now, events)
	}

	s.stats.Frames++
	s.last = s.snapshotLocked(views, now)
	s.last.Events = events
	return s.last
}

func (s *Session) processHand(i int, hand *detector.HandLandmarks, now time.Time, events []Event) (Hand, []Event) {
	shape := s.classifier.Classify(hand)
	wrist := s.mapper.ToPixel(hand.Points[detector.Wrist])
	cursor := s.mapper.ToPixel(hand.Points[detector.IndexTip])

	state, shift, ok := s.tracker.Step(s.hands[i], shape, wrist, now)
	s.hands[i] = state

	if ok {
		s.grid.ShiftAll(shift.DX, shift.DY)
		s.stats.Shifts++
		events = append(events, Event{Hand: i, Kind: EventShift, Shift: shift})
	}

	// A grab suppresses stamping even when the pinch geometry also holds.
	if shape == gesture.ShapePinch && !state.Grabbing {
		key := s.mapper.CellAt(cursor)
		if s.grid.Stamp(key) {
			s.stats.Stamps++
			events = append(events, Event{Hand: i, Kind: EventStamp, Cell: key})
		}
	}

	var landmarks [detector.NumLandmarks]canvas.Point
	for j, p := range hand.Points {
		landmarks[j] = s.mapper.ToPixel(p)
	}

	status := gesture.Describe(shape, state)
	return Hand{
		Index:     i,
		Shape:     shape.String(),
		Status:    status,
		Cursor:    cursor,
		Pinching:  status.State == gesture.StatePinching,
		Grabbing:  state.Grabbing,
		Landmarks: landmarks,
	}, events
}

// Clear empties the grid. Gesture state is left alone.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grid.Clear()
	s.stats.Clears++
	s.last.Voxels = nil
}

// Snapshot returns the state produced by the most recent frame, with the
// grid read fresh so out-of-band clears are visible.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.last
	snap.Voxels = s.grid.Keys()
	snap.Events = nil
	return snap
}

// Voxels returns the occupied cells ordered by row, then column.
func (s *Session) Voxels() []grid.Key {
	return s.grid.Keys()
}

// Grid returns the session's voxel store.
func (s *Session) Grid() *grid.Store {
	return s.grid
}

// Mapper returns the canvas mapping in use.
func (s *Session) Mapper() canvas.Mapper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapper
}

// Stats returns the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Tuning returns the live thresholds and dwell.
func (s *Session) Tuning() Tuning {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.classifier.Thresholds()
	return Tuning{
		PinchThreshold: t.Pinch,
		FistThreshold:  t.Fist,
		Dwell:          s.tracker.Dwell,
	}
}

// SetTuning replaces thresholds and dwell. Zero fields keep their current
// value. Hands already dwelling keep their start time.
func (s *Session) SetTuning(t Tuning) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.classifier.Thresholds()
	if t.PinchThreshold > 0 {
		current.Pinch = t.PinchThreshold
	}
	if t.FistThreshold > 0 {
		current.Fist = t.FistThreshold
	}
	s.classifier = gesture.NewClassifier(current)
	s.config.Thresholds = current

	if t.Dwell > 0 {
		s.tracker.Dwell = t.Dwell
		s.config.Dwell = t.Dwell
	}
}

func (s *Session) snapshotLocked(hands []Hand, now time.Time) Snapshot {
	return Snapshot{
		Time:     now,
		Width:    s.mapper.Width,
		Height:   s.mapper.Height,
		GridSize: s.mapper.GridSize,
		Voxels:   s.grid.Keys(),
		Hands:    hands,
	}
}
