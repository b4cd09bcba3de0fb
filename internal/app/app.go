// Package app runs the airvoxel capture pipeline: camera frames go to the
// hand detector, detected hands go through the gesture session, and the
// resulting snapshots go to the renderers.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/airvoxel/internal/capture"
	"github.com/ayusman/airvoxel/internal/detector"
	"github.com/ayusman/airvoxel/internal/gesture"
	"github.com/ayusman/airvoxel/internal/render"
	"github.com/ayusman/airvoxel/internal/session"
	"github.com/ayusman/airvoxel/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while nothing moves.
	IdleFPS = 5
	// ActiveFPS is the frame rate while hands are being tracked.
	ActiveFPS = 15
	// IdleTimeout is how long without motion before dropping to IdleFPS.
	IdleTimeout = 2 * time.Second
	// DefaultFlushInterval is how often session counters are written to the store.
	DefaultFlushInterval = 5 * time.Second
)

// Config holds the collaborators and options for an App. Session is
// required; everything else has a default or is optional.
type Config struct {
	Session       *session.Session
	Store         *store.Store
	Camera        capture.Camera
	CameraConfig  capture.Config
	MotionThresh  float64
	Detector      detector.Detector
	DetectorConf  detector.Config
	Overlay       *render.Overlay
	Renderers     []render.Renderer
	FlushInterval time.Duration
}

// App orchestrates capture, detection, the gesture session and rendering.
type App struct {
	config  Config
	session *session.Session
	camera  capture.Camera
	motion  *capture.MotionDetector
	overlay *render.Overlay

	mu        sync.RWMutex
	detector  detector.Detector
	renderers render.Multi
	enabled   bool
	stopCh    chan struct{}
	done      chan struct{}
	sessionID string
	flushed   session.Stats
	states    []gesture.State
}

// New creates an App. Without an explicit detector it tries the MediaPipe
// bridge and falls back to a mock that sees no hands.
func New(config Config) *App {
	if config.Session == nil {
		config.Session = session.New(session.DefaultConfig())
	}
	if config.MotionThresh <= 0 {
		config.MotionThresh = 1.0
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultFlushInterval
	}
	if config.DetectorConf == (detector.Config{}) {
		config.DetectorConf = detector.DefaultConfig()
	}

	a := &App{
		config:    config,
		session:   config.Session,
		camera:    config.Camera,
		motion:    capture.NewMotionDetector(config.MotionThresh),
		overlay:   config.Overlay,
		detector:  config.Detector,
		renderers: append(render.Multi(nil), config.Renderers...),
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(config.CameraConfig)
	}
	if a.overlay != nil {
		a.renderers = append(a.renderers, a.overlay)
	}

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(config.DetectorConf); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a
}

// SetEnabled turns gesture processing on or off. While disabled the camera
// stays open but frames are dropped.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled != enabled {
		log.Printf("Gesture processing enabled: %v", enabled)
	}
	a.enabled = enabled
}

// IsEnabled reports whether gesture processing is on.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector replaces the hand detector.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// AddRenderer registers another snapshot sink.
func (a *App) AddRenderer(r render.Renderer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.renderers = append(a.renderers, r)
}

// Session returns the gesture session.
func (a *App) Session() *session.Session {
	return a.session
}

// Camera returns the frame source.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Overlay returns the overlay compositor, or nil.
func (a *App) Overlay() *render.Overlay {
	return a.overlay
}

// SessionID returns the ID of the running session's statistics row.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Snapshot returns the current session state without processing a frame.
func (a *App) Snapshot() session.Snapshot {
	return a.session.Snapshot()
}

// Clear empties the voxel grid and pushes the result to the renderers.
func (a *App) Clear() {
	a.session.Clear()
	log.Println("Voxels cleared")
	if err := a.render(a.session.Snapshot()); err != nil {
		log.Printf("Error rendering after clear: %v", err)
	}
}

// Start opens the camera, records a new session and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	a.camera.SetFPS(IdleFPS)

	a.sessionID = uuid.NewString()
	a.flushed = a.session.Stats()
	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Create(&store.Session{ID: a.sessionID}); err != nil {
			log.Printf("Error recording session %s: %v", a.sessionID, err)
		}
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Printf("Detection pipeline started (session %s)", a.sessionID)
	return nil
}

// Stop halts the pipeline, flushes statistics and releases the camera and
// detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	if err := a.FlushStats(); err != nil {
		log.Printf("Error flushing session stats: %v", err)
	}
	if id := a.SessionID(); id != "" && a.config.Store != nil {
		if err := a.config.Store.Sessions().End(id, time.Now()); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("Error ending session %s: %v", id, err)
		}
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// ProcessFrame runs one frame through detection, the gesture session and
// the renderers. A detection failure is returned without touching gesture
// state; it is not treated as a frame with no hands.
func (a *App) ProcessFrame(frame *gocv.Mat, now time.Time) (session.Snapshot, error) {
	d := a.Detector()
	if d == nil {
		return session.Snapshot{}, errors.New("no hand detector")
	}

	hands, err := d.Detect(frame)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("detect hands: %w", err)
	}

	snap := a.session.Process(hands, now)
	a.logTransitions(snap)

	if err := a.render(snap); err != nil {
		log.Printf("Error rendering frame: %v", err)
	}
	a.compose(frame)

	return snap, nil
}

// FlushStats writes the counters accumulated since the last flush to the
// session's row.
func (a *App) FlushStats() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.Store == nil || a.sessionID == "" {
		return nil
	}

	now := a.session.Stats()
	delta := now.Sub(a.flushed)
	counts := store.Counts{
		Frames: delta.Frames,
		Stamps: delta.Stamps,
		Shifts: delta.Shifts,
		Clears: delta.Clears,
	}
	if counts.IsZero() {
		return nil
	}

	if err := a.config.Store.Sessions().AddCounts(a.sessionID, counts); err != nil {
		return fmt.Errorf("flush stats for %s: %w", a.sessionID, err)
	}
	a.flushed = now
	return nil
}

func (a *App) render(snap session.Snapshot) error {
	a.mu.RLock()
	renderers := a.renderers
	a.mu.RUnlock()
	return renderers.Render(snap)
}

// compose refreshes the overlay stream from the latest snapshot.
func (a *App) compose(frame *gocv.Mat) {
	if a.overlay == nil {
		return
	}
	if _, err := a.overlay.Compose(frame); err != nil {
		log.Printf("Error composing overlay: %v", err)
	}
}

// logTransitions logs each hand whose gesture state changed since the
// previous frame, plus every grid shift.
func (a *App) logTransitions(snap session.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, h := range snap.Hands {
		prev := gesture.StateIdle
		if h.Index < len(a.states) {
			prev = a.states[h.Index]
		}
		if h.Status.State != prev {
			log.Printf("Hand %d: %s -> %s", h.Index, prev, h.Status.State)
		}
	}
	for i := len(snap.Hands); i < len(a.states); i++ {
		if a.states[i] != gesture.StateIdle {
			log.Printf("Hand %d lost while %s", i, a.states[i])
		}
	}

	a.states = a.states[:0]
	for _, h := range snap.Hands {
		a.states = append(a.states, h.Status.State)
	}

	for _, e := range snap.Events {
		if e.Kind == session.EventShift {
			log.Printf("Hand %d shifted grid by (%d, %d)", e.Hand, e.Shift.DX, e.Shift.DY)
		}
	}
}
