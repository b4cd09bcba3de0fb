// Package render defines the sink that consumes per-frame session snapshots
// and provides the built-in sinks: fan-out, a recorder and a gocv overlay.
package render

import (
	"errors"
	"sync"

	"github.com/ayusman/airvoxel/internal/session"
)

// Renderer draws one frame of session state. Renderers must not mutate the
// snapshot; it is shared across every renderer of a Multi.
type Renderer interface {
	Render(snap session.Snapshot) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(snap session.Snapshot) error

// Render calls f(snap).
func (f RendererFunc) Render(snap session.Snapshot) error {
	return f(snap)
}

// Multi fans a snapshot out to several renderers. Every renderer runs even
// when an earlier one fails; the errors are joined.
type Multi []Renderer

// Render implements Renderer.
func (m Multi) Render(snap session.Snapshot) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Render(snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps the most recent snapshots in memory.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	frames []session.Snapshot
}

// NewRecorder creates a Recorder holding at most limit snapshots.
// A limit of zero or less keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Render implements Renderer.
func (r *Recorder) Render(snap session.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames = append(r.frames, snap)
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
	return nil
}

// Last returns the most recent snapshot.
func (r *Recorder) Last() (session.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return session.Snapshot{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Frames returns a copy of the recorded snapshots, oldest first.
func (r *Recorder) Frames() []session.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]session.Snapshot, len(r.frames))
	copy(out, r.frames)
	return out
}

// Len returns the number of recorded snapshots.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Reset drops all recorded snapshots.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}
