// Package tray provides the system tray menu for airvoxel.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/airvoxel/internal/session"
)

// Tray is the system tray menu. It also implements render.Renderer so the
// status line follows the live session.
type Tray struct {
	mu       sync.RWMutex
	onToggle func(enabled bool)
	onClear  func()
	onOpen   func()
	onQuit   func()
	enabled  bool
	status   string
	voxels   string

	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
	menuVoxels *systray.MenuItem
}

// New creates a Tray that starts enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  statusLine(session.Snapshot{}),
		voxels:  voxelLine(0),
	}
}

// OnToggle sets the callback for the enable toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnClear sets the callback for "Clear voxels".
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnOpen sets the callback for "Open Settings...".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for "Quit".
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit is chosen.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray, which makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("AirVoxel")
	systray.SetTooltip("AirVoxel hand gesture drawing")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture tracking")
	systray.AddSeparator()
	t.menuStatus = systray.AddMenuItem(t.status, "First hand's gesture state")
	t.menuStatus.Disable()
	t.menuVoxels = systray.AddMenuItem(t.voxels, "Cells on the grid")
	t.menuVoxels.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuClear := systray.AddMenuItem("Clear voxels", "Remove every cell")
	menuOpen := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit AirVoxel")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuClear.ClickedCh:
				t.call(func() func() { return t.onClear })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

// call runs the callback selected under the read lock.
func (t *Tray) call(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// Render updates the status and voxel count lines.
func (t *Tray) Render(snap session.Snapshot) error {
	status := statusLine(snap)
	voxels := voxelLine(len(snap.Voxels))

	t.mu.Lock()
	defer t.mu.Unlock()
	if status != t.status {
		t.status = status
		if t.menuStatus != nil {
			t.menuStatus.SetTitle(status)
		}
	}
	if voxels != t.voxels {
		t.voxels = voxels
		if t.menuVoxels != nil {
			t.menuVoxels.SetTitle(voxels)
		}
	}
	return nil
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Voxels returns the current voxel count line.
func (t *Tray) Voxels() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.voxels
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

func statusLine(snap session.Snapshot) string {
	h, ok := snap.HandAt(0)
	if !ok {
		return "Hand: none"
	}
	return "Hand: " + string(h.Status.State)
}

func voxelLine(n int) string {
	if n == 1 {
		return "1 voxel"
	}
	return fmt.Sprintf("%d voxels", n)
}
