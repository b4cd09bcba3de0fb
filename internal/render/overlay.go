package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/airvoxel/internal/canvas"
	"github.com/ayusman/airvoxel/internal/detector"
	"github.com/ayusman/airvoxel/internal/gesture"
	"github.com/ayusman/airvoxel/internal/session"
)

// Style controls how the overlay draws a snapshot.
type Style struct {
	Cell         color.RGBA
	CellAlpha    float64
	GridLine     color.RGBA
	Skeleton     color.RGBA
	Idle         color.RGBA
	Pinch        color.RGBA
	Dwell        color.RGBA
	Grab         color.RGBA
	CursorRadius int
	ShowGrid     bool
}

// DefaultStyle returns the overlay palette used by the web UI.
func DefaultStyle() Style {
	return Style{
		Cell:         color.RGBA{R: 0, G: 200, B: 255, A: 255},
		CellAlpha:    0.6,
		GridLine:     color.RGBA{R: 60, G: 60, B: 60, A: 255},
		Skeleton:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Idle:         color.RGBA{R: 200, G: 200, B: 200, A: 255},
		Pinch:        color.RGBA{R: 0, G: 255, B: 0, A: 255},
		Dwell:        color.RGBA{R: 255, G: 200, B: 0, A: 255},
		Grab:         color.RGBA{R: 255, G: 60, B: 60, A: 255},
		CursorRadius: 10,
		ShowGrid:     true,
	}
}

func (s Style) cursor(state gesture.State) color.RGBA {
	switch state {
	case gesture.StatePinching:
		return s.Pinch
	case gesture.StateFistDwelling:
		return s.Dwell
	case gesture.StateGrabbing:
		return s.Grab
	default:
		return s.Idle
	}
}

// Overlay composites the latest snapshot over camera frames. Render only
// records the snapshot; Compose does the drawing so it can run on the
// goroutine that owns the frame.
type Overlay struct {
	style Style

	mu     sync.RWMutex
	snap   session.Snapshot
	latest []byte
}

// NewOverlay creates an Overlay with the given style.
func NewOverlay(style Style) *Overlay {
	return &Overlay{style: style}
}

// Render implements Renderer.
func (o *Overlay) Render(snap session.Snapshot) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snap = snap
	return nil
}

// Draw returns a new canvas-sized image with the camera frame mirrored
// underneath the voxels, grid and hands. A nil or empty frame yields a black
// background. The caller must close the returned Mat.
func (o *Overlay) Draw(frame *gocv.Mat) gocv.Mat {
	o.mu.RLock()
	snap := o.snap
	o.mu.RUnlock()

	m := canvas.Mapper{Width: snap.Width, Height: snap.Height, GridSize: snap.GridSize}
	if m.Width <= 0 || m.Height <= 0 || m.GridSize <= 0 {
		m = canvas.DefaultMapper()
	}

	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), m.Height, m.Width, gocv.MatTypeCV8UC3)
	if frame != nil && !frame.Empty() {
		o.drawBackground(frame, &out, m)
	}

	if len(snap.Voxels) > 0 {
		cells := out.Clone()
		for _, k := range snap.Voxels {
			gocv.Rectangle(&cells, m.CellRect(k), o.style.Cell, -1)
		}
		gocv.AddWeighted(cells, o.style.CellAlpha, out, 1-o.style.CellAlpha, 0, &out)
		cells.Close()
	}

	if o.style.ShowGrid {
		for x := 0; x <= m.Width; x += m.GridSize {
			gocv.Line(&out, image.Pt(x, 0), image.Pt(x, m.Height), o.style.GridLine, 1)
		}
		for y := 0; y <= m.Height; y += m.GridSize {
			gocv.Line(&out, image.Pt(0, y), image.Pt(m.Width, y), o.style.GridLine, 1)
		}
	}

	for _, hand := range snap.Hands {
		for _, c := range detector.Connections {
			gocv.Line(&out, hand.Landmarks[c[0]].Image(), hand.Landmarks[c[1]].Image(), o.style.Skeleton, 2)
		}
		gocv.Circle(&out, hand.Cursor.Image(), o.style.CursorRadius, o.style.cursor(hand.Status.State), -1)
	}

	return out
}

func (o *Overlay) drawBackground(frame *gocv.Mat, out *gocv.Mat, m canvas.Mapper) {
	src := *frame
	if frame.Channels() == 1 {
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(*frame, &bgr, gocv.ColorGrayToBGR)
		src = bgr
	}

	flipped := gocv.NewMat()
	defer flipped.Close()
	gocv.Flip(src, &flipped, 1)
	gocv.Resize(flipped, out, image.Pt(m.Width, m.Height), 0, 0, gocv.InterpolationLinear)
}

// Compose draws the frame and encodes it as JPEG. The result is also kept
// for Latest.
func (o *Overlay) Compose(frame *gocv.Mat) ([]byte, error) {
	img := o.Draw(frame)
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	defer buf.Close()

	data := bytes.Clone(buf.GetBytes())

	o.mu.Lock()
	o.latest = data
	o.mu.Unlock()

	return data, nil
}

// Latest returns the most recently composed JPEG.
func (o *Overlay) Latest() ([]byte, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.latest, o.latest != nil
}
