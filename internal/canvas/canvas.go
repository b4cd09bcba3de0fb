// Package canvas maps normalized landmark coordinates onto the mirrored
// display canvas and its voxel grid.
package canvas

import (
	"image"
	"math"

	"github.com/ayusman/airvoxel/internal/detector"
	"github.com/ayusman/airvoxel/internal/grid"
)

// Default canvas settings
const (
	DefaultWidth    = 1280
	DefaultHeight   = 720
	DefaultGridSize = 40
)

// Point is a position in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Image rounds p to the nearest integer pixel.
func (p Point) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Mapper converts between landmark space, canvas pixels and grid cells.
type Mapper struct {
	Width    int
	Height   int
	GridSize int
}

// DefaultMapper returns a 1280x720 canvas with 40px cells.
func DefaultMapper() Mapper {
	return Mapper{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		GridSize: DefaultGridSize,
	}
}

// ToPixel maps a landmark to canvas pixels. The camera image is shown
// mirrored, so X is flipped; Y is not.
func (m Mapper) ToPixel(p detector.Point3D) Point {
	return Point{
		X: (1 - p.X) * float64(m.Width),
		Y: p.Y * float64(m.Height),
	}
}

// CellAt returns the grid cell containing a pixel position.
func (m Mapper) CellAt(p Point) grid.Key {
	g := float64(m.GridSize)
	return grid.Key{
		X: int(math.Floor(p.X / g)),
		Y: int(math.Floor(p.Y / g)),
	}
}

// CellRect returns the pixel rectangle covered by a cell.
func (m Mapper) CellRect(k grid.Key) image.Rectangle {
	x, y := k.X*m.GridSize, k.Y*m.GridSize
	return image.Rect(x, y, x+m.GridSize, y+m.GridSize)
}

// Columns returns how many whole or partial cells span the canvas width.
func (m Mapper) Columns() int {
	return (m.Width + m.GridSize - 1) / m.GridSize
}

// Rows returns how many whole or partial cells span the canvas height.
func (m Mapper) Rows() int {
	return (m.Height + m.GridSize - 1) / m.GridSize
}
