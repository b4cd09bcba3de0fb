// Package gesture classifies hand shapes and tracks the fist-grab interaction.
package gesture

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/airvoxel/internal/detector"
)

// Default classification thresholds, as fractions of the normalized image.
const (
	DefaultPinchThreshold = 0.04
	DefaultFistThreshold  = 0.15
)

// Shape is the instantaneous classification of one hand in one frame.
type Shape int

const (
	// ShapeNeither means neither a pinch nor a fist.
	ShapeNeither Shape = iota
	// ShapePinch means thumb and index tips are touching.
	ShapePinch
	// ShapeFist means all four fingertips are curled to the wrist.
	ShapeFist
)

// String returns the lowercase shape name.
func (s Shape) String() string {
	switch s {
	case ShapePinch:
		return "pinch"
	case ShapeFist:
		return "fist"
	default:
		return "neither"
	}
}

// Thresholds holds the distance limits used by the classifier.
type Thresholds struct {
	Pinch float64 // thumb tip to index tip
	Fist  float64 // wrist to each fingertip
}

// DefaultThresholds returns the thresholds tuned for typical webcam framing.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Pinch: DefaultPinchThreshold,
		Fist:  DefaultFistThreshold,
	}
}

// Classifier derives a Shape from landmark geometry.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a Classifier. Non-positive thresholds fall back to
// the defaults.
func NewClassifier(t Thresholds) *Classifier {
	d := DefaultThresholds()
	if t.Pinch <= 0 {
		t.Pinch = d.Pinch
	}
	if t.Fist <= 0 {
		t.Fist = d.Fist
	}
	return &Classifier{thresholds: t}
}

// Thresholds returns the active thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify returns the shape of one hand. A fist wins over a pinch.
//
// Distances are measured in un-mirrored normalized space. Mirroring is a
// reflection and does not change them.
func (c *Classifier) Classify(hand *detector.HandLandmarks) Shape {
	if hand == nil {
		return ShapeNeither
	}

	if IsFist(hand, c.thresholds.Fist) {
		return ShapeFist
	}
	if PinchDistance(hand) < c.thresholds.Pinch {
		return ShapePinch
	}
	return ShapeNeither
}

// PinchDistance returns the thumb tip to index tip distance.
func PinchDistance(hand *detector.HandLandmarks) float64 {
	return distance(hand.Points[detector.ThumbTip], hand.Points[detector.IndexTip])
}

// FingerDistances returns the wrist distance of the index, middle, ring and
// pinky tips, in that order.
func FingerDistances(hand *detector.HandLandmarks) [4]float64 {
	var out [4]float64
	wrist := hand.Points[detector.Wrist]
	for i, tip := range detector.FingerTips {
		out[i] = distance(wrist, hand.Points[tip])
	}
	return out
}

// IsFist reports whether every fingertip lies closer than threshold to the wrist.
func IsFist(hand *detector.HandLandmarks, threshold float64) bool {
	for _, d := range FingerDistances(hand) {
		if d >= threshold {
			return false
		}
	}
	return true
}

func distance(a, b detector.Point3D) float64 {
	return r2.Norm(r2.Sub(r2.Vec{X: a.X, Y: a.Y}, r2.Vec{X: b.X, Y: b.Y}))
}
