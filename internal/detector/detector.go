package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
//
// The order of the returned hands is the only hand identity the rest of the
// system gets. Trackers may swap indices when a hand is occluded and
// reacquired, so per-hand state keyed on the index is best-effort.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to report (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// Limit returns at most max hands, keeping source order.
// A max of zero or less means no limit.
func Limit(hands []HandLandmarks, max int) []HandLandmarks {
	if max <= 0 || len(hands) <= max {
		return hands
	}
	return hands[:max]
}
