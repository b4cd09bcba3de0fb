package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection tuning.
const (
	// MotionWidth is the width frames are shrunk to before comparison.
	MotionWidth = 320
	// BlurSize is the Gaussian kernel edge applied before differencing.
	BlurSize = 21
	// DiffThreshold is the per-pixel intensity change that counts as moved.
	DiffThreshold = 25
)

// Motion is the result of comparing a frame with the one before it.
type Motion struct {
	Detected bool
	Percent  float64 // share of pixels that changed, 0-100
}

// MotionDetector compares consecutive frames by blurred grayscale
// differencing. It decides whether the pipeline should be in active mode.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of pixels change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect compares frame with the previous one. The first frame after
// creation or Reset only primes the detector.
func (m *MotionDetector) Detect(frame *gocv.Mat) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Motion{}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	small := gray
	if gray.Cols() > MotionWidth {
		small = gocv.NewMat()
		defer small.Close()
		h := gray.Rows() * MotionWidth / gray.Cols()
		gocv.Resize(gray, &small, image.Pt(MotionWidth, h), 0, 0, gocv.InterpolationArea)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(small, &blurred, image.Pt(BlurSize, BlurSize), 0, 0, gocv.BorderDefault)

	if !m.primed || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return Motion{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	moved := gocv.NewMat()
	defer moved.Close()
	gocv.Threshold(diff, &moved, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(moved)) / float64(moved.Rows()*moved.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return Motion{Detected: changed > m.threshold, Percent: changed}
}

// Reset forgets the previous frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the stored frame. The detector can still be used; the next
// frame primes it again.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}

// SetThreshold changes the change percentage needed to report motion.
// Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Threshold returns the current change percentage threshold.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}
