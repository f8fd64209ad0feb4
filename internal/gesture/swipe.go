package gesture

import "math"

// SwipeDetector tracks the centroid X of the previous motion tick and turns
// horizontal displacement into a rotation delta.
type SwipeDetector struct {
	threshold  float64
	multiplier float64
	prevX      float64
	havePrev   bool
}

// NewSwipeDetector creates a SwipeDetector.
func NewSwipeDetector(threshold, multiplier float64) *SwipeDetector {
	return &SwipeDetector{threshold: threshold, multiplier: multiplier}
}

// Evaluate compares x against the previous reading. It returns the rotation
// delta and whether the displacement counted as a swipe. havePrev is false
// when there was no previous reading to compare against.
func (s *SwipeDetector) Evaluate(x float64) (delta float64, swiped, havePrev bool) {
	if !s.havePrev {
		return 0, false, false
	}
	dx := x - s.prevX
	if math.Abs(dx) > s.threshold {
		return dx * s.multiplier, true, true
	}
	return 0, false, true
}

// Track stores x as the previous reading.
func (s *SwipeDetector) Track(x float64) {
	s.prevX = x
	s.havePrev = true
}

// Previous returns the stored reading, if any.
func (s *SwipeDetector) Previous() (float64, bool) {
	return s.prevX, s.havePrev
}

// Reset forgets the previous reading.
func (s *SwipeDetector) Reset() {
	s.prevX = 0
	s.havePrev = false
}
