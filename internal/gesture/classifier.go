// Package gesture turns per-tick motion statistics into debounced tree
// transitions and carousel rotation deltas.
package gesture

import (
	"errors"
	"fmt"
)

// Label is the raw per-frame gesture classification.
type Label string

const (
	// LabelNone means the motion guard failed this tick.
	LabelNone Label = "NONE"
	// LabelFist is a compact motion silhouette.
	LabelFist Label = "FIST"
	// LabelOpen is a wide motion silhouette.
	LabelOpen Label = "OPEN"
)

// Default tunables.
const (
	DefaultSpreadThreshold = 0.16
	DefaultStreakRequired  = 5
	DefaultSwipeThreshold  = 0.05
	DefaultSwipeMultiplier = 15.0
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid gesture config")

// Config holds the recognizer tunables.
type Config struct {
	// SpreadThreshold is the bounding box ratio below which motion counts as a fist.
	SpreadThreshold float64
	// StreakRequired is the streak length that must be exceeded before a transition.
	StreakRequired int
	// SwipeThreshold is the minimum centroid X displacement, in normalized units.
	SwipeThreshold float64
	// SwipeMultiplier converts centroid displacement to radians.
	SwipeMultiplier float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		SpreadThreshold: DefaultSpreadThreshold,
		StreakRequired:  DefaultStreakRequired,
		SwipeThreshold:  DefaultSwipeThreshold,
		SwipeMultiplier: DefaultSwipeMultiplier,
	}
}

// Validate rejects negative or out of range tunables. The swipe multiplier
// must be positive so the delta sign follows the hand.
func (c Config) Validate() error {
	if c.SpreadThreshold < 0 || c.SpreadThreshold > 1 {
		return fmt.Errorf("%w: spread threshold %v outside [0,1]", ErrInvalidConfig, c.SpreadThreshold)
	}
	if c.StreakRequired < 0 {
		return fmt.Errorf("%w: streak required %d is negative", ErrInvalidConfig, c.StreakRequired)
	}
	if c.SwipeThreshold < 0 {
		return fmt.Errorf("%w: swipe threshold %v is negative", ErrInvalidConfig, c.SwipeThreshold)
	}
	if c.SwipeMultiplier <= 0 {
		return fmt.Errorf("%w: swipe multiplier %v must be positive", ErrInvalidConfig, c.SwipeMultiplier)
	}
	return nil
}

// Classify labels a motion frame by its bounding box ratio.
func Classify(ratio, threshold float64) Label {
	if ratio < threshold {
		return LabelFist
	}
	return LabelOpen
}
