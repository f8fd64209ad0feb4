package gesture

import (
	"github.com/wenxinhu03/christmas-tree2/internal/capture"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
)

// Status texts reported to the user.
const (
	StatusReady      = "READY"
	StatusReset      = "RESET (FIST)"
	StatusHolding    = "RESET (HOLDING)"
	StatusUnleash    = "UNLEASH (OPEN HAND)"
	StatusSwipeRight = "SWIPE RIGHT >>"
	StatusSwipeLeft  = "<< SWIPE LEFT"
)

// Result is the outcome of one tick.
type Result struct {
	Label Label
	// Transition is set when the tree state should be applied this tick.
	Transition    bool
	Tree          state.TreeState
	RotationDelta float64
	Status        string
}

// Recognizer chains classification, debouncing and swipe detection.
// It is not safe for concurrent use.
type Recognizer struct {
	cfg      Config
	debounce *Debouncer
	swipe    *SwipeDetector
	status   string
}

// NewRecognizer validates cfg and creates a Recognizer.
func NewRecognizer(cfg Config) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Recognizer{
		cfg:      cfg,
		debounce: NewDebouncer(cfg.StreakRequired),
		swipe:    NewSwipeDetector(cfg.SwipeThreshold, cfg.SwipeMultiplier),
		status:   StatusReady,
	}, nil
}

// Step consumes one motion frame.
func (r *Recognizer) Step(mf capture.MotionFrame) Result {
	if !mf.Motion {
		r.swipe.Reset()
		if fist, _ := r.debounce.Streaks(); fist > 0 {
			r.status = StatusHolding
		} else {
			r.status = StatusReady
		}
		return Result{Label: LabelNone, Status: r.status}
	}

	res := Result{Label: Classify(mf.BoundingBoxRatio, r.cfg.SpreadThreshold)}
	r.debounce.Observe(res.Label)

	x := mf.Centroid.X
	switch {
	case r.debounce.FistSatisfied():
		res.Transition = true
		res.Tree = state.TreeFormed
		r.status = StatusReset
	case r.debounce.OpenSatisfied():
		res.Transition = true
		res.Tree = state.TreeChaos
		delta, swiped, _ := r.swipe.Evaluate(x)
		switch {
		case swiped && delta > 0:
			res.RotationDelta = delta
			r.status = StatusSwipeRight
		case swiped:
			res.RotationDelta = delta
			r.status = StatusSwipeLeft
		default:
			r.status = StatusUnleash
		}
	default:
		if fist, _ := r.debounce.Streaks(); fist > 0 {
			r.status = StatusHolding
		}
	}
	r.swipe.Track(x)

	res.Status = r.status
	return res
}

// Streaks exposes the debouncer counters.
func (r *Recognizer) Streaks() (fist, open int) {
	return r.debounce.Streaks()
}

// Status returns the last reported status.
func (r *Recognizer) Status() string { return r.status }

// Reset clears streaks, the swipe reference and the status.
func (r *Recognizer) Reset() {
	r.debounce.Reset()
	r.swipe.Reset()
	r.status = StatusReady
}
