package gesture

// Debouncer accumulates consecutive same-label frames. At most one of the
// two streaks is non-zero at any time.
type Debouncer struct {
	required int
	fist     int
	open     int
}

// NewDebouncer creates a Debouncer that triggers once a streak exceeds required.
func NewDebouncer(required int) *Debouncer {
	return &Debouncer{required: required}
}

// Observe records one classified frame. LabelNone leaves both streaks untouched.
func (d *Debouncer) Observe(l Label) {
	// Saturate one past the trigger point; the transition is level-triggered.
	limit := d.required + 1

	switch l {
	case LabelFist:
		d.open = 0
		if d.fist < limit {
			d.fist++
		}
	case LabelOpen:
		d.fist = 0
		if d.open < limit {
			d.open++
		}
	}
}

// FistSatisfied reports whether the fist streak has exceeded the requirement.
func (d *Debouncer) FistSatisfied() bool { return d.fist > d.required }

// OpenSatisfied reports whether the open streak has exceeded the requirement.
func (d *Debouncer) OpenSatisfied() bool { return d.open > d.required }

// Streaks returns the current fist and open streak lengths.
func (d *Debouncer) Streaks() (fist, open int) { return d.fist, d.open }

// Reset zeroes both streaks.
func (d *Debouncer) Reset() {
	d.fist = 0
	d.open = 0
}
