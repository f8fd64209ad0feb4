package preview

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Morph eases a displayed value toward a target. Retargeting mid-flight
// starts a new tween from wherever the value currently is.
//
// The tween only runs the eased fraction from 0 to 1; endpoints stay in
// float64 so unbounded values such as the carousel rotation keep their
// precision.
type Morph struct {
	tween    *gween.Tween
	easing   ease.TweenFunc
	duration float32
	from     float64
	value    float64
	target   float64
}

// NewMorph creates a Morph at start that takes duration seconds per change.
func NewMorph(start float64, duration float32, easing ease.TweenFunc) *Morph {
	return &Morph{
		easing:   easing,
		duration: duration,
		from:     start,
		value:    start,
		target:   start,
	}
}

// SetTarget retargets the morph. Setting the current target is a no-op.
func (m *Morph) SetTarget(target float64) {
	if target == m.target {
		return
	}
	m.from = m.value
	m.target = target
	m.tween = gween.New(0, 1, m.duration, m.easing)
}

// Update advances the morph by dt seconds and returns the new value.
func (m *Morph) Update(dt float32) float64 {
	if m.tween == nil {
		return m.value
	}
	frac, done := m.tween.Update(dt)
	if done {
		m.tween = nil
		m.value = m.target
		return m.value
	}
	m.value = m.from + (m.target-m.from)*float64(frac)
	return m.value
}

// Value returns the current value.
func (m *Morph) Value() float64 { return m.value }

// Target returns the value the morph is heading for.
func (m *Morph) Target() float64 { return m.target }

// Settled reports whether the morph has reached its target.
func (m *Morph) Settled() bool { return m.tween == nil }
