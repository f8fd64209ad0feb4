package preview

import (
	"time"

	"github.com/wenxinhu03/christmas-tree2/internal/interaction"
)

// Input receives pointer events. *interaction.Controller implements it.
type Input interface {
	Press(x, y float64)
	Move(p interaction.Pointer)
	Release()
	DoublePress()
}

// PointerTracker turns polled pointer state into discrete press, move and
// release events. A second press within the double-press window also emits
// DoublePress once it is released, the way browsers order dblclick.
type PointerTracker struct {
	input  Input
	window time.Duration

	down          bool
	haveLast      bool
	lastX, lastY  float64
	lastPress     time.Time
	pendingDouble bool
}

// NewPointerTracker creates a tracker forwarding to input.
func NewPointerTracker(input Input, window time.Duration) *PointerTracker {
	return &PointerTracker{input: input, window: window}
}

// Poll reports the pointer state for one frame. w and h are the surface size.
func (t *PointerTracker) Poll(x, y, w, h float64, pressed bool, now time.Time) {
	if pressed && !t.down {
		t.down = true
		t.pendingDouble = !t.lastPress.IsZero() && now.Sub(t.lastPress) <= t.window
		t.lastPress = now
		t.input.Press(x, y)
	}

	if !t.haveLast || x != t.lastX || y != t.lastY {
		t.haveLast = true
		t.lastX, t.lastY = x, y
		t.input.Move(interaction.Pointer{X: x, Y: y, Width: w, Height: h, Pressed: pressed})
	}

	if !pressed && t.down {
		t.down = false
		t.input.Release()
		if t.pendingDouble {
			t.pendingDouble = false
			// A third click starts a new pair.
			t.lastPress = time.Time{}
			t.input.DoublePress()
		}
	}
}
