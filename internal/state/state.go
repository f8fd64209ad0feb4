// Package state holds the shared interaction state read by the rendering layer.
package state

import (
	"sync"
)

// TreeState selects which particle layout the tree blends toward.
type TreeState string

const (
	// TreeFormed arranges the particles in the cone layout.
	TreeFormed TreeState = "FORMED"
	// TreeChaos scatters the particles into the cloud layout.
	TreeChaos TreeState = "CHAOS"
)

// Mode is the active input source.
type Mode string

const (
	// ModePointer drives the tree from mouse and touch events.
	ModePointer Mode = "POINTER"
	// ModeGesture drives the tree from webcam motion gestures.
	ModeGesture Mode = "GESTURE"
)

// ParseMode converts a user supplied mode name. Accepts the legacy
// MOUSE/WEBCAM names as aliases.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "POINTER", "pointer", "MOUSE", "mouse":
		return ModePointer, true
	case "GESTURE", "gesture", "WEBCAM", "webcam":
		return ModeGesture, true
	}
	return "", false
}

// Vec2 is a 2D offset.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot is a consistent copy of the state at one instant.
type Snapshot struct {
	TreeState        TreeState `json:"tree_state"`
	Mode             Mode      `json:"mode"`
	CarouselRotation float64   `json:"carousel_rotation"`
	CamOffset        Vec2      `json:"cam_offset"`
	ZoomLevel        float64   `json:"zoom_level"`
	GestureStatus    string    `json:"gesture_status"`
	Version          uint64    `json:"version"`
}

// State is the single source of truth for interaction state. Setters are
// idempotent; subscribers are only notified when a value actually changes.
type State struct {
	mu   sync.RWMutex
	snap Snapshot

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// New creates a State with the startup defaults.
func New() *State {
	return &State{
		snap: Snapshot{
			TreeState: TreeFormed,
			Mode:      ModePointer,
		},
		subs: make(map[int]chan Snapshot),
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// TreeState returns the current tree state.
func (s *State) TreeState() TreeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.TreeState
}

// SetTreeState sets the tree state.
func (s *State) SetTreeState(ts TreeState) {
	s.update(func(sn *Snapshot) bool {
		if sn.TreeState == ts {
			return false
		}
		sn.TreeState = ts
		return true
	})
}

// Mode returns the active interaction mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Mode
}

// SetMode records the active interaction mode. Arbitration between the two
// input paths is the controller's job; this only publishes the flag.
func (s *State) SetMode(m Mode) {
	s.update(func(sn *Snapshot) bool {
		if sn.Mode == m {
			return false
		}
		sn.Mode = m
		return true
	})
}

// CarouselRotation returns the accumulated carousel rotation in radians.
func (s *State) CarouselRotation() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.CarouselRotation
}

// AdjustCarouselRotation adds delta radians to the carousel rotation.
// The value is unbounded; the renderer wraps it visually.
func (s *State) AdjustCarouselRotation(delta float64) {
	if delta == 0 {
		return
	}
	s.update(func(sn *Snapshot) bool {
		sn.CarouselRotation += delta
		return true
	})
}

// CamOffset returns the parallax camera offset.
func (s *State) CamOffset() Vec2 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.CamOffset
}

// SetCamOffset sets the parallax camera offset.
func (s *State) SetCamOffset(x, y float64) {
	s.update(func(sn *Snapshot) bool {
		if sn.CamOffset.X == x && sn.CamOffset.Y == y {
			return false
		}
		sn.CamOffset = Vec2{X: x, Y: y}
		return true
	})
}

// ZoomLevel returns the zoom level in [0,1].
func (s *State) ZoomLevel() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.ZoomLevel
}

// SetZoomLevel sets the zoom level, clamped to [0,1].
func (s *State) SetZoomLevel(level float64) {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	s.update(func(sn *Snapshot) bool {
		if sn.ZoomLevel == level {
			return false
		}
		sn.ZoomLevel = level
		return true
	})
}

// GestureStatus returns the last gesture status line.
func (s *State) GestureStatus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.GestureStatus
}

// SetGestureStatus sets the gesture status line shown next to the preview.
func (s *State) SetGestureStatus(status string) {
	s.update(func(sn *Snapshot) bool {
		if sn.GestureStatus == status {
			return false
		}
		sn.GestureStatus = status
		return true
	})
}

// Subscribe returns a channel that receives the latest snapshot after every
// change, and a cancel function. Slow consumers only ever see the newest
// snapshot; intermediate ones are dropped.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// update applies fn under the write lock and publishes the result if fn
// reports a change. Publishing happens under the lock so subscribers never
// observe versions out of order; publish itself never blocks.
func (s *State) update(fn func(*Snapshot) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn(&s.snap) {
		return
	}
	s.snap.Version++
	s.publish(s.snap)
}

func (s *State) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the stale pending snapshot with the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
