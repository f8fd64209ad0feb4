// Package interaction arbitrates between pointer input and webcam gestures,
// both of which drive the same shared interaction state.
package interaction

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/wenxinhu03/christmas-tree2/internal/capture"
	"github.com/wenxinhu03/christmas-tree2/internal/gesture"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
)

// Default pointer tunables.
const (
	DefaultHoldDelay        = 250 * time.Millisecond
	DefaultDragThreshold    = 5.0
	DefaultRotationPerPixel = 0.005
	DefaultParallaxX        = 5.0
	DefaultParallaxY        = 2.0
	DefaultPhotoSlots       = 20
)

// ErrInvalidConfig is returned when the controller configuration is rejected.
var ErrInvalidConfig = errors.New("invalid interaction config")

// ErrModeUnavailable is returned when a mode cannot be entered, such as
// gesture mode without a working camera.
var ErrModeUnavailable = errors.New("mode unavailable")

// Sink receives the commands produced by the controller. *state.State
// implements it.
type Sink interface {
	SetTreeState(state.TreeState)
	SetMode(state.Mode)
	AdjustCarouselRotation(delta float64)
	SetCamOffset(x, y float64)
	SetZoomLevel(level float64)
	SetGestureStatus(status string)
}

// Stopper cancels a pending timer.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc is the default.
type AfterFunc func(d time.Duration, f func()) Stopper

func realAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Config configures a Controller.
type Config struct {
	Gesture gesture.Config

	HoldDelay        time.Duration
	DragThreshold    float64
	RotationPerPixel float64
	ParallaxX        float64
	ParallaxY        float64
	PhotoSlots       int

	// Mode is the initial interaction mode.
	Mode state.Mode

	Logger    *slog.Logger
	AfterFunc AfterFunc
}

// DefaultConfig returns the stock tuning in pointer mode.
func DefaultConfig() Config {
	return Config{
		Gesture:          gesture.DefaultConfig(),
		HoldDelay:        DefaultHoldDelay,
		DragThreshold:    DefaultDragThreshold,
		RotationPerPixel: DefaultRotationPerPixel,
		ParallaxX:        DefaultParallaxX,
		ParallaxY:        DefaultParallaxY,
		PhotoSlots:       DefaultPhotoSlots,
		Mode:             state.ModePointer,
	}
}

// Validate checks the pointer tunables and the embedded gesture config.
func (c Config) Validate() error {
	if err := c.Gesture.Validate(); err != nil {
		return err
	}
	if c.HoldDelay < 0 {
		return fmt.Errorf("%w: hold delay %v is negative", ErrInvalidConfig, c.HoldDelay)
	}
	if c.DragThreshold < 0 {
		return fmt.Errorf("%w: drag threshold %v is negative", ErrInvalidConfig, c.DragThreshold)
	}
	if c.PhotoSlots <= 0 {
		return fmt.Errorf("%w: photo slots must be positive, got %d", ErrInvalidConfig, c.PhotoSlots)
	}
	if c.Mode != state.ModePointer && c.Mode != state.ModeGesture {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}

// Pointer is one pointer or touch sample in window coordinates.
type Pointer struct {
	X, Y          float64
	Width, Height float64
	// Pressed is true while a button or finger is down.
	Pressed bool
}

// Controller owns the active mode flag and serializes every write coming
// from either input path.
type Controller struct {
	cfg       Config
	sink      Sink
	logger    *slog.Logger
	afterFunc AfterFunc

	mu   sync.Mutex
	mode state.Mode

	pressed  bool
	dragging bool
	startX   float64
	lastX    float64

	// holdToken identifies the armed hold timer. It changes every time a
	// timer is armed or cancelled, so a callback that lost the race sees a
	// stale token and does nothing.
	holdToken uint64
	holdTimer Stopper

	recognizer *gesture.Recognizer
	tree       state.TreeState
}

// New validates cfg and creates a Controller writing to sink.
func New(cfg Config, sink Sink) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: nil sink", ErrInvalidConfig)
	}

	rec, err := gesture.NewRecognizer(cfg.Gesture)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	after := cfg.AfterFunc
	if after == nil {
		after = realAfterFunc
	}

	c := &Controller{
		cfg:        cfg,
		sink:       sink,
		logger:     logger,
		afterFunc:  after,
		mode:       cfg.Mode,
		recognizer: rec,
		tree:       state.TreeFormed,
	}
	sink.SetMode(cfg.Mode)
	sink.SetGestureStatus(gesture.StatusReady)
	return c, nil
}

// Mode returns the active interaction mode.
func (c *Controller) Mode() state.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches the active input path. Pending hold timers, drag state,
// gesture streaks and the swipe reference are all discarded. It reports
// whether the mode changed.
func (c *Controller) SetMode(m state.Mode) (bool, error) {
	if m != state.ModePointer && m != state.ModeGesture {
		return false, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, m)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == m {
		return false, nil
	}

	c.cancelHoldLocked()
	c.pressed = false
	c.dragging = false
	c.recognizer.Reset()

	prev := c.mode
	c.mode = m
	c.sink.SetMode(m)
	c.sink.SetGestureStatus(gesture.StatusReady)

	c.logger.Info("interaction mode changed", "from", prev, "to", m)
	return true, nil
}

// Press starts a pointer interaction and arms the hold timer.
func (c *Controller) Press(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != state.ModePointer {
		return
	}

	c.cancelHoldLocked()
	c.pressed = true
	c.dragging = false
	c.startX = x
	c.lastX = x

	c.holdToken++
	token := c.holdToken
	c.holdTimer = c.afterFunc(c.cfg.HoldDelay, func() { c.holdElapsed(token) })
}

func (c *Controller) holdElapsed(token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.holdToken || c.holdTimer == nil {
		return
	}
	c.holdTimer = nil

	if c.mode != state.ModePointer || !c.pressed || c.dragging {
		return
	}
	c.setTreeLocked(state.TreeChaos)
	c.sink.SetZoomLevel(0)
}

// cancelHoldLocked disarms the hold timer. The token is retired even when
// Stop reports the callback already started.
func (c *Controller) cancelHoldLocked() {
	if c.holdTimer != nil {
		c.holdTimer.Stop()
		c.holdTimer = nil
	}
	c.holdToken++
}

// Move handles pointer motion. While pressed it tracks a horizontal drag
// that rotates the carousel; otherwise it drives the camera parallax.
func (c *Controller) Move(p Pointer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != state.ModePointer {
		return
	}

	if p.Pressed && c.pressed {
		dx := p.X - c.lastX
		if math.Abs(p.X-c.startX) > c.cfg.DragThreshold {
			if !c.dragging {
				c.cancelHoldLocked()
				c.dragging = true
			}
			c.setTreeLocked(state.TreeFormed)
		}
		if c.dragging && dx != 0 {
			c.sink.AdjustCarouselRotation(dx * c.cfg.RotationPerPixel)
		}
		c.lastX = p.X
		return
	}

	if p.Width <= 0 || p.Height <= 0 {
		return
	}
	x := (p.X/p.Width)*2 - 1
	y := -(p.Y/p.Height)*2 + 1
	c.sink.SetCamOffset(x*c.cfg.ParallaxX, y*c.cfg.ParallaxY)
}

// Release ends a pointer interaction.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelHoldLocked()
	wasDragging := c.dragging
	c.pressed = false
	c.dragging = false

	if c.mode == state.ModePointer && !wasDragging {
		c.setTreeLocked(state.TreeFormed)
	}
}

// DoublePress zooms in and advances the carousel by one photo slot.
func (c *Controller) DoublePress() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != state.ModePointer {
		return
	}
	c.sink.SetZoomLevel(1)
	c.sink.AdjustCarouselRotation(-2 * math.Pi / float64(c.cfg.PhotoSlots))
}

// ApplyMotion feeds one tick of motion statistics through the gesture
// recognizer. It is ignored outside gesture mode.
func (c *Controller) ApplyMotion(mf capture.MotionFrame) gesture.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != state.ModeGesture {
		return gesture.Result{Label: gesture.LabelNone, Status: c.recognizer.Status()}
	}

	res := c.recognizer.Step(mf)
	if res.Transition {
		c.setTreeLocked(res.Tree)
	}
	if res.RotationDelta != 0 {
		c.sink.AdjustCarouselRotation(res.RotationDelta)
		c.logger.Debug("swipe", "delta", res.RotationDelta)
	}
	c.sink.SetGestureStatus(res.Status)
	return res
}

// Streaks returns the gesture streak counters.
func (c *Controller) Streaks() (fist, open int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recognizer.Streaks()
}

// Close disarms any pending timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelHoldLocked()
}

func (c *Controller) setTreeLocked(ts state.TreeState) {
	if c.tree != ts {
		c.logger.Debug("tree state changed", "from", c.tree, "to", ts, "mode", c.mode)
		c.tree = ts
	}
	c.sink.SetTreeState(ts)
}
