// Package app wires the frame source, the gesture pipeline, the interaction
// controller, the shared state and the photo store into one process.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wenxinhu03/christmas-tree2/internal/capture"
	"github.com/wenxinhu03/christmas-tree2/internal/config"
	"github.com/wenxinhu03/christmas-tree2/internal/interaction"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
	"github.com/wenxinhu03/christmas-tree2/internal/store"
)

// Config holds the dependencies of the application.
type Config struct {
	Settings config.Config

	// Source overrides the camera as the frame source, for playback and tests.
	Source capture.Source
	// Camera is used when Source is nil and the camera is enabled. Nil opens
	// Settings.Camera.Device.
	Camera capture.Camera

	Logger *slog.Logger

	// AfterFunc replaces time.AfterFunc for pointer hold timers.
	AfterFunc interaction.AfterFunc
}

// App owns every long-lived component and runs the gesture tick loop.
type App struct {
	settings config.Config
	logger   *slog.Logger

	state      *state.State
	store      *store.Store
	controller *interaction.Controller

	sampler *capture.Sampler
	differ  *capture.Differencer
	source  capture.Source
	grabber *capture.Grabber

	tickInterval time.Duration
	resetDiff    atomic.Bool

	// modeMu serializes mode switches with the camera lifecycle.
	modeMu sync.Mutex

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// New validates the settings and builds the application. Nothing is started
// until Start is called.
func New(cfg Config) (*App, error) {
	settings := cfg.Settings
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sampler, err := capture.NewSampler(settings.Gesture.SampleWidth, settings.Gesture.SampleHeight)
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	differ, err := capture.NewDifferencer(settings.MotionConfig())
	if err != nil {
		return nil, fmt.Errorf("create differencer: %w", err)
	}

	st := state.New()

	icfg := settings.InteractionConfig()
	icfg.Logger = logger
	icfg.AfterFunc = cfg.AfterFunc
	// The startup mode is applied through SetMode so the camera opens with it.
	icfg.Mode = state.ModePointer
	controller, err := interaction.New(icfg, st)
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}

	photos, err := store.New(settings.Photos.DBPath, settings.Photos.Capacity)
	if err != nil {
		controller.Close()
		return nil, fmt.Errorf("open photo store: %w", err)
	}
	logger.Debug("photo store opened", "path", photos.Path(), "capacity", photos.Capacity())

	a := &App{
		settings:     settings,
		logger:       logger,
		state:        st,
		store:        photos,
		controller:   controller,
		sampler:      sampler,
		differ:       differ,
		source:       cfg.Source,
		tickInterval: time.Second / time.Duration(settings.Pipeline.TickFPS),
	}

	if a.source == nil && settings.Camera.Enabled {
		camera := cfg.Camera
		if camera == nil {
			camera = capture.NewCamera(settings.Camera.Device)
		}
		camera.SetFPS(settings.Camera.FPS)
		a.grabber = capture.NewGrabber(camera, logger)
		a.source = a.grabber
	}

	return a, nil
}

// State returns the shared interaction state.
func (a *App) State() *state.State {
	return a.state
}

// Store returns the photo store.
func (a *App) Store() *store.Store {
	return a.store
}

// Controller returns the interaction controller.
func (a *App) Controller() *interaction.Controller {
	return a.controller
}

// Grabber returns the camera grabber, or nil when frames come from
// elsewhere or the camera is disabled.
func (a *App) Grabber() *capture.Grabber {
	return a.grabber
}

// Settings returns the validated configuration.
func (a *App) Settings() config.Config {
	return a.settings
}

// SetMode switches the interaction mode. Entering gesture mode opens the
// camera; if that fails the mode is left unchanged and the error wraps
// interaction.ErrModeUnavailable. Leaving it closes the camera.
func (a *App) SetMode(m state.Mode) (bool, error) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()

	if a.controller.Mode() == m {
		return false, nil
	}

	if m == state.ModeGesture {
		if a.source == nil {
			return false, fmt.Errorf("%w: no video source configured", interaction.ErrModeUnavailable)
		}
		if a.grabber != nil {
			if err := a.grabber.Start(); err != nil {
				a.logger.Warn("cannot enter gesture mode", "error", err)
				return false, fmt.Errorf("%w: %w", interaction.ErrModeUnavailable, err)
			}
		}
	}

	changed, err := a.controller.SetMode(m)
	if err != nil {
		if m == state.ModeGesture && a.grabber != nil {
			a.grabber.Stop()
		}
		return false, err
	}

	if m == state.ModePointer && a.grabber != nil {
		a.grabber.Stop()
	}
	a.resetDiff.Store(true)
	return changed, nil
}

// ToggleMode flips between pointer and gesture mode.
func (a *App) ToggleMode() (state.Mode, error) {
	next := state.ModeGesture
	if a.controller.Mode() == state.ModeGesture {
		next = state.ModePointer
	}
	if _, err := a.SetMode(next); err != nil {
		return a.controller.Mode(), err
	}
	return next, nil
}

// Start applies the configured startup mode and begins the tick loop.
// Starting a running app is a no-op. A camera that cannot be opened for
// gesture mode at startup is logged and the app stays in pointer mode.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if mode := a.settings.InitialMode(); mode != a.controller.Mode() {
		if _, err := a.SetMode(mode); err != nil {
			if !errors.Is(err, interaction.ErrModeUnavailable) {
				return err
			}
			a.logger.Warn("starting in pointer mode", "requested", mode, "error", err)
		}
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	a.logger.Info("gesture pipeline started", "tick_interval", a.tickInterval)
	return nil
}

// Stop halts the tick loop, closes the camera and the photo store.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	a.controller.Close()
	if a.grabber != nil {
		a.grabber.Close()
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("error closing photo store", "error", err)
	}

	a.logger.Info("gesture pipeline stopped")
}
