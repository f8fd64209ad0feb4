// Package config loads the YAML configuration file and validates the
// gesture and pointer tunables before anything starts.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wenxinhu03/christmas-tree2/internal/capture"
	"github.com/wenxinhu03/christmas-tree2/internal/gesture"
	"github.com/wenxinhu03/christmas-tree2/internal/interaction"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
)

// DefaultFileName is read when no path is given. A missing default file is
// not an error.
const DefaultFileName = "xmastree.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Camera   CameraConfig   `yaml:"camera"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Pointer  PointerConfig  `yaml:"pointer"`
	Photos   PhotosConfig   `yaml:"photos"`
	Logging  LoggingConfig  `yaml:"logging"`
	UI       UIConfig       `yaml:"ui"`

	// Mode is the interaction mode at startup.
	Mode string `yaml:"mode"`

	// Source is the file the configuration came from, or "<defaults>".
	Source string `yaml:"-"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// CameraConfig selects the capture device.
type CameraConfig struct {
	Enabled bool `yaml:"enabled"`
	Device  int  `yaml:"device"`
	FPS     int  `yaml:"fps"`
}

// PipelineConfig sets the gesture tick cadence.
type PipelineConfig struct {
	TickFPS int `yaml:"tick_fps"`
}

// GestureConfig holds the motion pipeline tunables.
type GestureConfig struct {
	SampleWidth        int     `yaml:"sample_width"`
	SampleHeight       int     `yaml:"sample_height"`
	PixelDiffThreshold int     `yaml:"pixel_diff_threshold"`
	MinChangedPixels   int     `yaml:"min_changed_pixels"`
	SpreadThreshold    float64 `yaml:"spread_threshold"`
	StreakRequired     int     `yaml:"streak_required"`
	SwipeThreshold     float64 `yaml:"swipe_threshold"`
	SwipeMultiplier    float64 `yaml:"swipe_multiplier"`
}

// PointerConfig holds the mouse and touch tunables.
type PointerConfig struct {
	HoldMS          int     `yaml:"hold_ms"`
	DragThresholdPx float64 `yaml:"drag_threshold_px"`
	RotationPerPx   float64 `yaml:"rotation_per_px"`
	ParallaxX       float64 `yaml:"parallax_x"`
	ParallaxY       float64 `yaml:"parallax_y"`
	DoublePressMS   int     `yaml:"double_press_ms"`
	PhotoSlots      int     `yaml:"photo_slots"`
}

// PhotosConfig controls the photo store.
type PhotosConfig struct {
	Capacity int    `yaml:"capacity"`
	DBPath   string `yaml:"db_path"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// UIConfig toggles the optional desktop surfaces.
type UIConfig struct {
	Tray    bool `yaml:"tray"`
	Preview bool `yaml:"preview"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Camera: CameraConfig{
			Enabled: true,
			Device:  0,
			FPS:     capture.DefaultFPS,
		},
		Pipeline: PipelineConfig{
			TickFPS: 30,
		},
		Gesture: GestureConfig{
			SampleWidth:        capture.DefaultSampleWidth,
			SampleHeight:       capture.DefaultSampleHeight,
			PixelDiffThreshold: capture.DefaultPixelThreshold,
			MinChangedPixels:   capture.DefaultMinChangedPixels,
			SpreadThreshold:    gesture.DefaultSpreadThreshold,
			StreakRequired:     gesture.DefaultStreakRequired,
			SwipeThreshold:     gesture.DefaultSwipeThreshold,
			SwipeMultiplier:    gesture.DefaultSwipeMultiplier,
		},
		Pointer: PointerConfig{
			HoldMS:          int(interaction.DefaultHoldDelay / time.Millisecond),
			DragThresholdPx: interaction.DefaultDragThreshold,
			RotationPerPx:   interaction.DefaultRotationPerPixel,
			ParallaxX:       interaction.DefaultParallaxX,
			ParallaxY:       interaction.DefaultParallaxY,
			DoublePressMS:   300,
			PhotoSlots:      interaction.DefaultPhotoSlots,
		},
		Photos: PhotosConfig{
			Capacity: 20,
			DBPath:   ":memory:",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		UI: UIConfig{
			Tray:    false,
			Preview: false,
		},
		Mode:   string(state.ModePointer),
		Source: "<defaults>",
	}
}

// Load reads path on top of the defaults and validates the result. An empty
// path tries DefaultFileName and tolerates its absence.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file %q: %w", candidate, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config file %q: %w", candidate, err)
	}
	cfg.Source = candidate

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate fails on any negative or nonsensical tunable. Nothing is clamped.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("%w: server.addr must not be empty", ErrInvalid)
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("%w: camera.device must not be negative", ErrInvalid)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("%w: camera.fps must be positive", ErrInvalid)
	}
	if c.Pipeline.TickFPS <= 0 {
		return fmt.Errorf("%w: pipeline.tick_fps must be positive", ErrInvalid)
	}
	if _, ok := state.ParseMode(c.Mode); !ok {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalid, c.Mode)
	}
	if c.Gesture.SampleWidth <= 0 || c.Gesture.SampleHeight <= 0 {
		return fmt.Errorf("%w: gesture sample size must be positive", ErrInvalid)
	}
	if err := c.MotionConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.InteractionConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Pointer.HoldMS < 0 {
		return fmt.Errorf("%w: pointer.hold_ms must not be negative", ErrInvalid)
	}
	if c.Pointer.DoublePressMS <= 0 {
		return fmt.Errorf("%w: pointer.double_press_ms must be positive", ErrInvalid)
	}
	if c.Photos.Capacity <= 0 {
		return fmt.Errorf("%w: photos.capacity must be positive", ErrInvalid)
	}
	if strings.TrimSpace(c.Photos.DBPath) == "" {
		return fmt.Errorf("%w: photos.db_path must not be empty", ErrInvalid)
	}
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

// MotionConfig returns the differencer settings.
func (c Config) MotionConfig() capture.MotionConfig {
	return capture.MotionConfig{
		PixelThreshold:   c.Gesture.PixelDiffThreshold,
		MinChangedPixels: c.Gesture.MinChangedPixels,
	}
}

// GestureTuning returns the recognizer settings.
func (c Config) GestureTuning() gesture.Config {
	return gesture.Config{
		SpreadThreshold: c.Gesture.SpreadThreshold,
		StreakRequired:  c.Gesture.StreakRequired,
		SwipeThreshold:  c.Gesture.SwipeThreshold,
		SwipeMultiplier: c.Gesture.SwipeMultiplier,
	}
}

// InteractionConfig returns the controller settings, without logger or timer.
func (c Config) InteractionConfig() interaction.Config {
	mode, _ := state.ParseMode(c.Mode)
	return interaction.Config{
		Gesture:          c.GestureTuning(),
		HoldDelay:        time.Duration(c.Pointer.HoldMS) * time.Millisecond,
		DragThreshold:    c.Pointer.DragThresholdPx,
		RotationPerPixel: c.Pointer.RotationPerPx,
		ParallaxX:        c.Pointer.ParallaxX,
		ParallaxY:        c.Pointer.ParallaxY,
		PhotoSlots:       c.Pointer.PhotoSlots,
		Mode:             mode,
	}
}

// InitialMode returns the parsed startup mode.
func (c Config) InitialMode() state.Mode {
	mode, ok := state.ParseMode(c.Mode)
	if !ok {
		return state.ModePointer
	}
	return mode
}

// NormalizeLogLevel lower-cases and checks a log level name.
func NormalizeLogLevel(level string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(level))
	switch l {
	case "debug", "info", "warn", "error":
		return l, nil
	case "":
		return "info", nil
	}
	return "", fmt.Errorf("%w: unsupported log level %q", ErrInvalid, level)
}

// NormalizeFormat lower-cases and checks a log format name.
func NormalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "json", "console":
		return f, nil
	case "text":
		return "console", nil
	case "":
		return "json", nil
	}
	return "", fmt.Errorf("%w: unsupported log format %q", ErrInvalid, format)
}
