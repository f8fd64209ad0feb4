package capture

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Grabber reads a Camera on its own goroutine and keeps only the most recent
// frame, so the per-tick pipeline can poll without waiting on the device.
// It implements Source.
type Grabber struct {
	camera Camera
	logger *slog.Logger

	mu      sync.Mutex
	latest  gocv.Mat
	have    bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	backoff time.Duration
}

// NewGrabber creates a Grabber over camera. Call Start to open the device.
func NewGrabber(camera Camera, logger *slog.Logger) *Grabber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Grabber{
		camera:  camera,
		logger:  logger,
		latest:  gocv.NewMat(),
		backoff: 100 * time.Millisecond,
	}
}

// Start opens the camera and begins grabbing. Starting a running grabber is a no-op.
func (g *Grabber) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopCh != nil {
		return nil
	}

	if err := g.camera.Open(); err != nil {
		return err
	}

	g.stopCh = make(chan struct{})
	g.doneCh = make(chan struct{})
	go g.run(g.stopCh, g.doneCh)

	g.logger.Info("camera opened", "fps", g.camera.FPS())
	return nil
}

// Stop halts grabbing, closes the camera and forgets the last frame.
func (g *Grabber) Stop() {
	g.mu.Lock()
	stopCh, doneCh := g.stopCh, g.doneCh
	g.stopCh, g.doneCh = nil, nil
	g.mu.Unlock()

	if stopCh == nil {
		return
	}

	close(stopCh)
	// Close waits out the read in flight; the next read sees a closed camera.
	if err := g.camera.Close(); err != nil {
		g.logger.Warn("error closing camera", "error", err)
	}
	<-doneCh

	g.mu.Lock()
	g.have = false
	g.mu.Unlock()

	g.logger.Info("camera closed")
}

// Close stops the grabber and releases the frame buffer.
func (g *Grabber) Close() {
	g.Stop()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest.Close()
}

func (g *Grabber) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		frame, err := g.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrCameraNotOpen) {
				return
			}
			// Dropped frames are normal while the device warms up.
			select {
			case <-stopCh:
				return
			case <-time.After(g.backoff):
			}
			continue
		}

		g.mu.Lock()
		frame.CopyTo(&g.latest)
		g.have = true
		g.mu.Unlock()
		frame.Close()
	}
}

// Ready reports whether at least one frame has been grabbed.
func (g *Grabber) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.have && !g.latest.Empty()
}

// Frame converts the latest grabbed frame to an image.
func (g *Grabber) Frame() (image.Image, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.have || g.latest.Empty() {
		return nil, ErrNoFrame
	}
	return g.latest.ToImage()
}

// JPEG encodes the latest grabbed frame, for the preview stream.
func (g *Grabber) JPEG() ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.have || g.latest.Empty() {
		return nil, ErrNoFrame
	}

	mirrored := gocv.NewMat()
	defer mirrored.Close()
	gocv.Flip(g.latest, &mirrored, 1)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mirrored)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
