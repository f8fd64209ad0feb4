// Package capture turns a webcam feed into per-tick motion statistics:
// camera access through GoCV, a non-blocking frame grabber, the
// downsampling mirror sampler and the frame differencer.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Requested capture settings. Devices are free to deliver something else.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a closed camera.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrReadFailed is returned when the device refuses a frame.
	ErrReadFailed = errors.New("camera read failed")
)

// Camera is a webcam as seen by the Grabber.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame blocks until the next frame. The caller closes the Mat.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// webcam is the GoCV Camera. The mutex covers the device handle; ReadFrame
// holds it while blocked, so Close waits for the read in flight.
type webcam struct {
	device int

	mu      sync.Mutex
	capture *gocv.VideoCapture
	fps     int
}

// NewCamera returns a Camera for a device index. Nothing is opened yet.
func NewCamera(device int) Camera {
	return &webcam{device: device, fps: DefaultFPS}
}

func (w *webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(w.device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", w.device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open camera %d: device not available", w.device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	vc.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	vc.Set(gocv.VideoCaptureFPS, float64(w.fps))

	w.capture = vc
	return nil
}

func (w *webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture == nil {
		return nil
	}
	err := w.capture.Close()
	w.capture = nil
	return err
}

func (w *webcam) ReadFrame() (*gocv.Mat, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if !w.capture.Read(&mat) {
		mat.Close()
		return nil, fmt.Errorf("camera %d: %w", w.device, ErrReadFailed)
	}
	if mat.Empty() {
		mat.Close()
		return nil, ErrNoFrame
	}
	return &mat, nil
}

// SetFPS changes the requested rate; non-positive values are ignored.
func (w *webcam) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.fps = fps
	if w.capture != nil {
		w.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (w *webcam) FPS() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fps
}

func (w *webcam) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capture != nil
}
