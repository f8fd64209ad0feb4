package capture

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Default sampling resolution. Small enough that the per-pixel differencing
// loop stays well inside one display refresh.
const (
	DefaultSampleWidth  = 128
	DefaultSampleHeight = 96
)

// Sampler downsamples and horizontally mirrors frames into one reusable
// RGBA buffer, so the sampled image matches what a user sees in a mirror.
type Sampler struct {
	buf    *image.RGBA
	scaler xdraw.Transformer
}

// NewSampler creates a Sampler producing width x height buffers.
func NewSampler(width, height int) (*Sampler, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid sample size %dx%d", width, height)
	}
	return &Sampler{
		buf:    image.NewRGBA(image.Rect(0, 0, width, height)),
		scaler: xdraw.ApproxBiLinear,
	}, nil
}

// Size returns the sample buffer dimensions.
func (s *Sampler) Size() (int, int) {
	b := s.buf.Bounds()
	return b.Dx(), b.Dy()
}

// Sample reads the current frame from src into the sample buffer. It returns
// false, leaving the buffer untouched, when src has no usable frame.
// The returned image is overwritten by the next successful call.
func (s *Sampler) Sample(src Source) (*image.RGBA, bool) {
	if src == nil || !src.Ready() {
		return nil, false
	}

	frame, err := src.Frame()
	if err != nil || frame == nil {
		return nil, false
	}

	fb := frame.Bounds()
	if fb.Dx() <= 0 || fb.Dy() <= 0 {
		return nil, false
	}

	w, h := s.Size()
	sx := float64(w) / float64(fb.Dx())
	sy := float64(h) / float64(fb.Dy())

	// Maps source (u, v) to destination (w - sx*(u-minX), sy*(v-minY)).
	m := f64.Aff3{
		-sx, 0, float64(w) + sx*float64(fb.Min.X),
		0, sy, -sy * float64(fb.Min.Y),
	}
	s.scaler.Transform(s.buf, m, frame, fb, xdraw.Src, nil)

	return s.buf, true
}
