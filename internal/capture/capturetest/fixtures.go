// Package capturetest builds synthetic video frames for pipeline tests.
package capturetest

import (
	"image"
	"image/color"
	"image/draw"
)

// Colors used by the fixtures.
var (
	Black = color.RGBA{A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Gray  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// Solid returns a w x h frame filled with c.
func Solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// WithRect returns a copy of base with r filled with c.
func WithRect(base *image.RGBA, r image.Rectangle, c color.Color) *image.RGBA {
	img := image.NewRGBA(base.Bounds())
	copy(img.Pix, base.Pix)
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// Blink returns n+1 frames alternating between a black background and the
// same background with a white rectangle r. Every consecutive pair differs
// in exactly the pixels of r, so each diff reports the same statistics.
func Blink(w, h int, r image.Rectangle, n int) []image.Image {
	base := Solid(w, h, Black)
	lit := WithRect(base, r, White)

	frames := make([]image.Image, 0, n+1)
	frames = append(frames, base)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			frames = append(frames, lit)
		} else {
			frames = append(frames, base)
		}
	}
	return frames
}

// Sweep returns frames in which a white rectangle of the given size moves
// horizontally by stepX pixels per frame, starting at x0. The first frame is
// the black background.
func Sweep(w, h int, size image.Point, x0, y0, stepX, n int) []image.Image {
	base := Solid(w, h, Black)

	frames := make([]image.Image, 0, n+1)
	frames = append(frames, base)
	for i := 0; i < n; i++ {
		x := x0 + i*stepX
		r := image.Rect(x, y0, x+size.X, y0+size.Y)
		frames = append(frames, WithRect(base, r, White))
	}
	return frames
}

// Static returns n identical frames.
func Static(w, h int, n int) []image.Image {
	base := Solid(w, h, Gray)
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = base
	}
	return frames
}

// FistRect is a small motion region whose bounding box ratio stays well
// under the default spread threshold on a 128x96 sample.
func FistRect() image.Rectangle {
	return image.Rect(50, 40, 70, 60)
}

// OpenRect is a large motion region whose bounding box ratio is well above
// the default spread threshold on a 128x96 sample.
func OpenRect() image.Rectangle {
	return image.Rect(20, 10, 100, 80)
}

// EmptySource is a Source with zero-sized frames, standing in for a camera
// that has not delivered its first frame yet.
type EmptySource struct{}

// Ready always reports true; the frame itself is empty.
func (EmptySource) Ready() bool { return true }

// Frame returns a zero-sized image.
func (EmptySource) Frame() (image.Image, error) {
	return image.NewRGBA(image.Rectangle{}), nil
}
