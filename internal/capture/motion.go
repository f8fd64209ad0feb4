package capture

import (
	"fmt"
	"image"
)

// Motion differencing defaults.
const (
	// DefaultPixelThreshold is the minimum |dR|+|dG|+|dB| for a pixel to
	// count as changed.
	DefaultPixelThreshold = 80
	// DefaultMinChangedPixels is the changed-pixel count at or below which a
	// frame is treated as having no motion.
	DefaultMinChangedPixels = 25
)

// Point is a position in normalized coordinates, x and y in [-1, 1] with y
// pointing up.
type Point struct {
	X float64
	Y float64
}

// MotionFrame holds the motion statistics for one tick. Centroid and
// BoundingBoxRatio are only meaningful when Motion is true.
type MotionFrame struct {
	ChangedPixels    int
	Motion           bool
	Centroid         Point
	BoundingBoxRatio float64
}

// MotionConfig tunes the Differencer.
type MotionConfig struct {
	PixelThreshold   int
	MinChangedPixels int
}

// DefaultMotionConfig returns the tuned defaults.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		PixelThreshold:   DefaultPixelThreshold,
		MinChangedPixels: DefaultMinChangedPixels,
	}
}

// Validate rejects thresholds that would make every or no pixel count.
func (c MotionConfig) Validate() error {
	if c.PixelThreshold < 0 || c.PixelThreshold >= 3*255 {
		return fmt.Errorf("pixel threshold %d out of range [0, 765)", c.PixelThreshold)
	}
	if c.MinChangedPixels < 0 {
		return fmt.Errorf("min changed pixels %d must not be negative", c.MinChangedPixels)
	}
	return nil
}

// Differencer compares each sampled buffer with the previous one. It owns
// the only copy of the previous buffer.
type Differencer struct {
	cfg  MotionConfig
	prev []uint8
	w, h int
}

// NewDifferencer creates a Differencer with the given config.
func NewDifferencer(cfg MotionConfig) (*Differencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Differencer{cfg: cfg}, nil
}

// Diff compares cur with the previous buffer and then stores a copy of cur
// as the new previous buffer. ok is false on the first call, and after a
// Reset or a change in buffer size, since there is nothing to compare with.
func (d *Differencer) Diff(cur *image.RGBA) (mf MotionFrame, ok bool) {
	if cur == nil {
		return MotionFrame{}, false
	}

	b := cur.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return MotionFrame{}, false
	}

	havePrev := d.prev != nil && d.w == w && d.h == h
	if havePrev {
		mf = d.compare(cur, w, h)
	}
	d.store(cur, w, h)

	return mf, havePrev
}

func (d *Differencer) compare(cur *image.RGBA, w, h int) MotionFrame {
	var (
		changed    int
		sumX, sumY int
		minX, maxX = w, 0
		minY, maxY = h, 0
	)

	threshold := d.cfg.PixelThreshold
	for y := 0; y < h; y++ {
		row := cur.Pix[y*cur.Stride : y*cur.Stride+w*4]
		prevRow := d.prev[y*w*4 : (y+1)*w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			diff := absDiff(row[i], prevRow[i]) +
				absDiff(row[i+1], prevRow[i+1]) +
				absDiff(row[i+2], prevRow[i+2])
			if diff <= threshold {
				continue
			}

			changed++
			sumX += x
			sumY += y
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	mf := MotionFrame{ChangedPixels: changed}
	if changed <= d.cfg.MinChangedPixels {
		return mf
	}

	n := float64(changed)
	boxW := max(0, maxX-minX)
	boxH := max(0, maxY-minY)

	mf.Motion = true
	mf.Centroid = Point{
		X: (float64(sumX)/n)/float64(w)*2 - 1,
		Y: -((float64(sumY)/n)/float64(h)*2 - 1),
	}
	mf.BoundingBoxRatio = float64(boxW*boxH) / float64(w*h)
	return mf
}

// store copies cur, row by row, into the previous buffer.
func (d *Differencer) store(cur *image.RGBA, w, h int) {
	if len(d.prev) != w*h*4 {
		d.prev = make([]uint8, w*h*4)
	}
	for y := 0; y < h; y++ {
		copy(d.prev[y*w*4:(y+1)*w*4], cur.Pix[y*cur.Stride:y*cur.Stride+w*4])
	}
	d.w, d.h = w, h
}

// Reset drops the previous buffer; the next Diff call becomes a first tick.
func (d *Differencer) Reset() {
	d.prev = nil
	d.w, d.h = 0, 0
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
