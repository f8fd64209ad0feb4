package capture

import (
	"errors"
	"image"
	"sync"
)

// ErrNoFrame is returned by a Source that has nothing to hand out this tick.
// It is not a failure; callers skip the tick.
var ErrNoFrame = errors.New("no frame available")

// Source is a live video feed polled once per tick. Neither method may block
// waiting for the next frame.
type Source interface {
	// Ready reports whether a frame is currently available.
	Ready() bool
	// Frame returns the current frame.
	Frame() (image.Image, error)
}

// PlaybackSource hands out pre-built frames in order, one per call to Frame.
// Used by tests and by the demo mode without a camera.
type PlaybackSource struct {
	frames []image.Image
	index  int
	loop   bool
	mu     sync.Mutex
}

// NewPlaybackSource creates a PlaybackSource over frames.
func NewPlaybackSource(frames []image.Image, loop bool) *PlaybackSource {
	return &PlaybackSource{
		frames: frames,
		loop:   loop,
	}
}

// Ready reports whether another frame can be read.
func (p *PlaybackSource) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.frames) == 0 {
		return false
	}
	return p.loop || p.index < len(p.frames)
}

// Frame returns the next frame.
func (p *PlaybackSource) Frame() (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.frames) == 0 {
		return nil, ErrNoFrame
	}

	if p.index >= len(p.frames) {
		if !p.loop {
			return nil, ErrNoFrame
		}
		p.index = 0
	}

	frame := p.frames[p.index]
	p.index++
	return frame, nil
}

// Push appends a frame to the end of the sequence.
func (p *PlaybackSource) Push(frames ...image.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, frames...)
}

// Reset restarts playback from the beginning.
func (p *PlaybackSource) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = 0
}
