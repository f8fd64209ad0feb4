package capture

import (
	"errors"
	"image"
	"testing"

	"github.com/wenxinhu03/christmas-tree2/internal/capture/capturetest"
)

func TestPlaybackSource_Playback(t *testing.T) {
	frames := capturetest.Static(16, 16, 2)
	src := NewPlaybackSource(frames, false)

	for i := 0; i < 2; i++ {
		if !src.Ready() {
			t.Fatalf("Ready() = false before frame %d", i)
		}
		if _, err := src.Frame(); err != nil {
			t.Fatalf("Frame() error = %v", err)
		}
	}

	if src.Ready() {
		t.Error("Ready() should be false once all frames are consumed")
	}
	if _, err := src.Frame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Frame() error = %v, want ErrNoFrame", err)
	}
}

func TestPlaybackSource_Loop(t *testing.T) {
	src := NewPlaybackSource(capturetest.Static(8, 8, 1), true)

	for i := 0; i < 5; i++ {
		if _, err := src.Frame(); err != nil {
			t.Fatalf("Frame() iteration %d error = %v", i, err)
		}
	}
}

func TestPlaybackSource_PushAndReset(t *testing.T) {
	src := NewPlaybackSource(nil, false)
	if src.Ready() {
		t.Error("empty source should not be ready")
	}

	frame := capturetest.Solid(4, 4, capturetest.White)
	src.Push(frame)

	got, err := src.Frame()
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if got.(*image.RGBA) != frame {
		t.Error("Frame() returned a different image")
	}

	src.Reset()
	if !src.Ready() {
		t.Error("Reset should rewind playback")
	}
}
