package capture

import (
	"image"
	"image/color"
	"testing"

	"github.com/wenxinhu03/christmas-tree2/internal/capture/capturetest"
)

func TestNewSampler_InvalidSize(t *testing.T) {
	if _, err := NewSampler(0, 96); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := NewSampler(128, -1); err == nil {
		t.Error("expected error for negative height")
	}
}

func TestSampler_DownsamplesAndMirrors(t *testing.T) {
	s, err := NewSampler(DefaultSampleWidth, DefaultSampleHeight)
	if err != nil {
		t.Fatalf("NewSampler() error = %v", err)
	}

	// 640x480 frame: left half red, right half blue.
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	frame := capturetest.Solid(640, 480, red)
	frame = capturetest.WithRect(frame, image.Rect(320, 0, 640, 480), blue)

	src := NewPlaybackSource([]image.Image{frame}, false)
	out, ok := s.Sample(src)
	if !ok {
		t.Fatal("Sample() returned false for a ready source")
	}

	if got := out.Bounds().Size(); got != image.Pt(128, 96) {
		t.Fatalf("sample size = %v, want 128x96", got)
	}

	// After mirroring the blue half is on the left.
	if got := out.RGBAAt(10, 48); got != blue {
		t.Errorf("pixel (10,48) = %v, want blue", got)
	}
	if got := out.RGBAAt(117, 48); got != red {
		t.Errorf("pixel (117,48) = %v, want red", got)
	}
}

func TestSampler_ReusesBuffer(t *testing.T) {
	s, _ := NewSampler(32, 24)
	frames := capturetest.Static(64, 48, 2)
	src := NewPlaybackSource(frames, false)

	first, _ := s.Sample(src)
	second, _ := s.Sample(src)
	if first != second {
		t.Error("sampler should overwrite a single reusable buffer")
	}
}

func TestSampler_SkipsWhenNotReady(t *testing.T) {
	s, _ := NewSampler(32, 24)

	tests := []struct {
		name string
		src  Source
	}{
		{name: "nil source", src: nil},
		{name: "no frames", src: NewPlaybackSource(nil, false)},
		{name: "zero dimensions", src: capturetest.EmptySource{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := make([]uint8, len(s.buf.Pix))
			copy(before, s.buf.Pix)

			if _, ok := s.Sample(tt.src); ok {
				t.Error("Sample() should skip the tick")
			}
			for i := range before {
				if before[i] != s.buf.Pix[i] {
					t.Fatal("skipped tick must not touch the buffer")
				}
			}
		})
	}
}
