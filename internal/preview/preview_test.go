package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/wenxinhu03/christmas-tree2/internal/interaction"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
	"github.com/wenxinhu03/christmas-tree2/internal/store"
)

type recordedInput struct {
	events []string
}

func (r *recordedInput) Press(x, y float64) { r.events = append(r.events, fmt.Sprintf("press %.0f,%.0f", x, y)) }
func (r *recordedInput) Move(p interaction.Pointer) {
	r.events = append(r.events, fmt.Sprintf("move %.0f,%.0f %v", p.X, p.Y, p.Pressed))
}
func (r *recordedInput) Release()     { r.events = append(r.events, "release") }
func (r *recordedInput) DoublePress() { r.events = append(r.events, "double") }

func equalEvents(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPointerTracker(t *testing.T) {
	t0 := time.Date(2026, 12, 24, 20, 0, 0, 0, time.UTC)
	ms := func(n int) time.Time { return t0.Add(time.Duration(n) * time.Millisecond) }

	tests := []struct {
		name  string
		polls func(tr *PointerTracker)
		want  []string
	}{
		{
			name: "click and drag",
			polls: func(tr *PointerTracker) {
				tr.Poll(10, 10, 100, 100, false, ms(0))
				tr.Poll(10, 10, 100, 100, true, ms(16))
				tr.Poll(30, 10, 100, 100, true, ms(32))
				tr.Poll(30, 10, 100, 100, false, ms(48))
			},
			want: []string{"move 10,10 false", "press 10,10", "move 30,10 true", "release"},
		},
		{
			name: "double press",
			polls: func(tr *PointerTracker) {
				tr.Poll(5, 5, 100, 100, true, ms(0))
				tr.Poll(5, 5, 100, 100, false, ms(50))
				tr.Poll(5, 5, 100, 100, true, ms(200))
				tr.Poll(5, 5, 100, 100, false, ms(250))
			},
			want: []string{"press 5,5", "move 5,5 true", "release", "press 5,5", "release", "double"},
		},
		{
			name: "slow second press",
			polls: func(tr *PointerTracker) {
				tr.Poll(5, 5, 100, 100, true, ms(0))
				tr.Poll(5, 5, 100, 100, false, ms(50))
				tr.Poll(5, 5, 100, 100, true, ms(400))
				tr.Poll(5, 5, 100, 100, false, ms(450))
			},
			want: []string{"press 5,5", "move 5,5 true", "release", "press 5,5", "release"},
		},
		{
			name: "triple press yields one double",
			polls: func(tr *PointerTracker) {
				for i := 0; i < 3; i++ {
					tr.Poll(5, 5, 100, 100, true, ms(i*100))
					tr.Poll(5, 5, 100, 100, false, ms(i*100+40))
				}
			},
			want: []string{"press 5,5", "move 5,5 true", "release", "press 5,5", "release", "double", "press 5,5", "release"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &recordedInput{}
			tt.polls(NewPointerTracker(in, 300*time.Millisecond))
			if !equalEvents(in.events, tt.want) {
				t.Errorf("events = %q\nwant     %q", in.events, tt.want)
			}
		})
	}
}

func TestPointerTracker_DrivesController(t *testing.T) {
	st := state.New()
	ctrl, err := interaction.New(interaction.DefaultConfig(), st)
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Close()

	tr := NewPointerTracker(ctrl, 300*time.Millisecond)
	now := time.Now()
	tr.Poll(400, 300, 800, 600, true, now)
	tr.Poll(400, 300, 800, 600, false, now.Add(30*time.Millisecond))
	tr.Poll(400, 300, 800, 600, true, now.Add(100*time.Millisecond))
	tr.Poll(400, 300, 800, 600, false, now.Add(130*time.Millisecond))

	if st.ZoomLevel() != 1 {
		t.Errorf("ZoomLevel = %v, want 1 after a double press", st.ZoomLevel())
	}
	want := -2 * math.Pi / interaction.DefaultPhotoSlots
	if got := st.CarouselRotation(); math.Abs(got-want) > 1e-9 {
		t.Errorf("CarouselRotation = %v, want %v", got, want)
	}
}

func TestMorph(t *testing.T) {
	m := NewMorph(0, 1, ease.Linear)
	if !m.Settled() || m.Update(0.5) != 0 {
		t.Fatal("idle morph should hold its value")
	}

	m.SetTarget(1)
	if got := m.Update(0.5); math.Abs(float64(got)-0.5) > 1e-4 {
		t.Errorf("halfway = %v, want 0.5", got)
	}

	// Retargeting starts from the current value.
	m.SetTarget(0)
	if got := m.Update(0.5); math.Abs(float64(got)-0.25) > 1e-4 {
		t.Errorf("after retarget = %v, want 0.25", got)
	}

	if got := m.Update(1); got != 0 || !m.Settled() {
		t.Errorf("final = %v settled=%v, want 0 and settled", got, m.Settled())
	}

	m.SetTarget(0)
	if !m.Settled() {
		t.Error("setting the current target should not start a tween")
	}
}

func TestMorph_KeepsPrecisionFarFromZero(t *testing.T) {
	// Thousands of turns into a session, one slot step must still ease exactly.
	start := -2 * math.Pi / 20 * 100003
	step := 2 * math.Pi / 20
	m := NewMorph(start, 1, ease.Linear)
	m.SetTarget(start - step)

	if got, want := m.Update(0.5), start-step/2; math.Abs(got-want) > 1e-9 {
		t.Errorf("halfway = %v, want %v", got, want)
	}
	if got := m.Update(1); got != start-step {
		t.Errorf("final = %v, want exactly %v", got, start-step)
	}
}

func TestRing(t *testing.T) {
	base := View{Width: 800, Height: 600}

	if Ring(0, base) != nil {
		t.Error("Ring(0) should be nil")
	}

	ring := Ring(20, base)
	if len(ring) != 20 {
		t.Fatalf("len = %d, want 20", len(ring))
	}
	cx, cy := base.Center()
	if cx != 400 || cy != 300 {
		t.Errorf("center = %v,%v", cx, cy)
	}
	if got, want := ring[0].X-cx, base.RingRadius(); math.Abs(got-want) > 1e-9 {
		t.Errorf("slot 0 offset = %v, want radius %v", got, want)
	}

	chaos := base
	chaos.Progress = 1
	if chaos.RingRadius() <= base.RingRadius() {
		t.Error("chaos ring should be wider than the formed ring")
	}

	zoomed := base
	zoomed.Zoom = 1
	if zoomed.RingRadius() <= base.RingRadius() {
		t.Error("zoom should enlarge the ring")
	}

	rotated := base
	rotated.Rotation = 2 * math.Pi / 20
	r2 := Ring(20, rotated)
	if math.Abs(r2[0].X-ring[1].X) > 1e-9 || math.Abs(r2[0].Y-ring[1].Y) > 1e-9 {
		t.Error("rotating by one slot should move slot 0 onto slot 1")
	}

	shifted := base
	shifted.Offset = state.Vec2{X: 5, Y: 2}
	sx, sy := shifted.Center()
	if sx <= cx || sy >= cy {
		t.Errorf("parallax center = %v,%v, want right of and above %v,%v", sx, sy, cx, cy)
	}
}

func TestParticles(t *testing.T) {
	a := NewParticles(50, 7)
	b := NewParticles(50, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("particles differ for the same seed")
		}
	}

	v := View{Width: 800, Height: 600}
	p := a[0]
	fx, fy := p.At(v)
	v.Progress = 1
	cx, cy := p.At(v)
	wantX := 400 + p.ChaosX*300
	wantY := 300 + p.ChaosY*300
	if math.Abs(cx-wantX) > 1e-9 || math.Abs(cy-wantY) > 1e-9 {
		t.Errorf("chaos position = %v,%v, want %v,%v", cx, cy, wantX, wantY)
	}
	if fx == cx && fy == cy {
		t.Error("formed and chaos positions should differ")
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadSlots(t *testing.T) {
	s, err := store.New(store.MemoryPath, 20)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	photos := s.Photos()
	for _, p := range []*store.Photo{
		{Ref: "https://example.com/a.jpg"},
		{ContentType: "image/jpeg", Data: []byte("definitely not a jpeg")},
		{ContentType: "image/png", Data: pngBytes(t)},
	} {
		if err := photos.Add(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	slots, err := LoadSlots(ctx, photos, 5, nil)
	if err != nil {
		t.Fatalf("LoadSlots() error = %v", err)
	}
	if len(slots) != 5 {
		t.Fatalf("len = %d, want 5", len(slots))
	}

	// Newest first: png, broken jpeg, ref-only, then two empty slots.
	if slots[0].Placeholder || slots[0].Image.Bounds().Dx() != 8 {
		t.Errorf("slot 0 should hold the decoded png, got %+v", slots[0].Slot)
	}
	for i := 1; i < 5; i++ {
		if !slots[i].Placeholder {
			t.Errorf("slot %d should be a placeholder", i)
		}
		if slots[i].Image == nil {
			t.Errorf("slot %d has no image", i)
		}
	}
	if slots[1].Slot.PhotoID == "" {
		t.Error("undecodable photo should keep its slot")
	}
}

func TestPlaceholder(t *testing.T) {
	a, b := Placeholder(0), Placeholder(len(particleColors))
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("placeholder colors should cycle through the palette")
	}
	if bytes.Equal(Placeholder(0).Pix, Placeholder(1).Pix) {
		t.Error("adjacent placeholders should differ")
	}
}

func TestNew_Validates(t *testing.T) {
	st := state.New()
	in := &recordedInput{}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"no state", Config{Input: in, Slots: 20}},
		{"no input", Config{State: st, Slots: 20}},
		{"no slots", Config{State: st, Input: in}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("New() should fail")
			}
		})
	}

	if _, err := New(Config{State: st, Input: in, Slots: 20}); err != nil {
		t.Errorf("New() error = %v", err)
	}
}
