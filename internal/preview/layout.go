package preview

import (
	"math"
	"math/rand/v2"

	"github.com/wenxinhu03/christmas-tree2/internal/state"
)

// Ring and camera geometry, as fractions of the shorter screen side.
const (
	formedRadius = 0.55
	chaosRadius  = 0.85
	ringTilt     = 0.35
	zoomGain     = 0.6
	parallaxGain = 0.02
)

// View is the smoothed state one frame is drawn from.
type View struct {
	Width, Height float64
	// Progress blends the layout: 0 is FORMED, 1 is CHAOS.
	Progress float64
	Rotation float64
	Zoom     float64
	Offset   state.Vec2
}

// Placement is where one photo slot is drawn.
type Placement struct {
	X, Y  float64
	Scale float64
	// Depth in [0,1]; 1 is nearest the viewer.
	Depth float64
}

func (v View) unit() float64 {
	return math.Min(v.Width, v.Height) / 2
}

func (v View) zoomScale() float64 {
	return 1 + zoomGain*v.Zoom
}

// Center returns the ring center after parallax.
func (v View) Center() (float64, float64) {
	u := v.unit()
	return v.Width/2 + v.Offset.X*parallaxGain*u, v.Height/2 - v.Offset.Y*parallaxGain*u
}

// RingRadius returns the carousel radius in pixels.
func (v View) RingRadius() float64 {
	r := formedRadius + (chaosRadius-formedRadius)*v.Progress
	return r * v.unit() * v.zoomScale()
}

// Ring places n slots evenly around the carousel, slot 0 at Rotation.
func Ring(n int, v View) []Placement {
	if n <= 0 {
		return nil
	}

	cx, cy := v.Center()
	r := v.RingRadius()
	out := make([]Placement, n)
	for i := range out {
		a := v.Rotation + 2*math.Pi*float64(i)/float64(n)
		depth := (math.Sin(a) + 1) / 2
		out[i] = Placement{
			X:     cx + r*math.Cos(a),
			Y:     cy + r*ringTilt*math.Sin(a),
			Scale: (0.6 + 0.4*depth) * v.zoomScale(),
			Depth: depth,
		}
	}
	return out
}

// Particle is one point of the tree with a home in each layout, in units
// of the shorter half screen side around the center.
type Particle struct {
	FormedX, FormedY float64
	ChaosX, ChaosY   float64
	// Hue picks the particle color.
	Hue int
}

// NewParticles builds n particles: a cone for the formed layout and a
// scattered cloud for chaos. The same seed always yields the same tree.
func NewParticles(n int, seed uint64) []Particle {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	ps := make([]Particle, n)
	for i := range ps {
		// Cone: height h from the top, width grows with h.
		h := rng.Float64()
		w := h * 0.6 * (rng.Float64()*2 - 1)

		a := rng.Float64() * 2 * math.Pi
		d := math.Sqrt(rng.Float64()) * 1.2

		ps[i] = Particle{
			FormedX: w,
			FormedY: -0.9 + h*1.7,
			ChaosX:  d * math.Cos(a),
			ChaosY:  d * math.Sin(a),
			Hue:     rng.IntN(len(particleColors)),
		}
	}
	return ps
}

// At returns the particle position in pixels for v.
func (p Particle) At(v View) (float64, float64) {
	cx, cy := v.Center()
	s := v.unit() * v.zoomScale()
	x := p.FormedX + (p.ChaosX-p.FormedX)*v.Progress
	y := p.FormedY + (p.ChaosY-p.FormedY)*v.Progress
	return cx + x*s, cy + y*s
}
