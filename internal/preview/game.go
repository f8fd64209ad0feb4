// Package preview is a native window that renders the shared state as a
// particle tree with a photo carousel, and feeds mouse and touch input back
// to the interaction controller.
package preview

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween/ease"

	"github.com/wenxinhu03/christmas-tree2/internal/state"
	"github.com/wenxinhu03/christmas-tree2/internal/store"
)

// Defaults for the window and smoothing.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720

	morphSeconds    = 1.2
	rotationSeconds = 0.35
	zoomSeconds     = 0.5
	particleCount   = 400
	photoPixels     = 56
	reloadInterval  = 2 * time.Second
)

var background = color.RGBA{R: 6, G: 22, B: 14, A: 255}

// Config holds the preview dependencies. Photos and ToggleMode are optional.
type Config struct {
	State       *state.State
	Input       Input
	Photos      *store.PhotoRepository
	Slots       int
	DoublePress time.Duration
	ToggleMode  func() (state.Mode, error)
	Logger      *slog.Logger
}

type sprite struct {
	img         *ebiten.Image
	placeholder bool
}

// Game implements ebiten.Game.
type Game struct {
	cfg     Config
	logger  *slog.Logger
	ctx     context.Context
	tracker *PointerTracker

	morph    *Morph
	rotation *Morph
	zoom     *Morph

	particles []Particle
	sprites   []sprite

	mu      sync.Mutex
	pending []SlotImage

	width, height int
}

// New creates a Game. It does not open a window.
func New(cfg Config) (*Game, error) {
	if cfg.State == nil {
		return nil, errors.New("preview: state is required")
	}
	if cfg.Input == nil {
		return nil, errors.New("preview: input is required")
	}
	if cfg.Slots <= 0 {
		return nil, fmt.Errorf("preview: invalid slot count %d", cfg.Slots)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snap := cfg.State.Snapshot()
	g := &Game{
		cfg:       cfg,
		logger:    logger,
		ctx:       context.Background(),
		tracker:   NewPointerTracker(cfg.Input, cfg.DoublePress),
		morph:     NewMorph(progressFor(snap.TreeState), morphSeconds, ease.InOutCubic),
		rotation:  NewMorph(snap.CarouselRotation, rotationSeconds, ease.OutQuad),
		zoom:      NewMorph(snap.ZoomLevel, zoomSeconds, ease.OutQuad),
		particles: NewParticles(particleCount, 2024),
		width:     DefaultWidth,
		height:    DefaultHeight,
	}
	return g, nil
}

// Run opens the window and blocks until it is closed or ctx is done.
func (g *Game) Run(ctx context.Context) error {
	g.ctx = ctx

	if g.cfg.Photos != nil {
		go g.watchPhotos(ctx)
	}

	ebiten.SetWindowSize(DefaultWidth, DefaultHeight)
	ebiten.SetWindowTitle("Christmas Tree")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g.logger.Info("preview window opened")
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	g.logger.Info("preview window closed")
	return err
}

func progressFor(ts state.TreeState) float64 {
	if ts == state.TreeChaos {
		return 1
	}
	return 0
}

func (g *Game) watchPhotos(ctx context.Context) {
	ticker := time.NewTicker(reloadInterval)
	defer ticker.Stop()

	for {
		slots, err := LoadSlots(ctx, g.cfg.Photos, g.cfg.Slots, g.logger)
		if err != nil {
			g.logger.Warn("photo slots unavailable", "error", err)
		} else {
			g.mu.Lock()
			g.pending = slots
			g.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Update polls input and advances the smoothing.
func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}

	g.pollPointer()

	if inpututil.IsKeyJustPressed(ebiten.KeyG) && g.cfg.ToggleMode != nil {
		if mode, err := g.cfg.ToggleMode(); err != nil {
			g.logger.Warn("mode switch from preview failed", "mode", mode, "error", err)
		}
	}

	g.swapSprites()

	snap := g.cfg.State.Snapshot()
	dt := float32(1) / float32(ebiten.TPS())
	g.morph.SetTarget(progressFor(snap.TreeState))
	g.rotation.SetTarget(snap.CarouselRotation)
	g.zoom.SetTarget(snap.ZoomLevel)
	g.morph.Update(dt)
	g.rotation.Update(dt)
	g.zoom.Update(dt)
	return nil
}

func (g *Game) pollPointer() {
	w, h := float64(g.width), float64(g.height)

	// The first touch stands in for the mouse.
	if touches := ebiten.AppendTouchIDs(nil); len(touches) > 0 {
		tx, ty := ebiten.TouchPosition(touches[0])
		g.tracker.Poll(float64(tx), float64(ty), w, h, true, time.Now())
		return
	}

	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	g.tracker.Poll(float64(mx), float64(my), w, h, pressed, time.Now())
}

func (g *Game) swapSprites() {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	if pending == nil {
		return
	}

	for _, s := range g.sprites {
		s.img.Deallocate()
	}
	g.sprites = make([]sprite, len(pending))
	for i, si := range pending {
		g.sprites[i] = sprite{img: ebiten.NewImageFromImage(si.Image), placeholder: si.Placeholder}
	}
}

func (g *Game) view(snap state.Snapshot) View {
	return View{
		Width:    float64(g.width),
		Height:   float64(g.height),
		Progress: g.morph.Value(),
		Rotation: g.rotation.Value(),
		Zoom:     g.zoom.Value(),
		Offset:   snap.CamOffset,
	}
}

// Draw renders the tree, the carousel and the status line.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	snap := g.cfg.State.Snapshot()
	v := g.view(snap)

	for _, p := range g.particles {
		x, y := p.At(v)
		vector.DrawFilledCircle(screen, float32(x), float32(y), 2, particleColors[p.Hue], true)
	}

	placements := Ring(len(g.sprites), v)
	// Far slots first so near ones overlap them.
	for pass := 0; pass < 2; pass++ {
		for i, pl := range placements {
			if (pl.Depth >= 0.5) != (pass == 1) {
				continue
			}
			g.drawSprite(screen, g.sprites[i], pl)
		}
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"Mode: %s  [G] toggle\nTree: %s\nGesture: %s\nFPS: %.0f",
		snap.Mode, snap.TreeState, snap.GestureStatus, ebiten.ActualFPS(),
	))
}

func (g *Game) drawSprite(screen *ebiten.Image, s sprite, pl Placement) {
	b := s.img.Bounds()
	side := float64(max(b.Dx(), b.Dy()))
	if side == 0 {
		return
	}
	scale := photoPixels * pl.Scale / side

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2)
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(pl.X, pl.Y)
	op.ColorScale.ScaleAlpha(float32(0.55 + 0.45*pl.Depth))
	if s.placeholder {
		op.ColorScale.ScaleAlpha(0.8)
	}
	screen.DrawImage(s.img, op)
}

// Layout tracks the window size so pointer coordinates stay in pixels.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
