package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	_ "golang.org/x/image/webp"

	"github.com/wenxinhu03/christmas-tree2/internal/store"
)

const placeholderSize = 64

// Festive palette shared by placeholders and particles.
var particleColors = []color.RGBA{
	{R: 212, G: 175, B: 55, A: 255},  // gold
	{R: 178, G: 34, B: 34, A: 255},   // red
	{R: 34, G: 139, B: 34, A: 255},   // green
	{R: 250, G: 250, B: 240, A: 255}, // snow
}

// SlotImage is a decoded carousel slot.
type SlotImage struct {
	Slot  store.Slot
	Image image.Image
	// Placeholder is true when Image is the generated stand-in, either
	// because the slot is empty or the photo could not be decoded.
	Placeholder bool
}

// LoadSlots reads n carousel slots and decodes their photos. Photos that
// fail to load or decode are logged and replaced with a placeholder; only
// a failure to list the slots is returned.
func LoadSlots(ctx context.Context, photos *store.PhotoRepository, n int, logger *slog.Logger) ([]SlotImage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	slots, err := photos.Slots(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]SlotImage, len(slots))
	for i, slot := range slots {
		out[i] = SlotImage{Slot: slot}
		img, ok := loadSlot(ctx, photos, slot, logger)
		if !ok {
			img = Placeholder(i)
		}
		out[i].Image = img
		out[i].Placeholder = !ok
	}
	return out, nil
}

func loadSlot(ctx context.Context, photos *store.PhotoRepository, slot store.Slot, logger *slog.Logger) (image.Image, bool) {
	if slot.Placeholder || slot.PhotoID == "" {
		return nil, false
	}

	p, err := photos.Get(ctx, slot.PhotoID)
	if err != nil {
		logger.Warn("photo read failed", "slot", slot.Index, "photo_id", slot.PhotoID, "error", err)
		return nil, false
	}
	if len(p.Data) == 0 {
		// Reference-only photos are fetched by browsers, not here.
		logger.Debug("photo has no local data", "slot", slot.Index, "ref", p.Ref)
		return nil, false
	}

	img, format, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		logger.Warn("photo decode failed", "slot", slot.Index, "photo_id", slot.PhotoID, "content_type", p.ContentType, "error", err)
		return nil, false
	}
	logger.Debug("photo decoded", "slot", slot.Index, "format", format, "bounds", img.Bounds().Size())
	return img, true
}

// Placeholder returns the stand-in image for slot i: a colored tile with a
// light frame, the color cycling through the palette.
func Placeholder(i int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	frame := color.RGBA{R: 245, G: 240, B: 225, A: 255}
	fill := particleColors[i%len(particleColors)]

	draw.Draw(img, img.Bounds(), &image.Uniform{C: frame}, image.Point{}, draw.Src)
	inner := image.Rect(4, 4, placeholderSize-4, placeholderSize-12)
	draw.Draw(img, inner, &image.Uniform{C: fill}, image.Point{}, draw.Src)
	return img
}
