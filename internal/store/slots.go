package store

import (
	"context"
	"fmt"
)

// Slot is one position on the photo carousel.
type Slot struct {
	Index int `json:"index"`
	// PhotoID is empty for placeholder slots.
	PhotoID     string `json:"photo_id,omitempty"`
	Ref         string `json:"ref,omitempty"`
	Placeholder bool   `json:"placeholder"`
}

// PlaceholderRef returns the stock image shown in an empty slot.
func PlaceholderRef(i int) string {
	return fmt.Sprintf("https://picsum.photos/seed/luxury_christmas_%d/200/200", i)
}

// Slots fills n carousel slots with the newest photos first and
// placeholders after them.
func (r *PhotoRepository) Slots(ctx context.Context, n int) ([]Slot, error) {
	photos, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildSlots(photos, n), nil
}

// BuildSlots lays photos out over n slots.
func BuildSlots(photos []*Photo, n int) []Slot {
	slots := make([]Slot, n)
	for i := range slots {
		if i < len(photos) {
			slots[i] = Slot{Index: i, PhotoID: photos[i].ID, Ref: photos[i].Ref}
			continue
		}
		slots[i] = Slot{Index: i, Ref: PlaceholderRef(i), Placeholder: true}
	}
	return slots
}
