package store

import (
	"context"
	"testing"
)

func TestBuildSlots(t *testing.T) {
	photos := []*Photo{
		{ID: "b", Ref: "https://example.com/b.jpg"},
		{ID: "a"},
	}

	slots := BuildSlots(photos, 5)
	if len(slots) != 5 {
		t.Fatalf("len = %d, want 5", len(slots))
	}

	if slots[0].PhotoID != "b" || slots[0].Placeholder {
		t.Errorf("slot 0 = %+v", slots[0])
	}
	if slots[1].PhotoID != "a" || slots[1].Ref != "" {
		t.Errorf("slot 1 = %+v", slots[1])
	}
	for i := 2; i < 5; i++ {
		if !slots[i].Placeholder || slots[i].Ref != PlaceholderRef(i) {
			t.Errorf("slot %d = %+v, want placeholder", i, slots[i])
		}
		if slots[i].Index != i {
			t.Errorf("slot %d index = %d", i, slots[i].Index)
		}
	}
}

func TestPlaceholderRef(t *testing.T) {
	want := "https://picsum.photos/seed/luxury_christmas_7/200/200"
	if got := PlaceholderRef(7); got != want {
		t.Errorf("PlaceholderRef(7) = %q, want %q", got, want)
	}
}

func TestPhotoRepository_Slots(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t, 20).Photos()

	if err := repo.Add(ctx, &Photo{Ref: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Add(ctx, &Photo{Ref: "second"}); err != nil {
		t.Fatal(err)
	}

	slots, err := repo.Slots(ctx, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 20 {
		t.Fatalf("len = %d", len(slots))
	}
	if slots[0].Ref != "second" || slots[1].Ref != "first" || !slots[2].Placeholder {
		t.Errorf("unexpected slots: %+v", slots[:3])
	}
}
