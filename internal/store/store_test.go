package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	s, err := New(MemoryPath, capacity)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "photos.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath, 20)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}

	var name string
	err = s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='photos'").Scan(&name)
	if err != nil {
		t.Errorf("photos table should exist after migrations: %v", err)
	}
}

func TestNewStore_InvalidCapacity(t *testing.T) {
	if _, err := New(MemoryPath, 0); err == nil {
		t.Error("expected error for zero capacity")
	}
}

func TestMigrations_Versioned(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "photos.db")

	for i := 0; i < 2; i++ {
		s, err := New(dbPath, 20)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		var version int
		if err := s.DB().QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			t.Fatal(err)
		}
		if version != len(schema) {
			t.Errorf("open %d: user_version = %d, want %d", i, version, len(schema))
		}
		s.Close()
	}
}

func TestMigrations_RejectsNewerSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "photos.db")

	s, err := New(dbPath, 20)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.DB().Exec(fmt.Sprintf("PRAGMA user_version = %d", len(schema)+1)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := New(dbPath, 20); err == nil {
		t.Error("expected error for a schema from a newer build")
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(MemoryPath, 20)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestPhotoRepository_AddAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t, 20).Photos()

	data := bytes.Repeat([]byte("ornament"), 512)
	p := &Photo{ContentType: "image/png", Data: data}
	if err := repo.Add(ctx, p); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if p.ID == "" || p.Size != len(data) || p.CreatedAt.IsZero() {
		t.Fatalf("Add() did not fill metadata: %+v", p)
	}

	// Repetitive payloads are stored compressed.
	var stored []byte
	var compressed bool
	if err := repo.db.QueryRow("SELECT data, compressed FROM photos WHERE id = ?", p.ID).Scan(&stored, &compressed); err != nil {
		t.Fatal(err)
	}
	if !compressed || len(stored) >= len(data) {
		t.Errorf("expected compressed blob, got %d bytes (compressed=%v)", len(stored), compressed)
	}

	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got.Data, data) {
		t.Error("Get() returned different data")
	}
	if got.ContentType != "image/png" {
		t.Errorf("ContentType = %q", got.ContentType)
	}
}

func TestPhotoRepository_IncompressibleData(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t, 20).Photos()

	data := []byte{0x89, 0x50, 0x4e, 0x47}
	p := &Photo{Data: data}
	if err := repo.Add(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Data, data) {
		t.Errorf("Data = %v, want %v", got.Data, data)
	}
}

func TestPhotoRepository_RefOnly(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t, 20).Photos()

	p := &Photo{Ref: "https://example.com/tree.jpg"}
	if err := repo.Add(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Ref != p.Ref || len(got.Data) != 0 {
		t.Errorf("Get() = %+v", got)
	}

	if err := repo.Add(ctx, &Photo{}); !errors.Is(err, ErrEmptyPhoto) {
		t.Errorf("Add(empty) error = %v, want ErrEmptyPhoto", err)
	}
}

func TestPhotoRepository_EvictsBeyondCapacity(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t, 20).Photos()

	var ids []string
	for i := 1; i <= 21; i++ {
		p := &Photo{Ref: fmt.Sprintf("photo-%d", i)}
		if err := repo.Add(ctx, p); err != nil {
			t.Fatalf("Add(%d) error = %v", i, err)
		}
		ids = append(ids, p.ID)
	}

	photos, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(photos) != 20 {
		t.Fatalf("len(List()) = %d, want 20", len(photos))
	}
	if photos[0].Ref != "photo-21" {
		t.Errorf("newest photo = %q, want photo-21", photos[0].Ref)
	}
	if photos[19].Ref != "photo-2" {
		t.Errorf("oldest kept photo = %q, want photo-2", photos[19].Ref)
	}
	if _, err := repo.Get(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest photo should be evicted, Get() error = %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 20 {
		t.Errorf("Count() = %d, %v", n, err)
	}
}

func TestPhotoRepository_GetMissing(t *testing.T) {
	repo := newTestStore(t, 20).Photos()
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPhotoRepository_ListEmpty(t *testing.T) {
	photos, err := newTestStore(t, 20).Photos().List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 0 {
		t.Errorf("List() = %d photos, want 0", len(photos))
	}
}
