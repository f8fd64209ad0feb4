package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmptyPhoto is returned when a photo has neither a reference nor data.
var ErrEmptyPhoto = errors.New("photo has no reference or data")

// Photo is one carousel image. Ref is an external reference such as a URL;
// Data holds uploaded bytes. Either may be empty, not both.
type Photo struct {
	ID          string
	Ref         string
	ContentType string
	Size        int
	Data        []byte
	CreatedAt   time.Time
}

// PhotoRepository stores photos newest first and evicts beyond capacity.
type PhotoRepository struct {
	db       *sql.DB
	capacity int
}

// Photos returns the photo repository for this store.
func (s *Store) Photos() *PhotoRepository {
	return &PhotoRepository{db: s.db, capacity: s.capacity}
}

// Add inserts p as the newest photo and drops the oldest ones beyond
// capacity in the same transaction. ID, Size and CreatedAt are filled in.
func (r *PhotoRepository) Add(ctx context.Context, p *Photo) error {
	if p.Ref == "" && len(p.Data) == 0 {
		return ErrEmptyPhoto
	}

	p.ID = uuid.NewString()
	p.Size = len(p.Data)
	p.CreatedAt = time.Now().UTC()

	blob, compressed, err := compress(p.Data)
	if err != nil {
		return fmt.Errorf("compress photo: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO photos (id, ref, content_type, size, compressed, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Ref, p.ContentType, p.Size, compressed, blob, p.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM photos WHERE seq NOT IN (
			SELECT seq FROM photos ORDER BY seq DESC LIMIT ?
		)`,
		r.capacity,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// List returns photo metadata, newest first. Data is not loaded.
func (r *PhotoRepository) List(ctx context.Context) ([]*Photo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ref, content_type, size, created_at
		 FROM photos ORDER BY seq DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*Photo
	for rows.Next() {
		p := &Photo{}
		if err := rows.Scan(&p.ID, &p.Ref, &p.ContentType, &p.Size, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return photos, nil
}

// Get retrieves a photo including its data.
func (r *PhotoRepository) Get(ctx context.Context, id string) (*Photo, error) {
	p := &Photo{}
	var (
		blob       []byte
		compressed bool
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, ref, content_type, size, compressed, data, created_at
		 FROM photos WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Ref, &p.ContentType, &p.Size, &compressed, &blob, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Data, err = decompress(blob, compressed, p.Size)
	if err != nil {
		return nil, fmt.Errorf("decompress photo %s: %w", id, err)
	}
	return p, nil
}

// Count returns the number of stored photos.
func (r *PhotoRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos`).Scan(&n)
	return n, err
}

// compress returns an LZ4 block, or the input unchanged when it does not
// shrink.
func compress(data []byte) ([]byte, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}

	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, false, err
	}
	if n == 0 || n >= len(data) {
		return data, false, nil
	}
	return buf[:n], true, nil
}

func decompress(blob []byte, compressed bool, size int) ([]byte, error) {
	if !compressed {
		return blob, nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(blob, out)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, n)
	}
	return out, nil
}
