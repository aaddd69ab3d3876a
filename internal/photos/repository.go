package photos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sheeplab/sheepdiary/internal/apperror"
)

// PhotoRepository defines the data access contract for photos.
type PhotoRepository interface {
	Create(ctx context.Context, photo *Photo) error
	FindByID(ctx context.Context, id string) (*Photo, error)
	ListByEvent(ctx context.Context, eventID int64) ([]Photo, error)
	Delete(ctx context.Context, id string) error
}

// photoRepository implements PhotoRepository using MariaDB.
type photoRepository struct {
	db *sql.DB
}

// NewPhotoRepository creates a new PhotoRepository backed by the given
// database connection.
func NewPhotoRepository(db *sql.DB) PhotoRepository {
	return &photoRepository{db: db}
}

const photoColumns = `id, event_id, user_id, filename, original_name, mime_type,
	file_size, caption, thumbnail_path, created_at`

// Create inserts a new photo record.
func (r *photoRepository) Create(ctx context.Context, photo *Photo) error {
	query := `INSERT INTO photos (id, event_id, user_id, filename, original_name,
	           mime_type, file_size, caption, thumbnail_path)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		photo.ID, photo.EventID, photo.UserID, photo.Filename, photo.OriginalName,
		photo.MimeType, photo.FileSize, photo.Caption, photo.ThumbnailPath,
	)
	if err != nil {
		return fmt.Errorf("inserting photo: %w", err)
	}
	return nil
}

// FindByID retrieves a photo by its UUID.
func (r *photoRepository) FindByID(ctx context.Context, id string) (*Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = ?`

	var p Photo
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.EventID, &p.UserID, &p.Filename, &p.OriginalName,
		&p.MimeType, &p.FileSize, &p.Caption, &p.ThumbnailPath, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("photo not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying photo by id: %w", err)
	}
	return &p, nil
}

// ListByEvent returns an event's photos in upload order.
func (r *photoRepository) ListByEvent(ctx context.Context, eventID int64) ([]Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE event_id = ? ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing photos by event: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(
			&p.ID, &p.EventID, &p.UserID, &p.Filename, &p.OriginalName,
			&p.MimeType, &p.FileSize, &p.Caption, &p.ThumbnailPath, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning photo row: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating photo rows: %w", err)
	}
	return photos, nil
}

// Delete removes a photo record.
func (r *photoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting photo: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("photo not found")
	}
	return nil
}
