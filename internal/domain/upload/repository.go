package upload

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository persists upload records
type Repository interface {
	Create(ctx context.Context, u *Upload) error
	GetByID(ctx context.Context, id uuid.UUID) (*Upload, error)
	ListByUser(ctx context.Context, userID uuid.UUID, kind *Kind, limit, offset int) ([]Upload, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UploadRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) Create(ctx context.Context, u *Upload) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO uploads (id, user_id, kind, original_name, mime_type, size_bytes,
			width, height, storage_key, thumb_key, url, thumb_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, u.ID, u.UserID, u.Kind, u.OriginalName, u.MimeType, u.SizeBytes,
		u.Width, u.Height, u.StorageKey, u.ThumbKey, u.URL, u.ThumbURL)
	if err != nil {
		return fmt.Errorf("%w: create upload", ErrInternal)
	}

	return nil
}

func (r *UploadRepository) GetByID(ctx context.Context, id uuid.UUID) (*Upload, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var u Upload
	err := r.db.GetContext(ctx2, &u, `
		SELECT id, user_id, kind, original_name, mime_type, size_bytes,
			width, height, storage_key, thumb_key, url, thumb_url, created_at
		FROM uploads
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get upload", ErrInternal)
	}

	return &u, nil
}

func (r *UploadRepository) ListByUser(ctx context.Context, userID uuid.UUID, kind *Kind, limit, offset int) ([]Upload, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, user_id, kind, original_name, mime_type, size_bytes,
			width, height, storage_key, thumb_key, url, thumb_url, created_at
		FROM uploads
		WHERE user_id = $1`
	args := []interface{}{userID}

	if kind != nil {
		query += ` AND kind = $2`
		args = append(args, *kind)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	uploads := make([]Upload, 0)
	if err := r.db.SelectContext(ctx2, &uploads, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list uploads", ErrInternal)
	}

	return uploads, nil
}

func (r *UploadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete upload", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
