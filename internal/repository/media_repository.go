package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kumpul/internal/domain"
)

type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPosts(ctx context.Context, postIDs []uuid.UUID) ([]domain.Media, error)
}

type mediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, media *domain.Media) error {
	query := `
		INSERT INTO media (media_id, post_id, uploaded_by, file_name, file_size, mime_type, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		media.ID, media.PostID, media.UploadedBy,
		media.FileName, media.FileSize, media.MimeType, media.StoragePath,
	).Scan(&media.CreatedAt)
}

func (r *mediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	var media domain.Media
	query := `SELECT * FROM media WHERE media_id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &media, query, id); err != nil {
		return nil, notFoundAsNil(err)
	}
	return &media, nil
}

func (r *mediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE media SET deleted_at = NOW() WHERE media_id = $1 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *mediaRepository) ListByPosts(ctx context.Context, postIDs []uuid.UUID) ([]domain.Media, error) {
	if len(postIDs) == 0 {
		return []domain.Media{}, nil
	}

	var mediaList []domain.Media
	query := `
		SELECT * FROM media
		WHERE post_id = ANY($1::uuid[]) AND deleted_at IS NULL
		ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &mediaList, query, uuidArray(postIDs))
	return mediaList, err
}
