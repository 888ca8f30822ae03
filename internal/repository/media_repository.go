package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"prodfind/internal/domain"
)

type MediaRepository interface {
	Create(ctx context.Context, media *domain.ProductMedia) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.ProductMedia, error)
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
}

type mediaRepository struct {
	db sqlx.ExtContext
}

func NewMediaRepository(db sqlx.ExtContext) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, media *domain.ProductMedia) error {
	query := `
		INSERT INTO product_media (id, product_id, uploaded_by, kind, file_name, file_size, mime_type, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		media.ID, media.ProductID, media.UploadedBy, media.Kind,
		media.FileName, media.FileSize, media.MimeType, media.StoragePath,
	).Scan(&media.CreatedAt)
}

func (r *mediaRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.ProductMedia, error) {
	media := []domain.ProductMedia{}
	query := `SELECT * FROM product_media WHERE product_id = $1 ORDER BY created_at ASC`
	err := sqlx.SelectContext(ctx, r.db, &media, query, productID)
	return media, err
}

func (r *mediaRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM product_media WHERE product_id = $1`, productID)
	return err
}
