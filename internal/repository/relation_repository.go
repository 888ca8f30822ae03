package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"prodfind/internal/domain"
)

// ProductRelationRepository stores per-user marks on products, one row per
// (product, user) pair. Bookmarks and recommendations share it.
type ProductRelationRepository interface {
	// Add reports whether a new row was inserted.
	Add(ctx context.Context, productID, userID uuid.UUID) (bool, error)
	Remove(ctx context.Context, productID, userID uuid.UUID) (bool, error)
	Exists(ctx context.Context, productID, userID uuid.UUID) (bool, error)
	ListProducts(ctx context.Context, userID uuid.UUID) ([]domain.ProductWithCount, error)
}

type (
	BookmarkRepository       = ProductRelationRepository
	RecommendationRepository = ProductRelationRepository
)

type relationRepository struct {
	db    sqlx.ExtContext
	table string
}

func NewBookmarkRepository(db sqlx.ExtContext) BookmarkRepository {
	return &relationRepository{db: db, table: "bookmarks"}
}

func NewRecommendationRepository(db sqlx.ExtContext) RecommendationRepository {
	return &relationRepository{db: db, table: "recommendations"}
}

func (r *relationRepository) Add(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (product_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (product_id, user_id) DO NOTHING`, r.table)

	res, err := r.db.ExecContext(ctx, query, productID, userID)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", r.table, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *relationRepository) Remove(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE product_id = $1 AND user_id = $2`, r.table)

	res, err := r.db.ExecContext(ctx, query, productID, userID)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", r.table, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *relationRepository) Exists(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE product_id = $1 AND user_id = $2)`, r.table)
	err := sqlx.GetContext(ctx, r.db, &exists, query, productID, userID)
	return exists, err
}

// ListProducts returns the products userID marked, newest mark first.
// Removed products and other authors' private products are left out.
func (r *relationRepository) ListProducts(ctx context.Context, userID uuid.UUID) ([]domain.ProductWithCount, error) {
	query := fmt.Sprintf(`
		SELECT `+productColumns+`, COALESCE(rc.cnt, 0) AS recommendation_count
		FROM %s m
		INNER JOIN products p ON p.id = m.product_id`+recommendationCountJoin+`
		WHERE m.user_id = $1
			AND p.deleted_at IS NULL
			AND (p.visibility <> 'private' OR p.author_id = $1)
		ORDER BY m.created_at DESC`, r.table)

	products := []domain.ProductWithCount{}
	if err := sqlx.SelectContext(ctx, r.db, &products, query, userID); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	return products, nil
}
