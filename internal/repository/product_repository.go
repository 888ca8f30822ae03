package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"prodfind/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error)
	GetWithCount(ctx context.Context, id uuid.UUID) (*domain.ProductWithCount, error)
	List(ctx context.Context, viewerID *uuid.UUID, filter domain.ProductFilter) ([]domain.ProductWithCount, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID, reason string) (*domain.Product, error)
	Restore(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	AppendImage(ctx context.Context, id uuid.UUID, image domain.ProductImage) error
	SetIcon(ctx context.Context, id uuid.UUID, url string) error
}

type productRepository struct {
	db sqlx.ExtContext
}

func NewProductRepository(db sqlx.ExtContext) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.author_id, p.name, p.description, p.short_description, p.price,
	p.images, p.icon, p.links, p.category, p.license, p.visibility,
	p.created_at, p.updated_at, p.deleted_at, p.deleted_by, p.deletion_reason`

// recommendationCountJoin attaches recommendation_count to p; products
// without recommendations get 0.
const recommendationCountJoin = `
	LEFT JOIN (
		SELECT product_id, COUNT(*) AS cnt
		FROM recommendations
		GROUP BY product_id
	) rc ON rc.product_id = p.id`

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.Images == nil {
		product.Images = domain.ProductImages{}
	}
	if product.Links == nil {
		product.Links = domain.ProductLinks{}
	}
	if product.Category == nil {
		product.Category = []string{}
	}

	query := `
		INSERT INTO products (id, author_id, name, description, short_description, price,
			images, icon, links, category, license, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		product.ID, product.AuthorID, product.Name, product.Description, product.ShortDescription, product.Price,
		product.Images, product.Icon, product.Links, product.Category, product.License, product.Visibility,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

// GetByID returns the product whether or not it has been removed.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	err := sqlx.GetContext(ctx, r.db, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	result := make(map[uuid.UUID]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products p WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (r *productRepository) GetWithCount(ctx context.Context, id uuid.UUID) (*domain.ProductWithCount, error) {
	var product domain.ProductWithCount
	query := `
		SELECT ` + productColumns + `, COALESCE(rc.cnt, 0) AS recommendation_count
		FROM products p` + recommendationCountJoin + `
		WHERE p.id = $1`

	err := sqlx.GetContext(ctx, r.db, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, viewerID *uuid.UUID, filter domain.ProductFilter) ([]domain.ProductWithCount, error) {
	where, args := listingWhere(viewerID, filter)
	query := `
		SELECT ` + productColumns + `, COALESCE(rc.cnt, 0) AS recommendation_count
		FROM products p` + recommendationCountJoin + `
		WHERE ` + where + `
		ORDER BY recommendation_count DESC, p.created_at DESC`

	products := []domain.ProductWithCount{}
	if err := sqlx.SelectContext(ctx, r.db, &products, query, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// listingWhere builds the visibility filter for List. An explicit author
// filter skips the viewer rules entirely and shows every visibility of that
// author, matching profile pages. Any caller can use it, so private products
// of any author are listable this way.
func listingWhere(viewerID *uuid.UUID, filter domain.ProductFilter) (string, []any) {
	conds := []string{"p.deleted_at IS NULL"}
	var args []any

	switch {
	case filter.UserID != nil:
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("p.author_id = $%d", len(args)))
	case viewerID == nil:
		conds = append(conds, "p.visibility = 'public'")
	default:
		args = append(args, *viewerID)
		conds = append(conds, fmt.Sprintf(
			"(p.visibility IN ('public', 'unlisted') OR (p.visibility = 'private' AND p.author_id = $%d))", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

// Update writes the editable columns of a product that has not been removed.
// It returns sql.ErrNoRows when no such product exists.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, short_description = $4, price = $5,
			images = $6, icon = $7, links = $8, category = $9, license = $10,
			visibility = $11, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		product.ID, product.Name, product.Description, product.ShortDescription, product.Price,
		product.Images, product.Icon, product.Links, product.Category, product.License,
		product.Visibility,
	).Scan(&product.UpdatedAt)
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SoftDelete sets the removal triple in one statement, only on a product that
// is not already removed. It returns nil when nothing matched.
func (r *productRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID, reason string) (*domain.Product, error) {
	query := `
		UPDATE products p
		SET deleted_at = NOW(), deleted_by = $2, deletion_reason = $3, updated_at = NOW()
		WHERE p.id = $1 AND p.deleted_at IS NULL
		RETURNING ` + productColumns

	var product domain.Product
	err := sqlx.GetContext(ctx, r.db, &product, query, id, deletedBy, reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Restore clears the removal triple of a removed product. It returns nil when
// the product is missing or not removed.
func (r *productRepository) Restore(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		UPDATE products p
		SET deleted_at = NULL, deleted_by = NULL, deletion_reason = NULL, updated_at = NOW()
		WHERE p.id = $1 AND p.deleted_at IS NOT NULL
		RETURNING ` + productColumns

	var product domain.Product
	err := sqlx.GetContext(ctx, r.db, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) AppendImage(ctx context.Context, id uuid.UUID, image domain.ProductImage) error {
	query := `
		UPDATE products
		SET images = COALESCE(images, '[]'::jsonb) || $2::jsonb, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, domain.ProductImages{image})
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *productRepository) SetIcon(ctx context.Context, id uuid.UUID, url string) error {
	query := `UPDATE products SET icon = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, url)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
