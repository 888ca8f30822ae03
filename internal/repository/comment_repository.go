package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"prodfind/internal/domain"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	Update(ctx context.Context, comment *domain.Comment) error
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID, reason *string) (bool, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.CommentRow, error)
}

type commentRepository struct {
	db sqlx.ExtContext
}

func NewCommentRepository(db sqlx.ExtContext) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (id, product_id, author_id, parent_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		comment.ID, comment.ProductID, comment.AuthorID, comment.ParentID, comment.Content,
	).Scan(&comment.CreatedAt, &comment.UpdatedAt)
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	query := `SELECT * FROM comments WHERE id = $1 AND deleted_at IS NULL`

	err := sqlx.GetContext(ctx, r.db, &comment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	query := `
		UPDATE comments
		SET content = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		comment.ID, comment.Content,
	).Scan(&comment.UpdatedAt)
}

func (r *commentRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID, reason *string) (bool, error) {
	query := `
		UPDATE comments
		SET deleted_at = NOW(), deleted_by = $2, deletion_reason = COALESCE($3, 'Deleted'), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, deletedBy, reason)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListByProduct returns the live comments of a product in creation order,
// flat. Callers assemble the reply tree.
func (r *commentRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.CommentRow, error) {
	query := `
		SELECT
			c.id, c.product_id, c.author_id, c.parent_id, c.content, c.created_at, c.updated_at,
			c.deleted_at, c.deleted_by, c.deletion_reason,
			u.name AS author_name, u.image AS author_image
		FROM comments c
		INNER JOIN users u ON c.author_id = u.id
		WHERE c.product_id = $1 AND c.deleted_at IS NULL
		ORDER BY c.created_at ASC`

	rows := []domain.CommentRow{}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, productID); err != nil {
		return nil, err
	}
	return rows, nil
}
