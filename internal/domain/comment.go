package domain

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ProductID      uuid.UUID  `json:"product_id" db:"product_id"`
	AuthorID       uuid.UUID  `json:"author_id" db:"author_id"`
	ParentID       *uuid.UUID `json:"parent_id" db:"parent_id"`
	Content        string     `json:"content" db:"content"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time `json:"-" db:"deleted_at"`
	DeletedBy      *uuid.UUID `json:"-" db:"deleted_by"`
	DeletionReason *string    `json:"-" db:"deletion_reason"`

	Author  *CommentAuthor `json:"author,omitempty" db:"-"`
	Replies []Comment      `json:"replies" db:"-"`
}

func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

type CommentAuthor struct {
	ID    uuid.UUID `json:"id" db:"author_id"`
	Name  string    `json:"name" db:"author_name"`
	Image *string   `json:"image,omitempty" db:"author_image"`
}

// CommentRow is a comment joined with its author, as read for a product.
type CommentRow struct {
	Comment
	AuthorName  string  `db:"author_name"`
	AuthorImage *string `db:"author_image"`
}

// BuildCommentTree assembles flat rows, ordered oldest first, into top-level
// comments carrying their replies. Top-level comments come out newest first
// and replies oldest first. Replies whose parent is missing from rows are
// dropped.
func BuildCommentTree(rows []CommentRow) []Comment {
	replies := make(map[uuid.UUID][]Comment)
	for _, r := range rows {
		if r.ParentID == nil {
			continue
		}
		replies[*r.ParentID] = append(replies[*r.ParentID], r.withAuthor())
	}

	tree := make([]Comment, 0, len(rows)-countReplies(replies))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		if r.ParentID != nil {
			continue
		}
		c := r.withAuthor()
		c.Replies = replies[c.ID]
		if c.Replies == nil {
			c.Replies = []Comment{}
		}
		tree = append(tree, c)
	}
	return tree
}

func countReplies(m map[uuid.UUID][]Comment) int {
	n := 0
	for _, v := range m {
		n += len(v)
	}
	return n
}

func (r CommentRow) withAuthor() Comment {
	c := r.Comment
	c.Author = &CommentAuthor{ID: r.AuthorID, Name: r.AuthorName, Image: r.AuthorImage}
	return c
}

type CreateCommentInput struct {
	ParentID *uuid.UUID `json:"parent_id"`
	Content  string     `json:"content" validate:"notblank,max=2000"`
}

type UpdateCommentInput struct {
	Content string `json:"content" validate:"notblank,max=2000"`
}

type DeleteCommentInput struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
