package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"prodfind/internal/domain"
)

func TestListingWhere_Anonymous(t *testing.T) {
	where, args := listingWhere(nil, domain.ProductFilter{})

	assert.Equal(t, "p.deleted_at IS NULL AND p.visibility = 'public'", where)
	assert.Empty(t, args)
}

func TestListingWhere_SignedIn(t *testing.T) {
	viewer := uuid.New()
	where, args := listingWhere(&viewer, domain.ProductFilter{})

	assert.Contains(t, where, "p.deleted_at IS NULL")
	assert.Contains(t, where, "p.visibility IN ('public', 'unlisted')")
	assert.Contains(t, where, "p.visibility = 'private' AND p.author_id = $1")
	assert.Equal(t, []any{viewer}, args)
}

func TestListingWhere_AuthorFilterIgnoresViewer(t *testing.T) {
	author := uuid.New()
	viewer := uuid.New()

	for _, v := range []*uuid.UUID{nil, &viewer} {
		where, args := listingWhere(v, domain.ProductFilter{UserID: &author})

		assert.Equal(t, "p.deleted_at IS NULL AND p.author_id = $1", where)
		assert.Equal(t, []any{author}, args)
		assert.NotContains(t, where, "visibility")
	}
}
