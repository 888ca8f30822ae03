package mocks

import (
	"context"

	"prodfind/internal/repository"
)

// Transactor runs fn directly against Repos. It records how many
// transactions were opened.
type Transactor struct {
	Repos *repository.Repositories
	Calls int
}

func (t *Transactor) InTx(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	t.Calls++
	return fn(t.Repos)
}
