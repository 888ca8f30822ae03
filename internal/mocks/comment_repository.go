package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"prodfind/internal/domain"
)

type CommentRepository struct {
	mock.Mock
}

func (m *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *CommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID, reason *string) (bool, error) {
	args := m.Called(ctx, id, deletedBy, reason)
	return args.Bool(0), args.Error(1)
}

func (m *CommentRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.CommentRow, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.CommentRow), args.Error(1)
}
