package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"prodfind/internal/domain"
)

// RelationRepository mocks both bookmark and recommendation storage.
type RelationRepository struct {
	mock.Mock
}

func (m *RelationRepository) Add(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RelationRepository) Remove(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RelationRepository) Exists(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RelationRepository) ListProducts(ctx context.Context, userID uuid.UUID) ([]domain.ProductWithCount, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.ProductWithCount), args.Error(1)
}
