package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"prodfind/internal/domain"
)

type MediaRepository struct {
	mock.Mock
}

func (m *MediaRepository) Create(ctx context.Context, media *domain.ProductMedia) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MediaRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.ProductMedia, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.ProductMedia), args.Error(1)
}

func (m *MediaRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}
