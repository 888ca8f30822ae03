package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"prodfind/internal/domain"
)

type PasskeyRepository struct {
	mock.Mock
}

func (m *PasskeyRepository) Upsert(ctx context.Context, cred *domain.PasskeyCredential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *PasskeyRepository) GetByCredentialID(ctx context.Context, credentialID string) (*domain.PasskeyCredential, error) {
	args := m.Called(ctx, credentialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PasskeyCredential), args.Error(1)
}

func (m *PasskeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.PasskeyCredential, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.PasskeyCredential), args.Error(1)
}

func (m *PasskeyRepository) Delete(ctx context.Context, credentialID string, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, credentialID, userID)
	return args.Bool(0), args.Error(1)
}
