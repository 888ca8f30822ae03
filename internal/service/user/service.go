package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"prodfind/internal/domain"
	"prodfind/internal/pkg/validation"
	"prodfind/internal/repository"
)

var (
	ErrUserNotFound   = domain.NotFound("User not found")
	ErrPasswordExists = domain.Conflict("Password already set")
)

type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	AddPassword(ctx context.Context, actor *domain.User, input domain.SetPasswordInput) error
	ListPasskeys(ctx context.Context, actor *domain.User) ([]domain.PasskeyCredential, error)
	DeletePasskey(ctx context.Context, actor *domain.User, credentialID string) error
}

type service struct {
	userRepo    repository.UserRepository
	passkeyRepo repository.PasskeyRepository
}

func NewService(userRepo repository.UserRepository, passkeyRepo repository.PasskeyRepository) Service {
	return &service{userRepo: userRepo, passkeyRepo: passkeyRepo}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// AddPassword lets an account created without a password (passkey only)
// set one. Accounts that already have a password are rejected.
func (s *service) AddPassword(ctx context.Context, actor *domain.User, input domain.SetPasswordInput) error {
	if actor == nil {
		return domain.Unauthorized("Authentication required")
	}
	if err := validation.Struct(input); err != nil {
		return err
	}
	if actor.HasPassword() {
		return ErrPasswordExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = s.userRepo.SetPassword(ctx, actor.ID, string(hashedPassword))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPasswordExists
	}
	return err
}

func (s *service) ListPasskeys(ctx context.Context, actor *domain.User) ([]domain.PasskeyCredential, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}
	return s.passkeyRepo.ListByUser(ctx, actor.ID)
}

func (s *service) DeletePasskey(ctx context.Context, actor *domain.User, credentialID string) error {
	if actor == nil {
		return domain.Unauthorized("Authentication required")
	}
	deleted, err := s.passkeyRepo.Delete(ctx, credentialID, actor.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.NotFound("Passkey not found")
	}
	return nil
}
