package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"prodfind/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetSafeByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.SafeUser, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	AssignRole(ctx context.Context, userID uuid.UUID, role domain.UserRole) error
}

type userRepository struct {
	db sqlx.ExtContext
}

func NewUserRepository(db sqlx.ExtContext) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, image, role, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.Image, user.Role, user.EmailVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT * FROM users WHERE id = $1 AND deleted_at IS NULL`

	err := sqlx.GetContext(ctx, r.db, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT * FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`

	err := sqlx.GetContext(ctx, r.db, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetSafeByIDs loads the public fields of users, including soft-deleted ones
// so old notifications and comments still render their actor.
func (r *userRepository) GetSafeByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.SafeUser, error) {
	result := make(map[uuid.UUID]domain.SafeUser, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, image, created_at FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var users []domain.SafeUser
	if err := sqlx.SelectContext(ctx, r.db, &users, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL)`
	err := sqlx.GetContext(ctx, r.db, &exists, query, email)
	return exists, err
}

// SetPassword stores a hash only for users without one, reporting
// sql.ErrNoRows when the user already has a password or is gone.
func (r *userRepository) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND (password_hash IS NULL OR password_hash = '')
		RETURNING updated_at`

	var updatedAt time.Time
	return r.db.QueryRowxContext(ctx, query, userID, passwordHash).Scan(&updatedAt)
}

func (r *userRepository) AssignRole(ctx context.Context, userID uuid.UUID, role domain.UserRole) error {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	var updatedAt time.Time
	err := r.db.QueryRowxContext(ctx, query, userID, role).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("user not found")
	}
	return err
}
