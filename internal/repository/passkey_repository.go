package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"prodfind/internal/domain"
)

type PasskeyRepository interface {
	Upsert(ctx context.Context, cred *domain.PasskeyCredential) error
	GetByCredentialID(ctx context.Context, credentialID string) (*domain.PasskeyCredential, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.PasskeyCredential, error)
	Delete(ctx context.Context, credentialID string, userID uuid.UUID) (bool, error)
}

type passkeyRepository struct {
	db sqlx.ExtContext
}

func NewPasskeyRepository(db sqlx.ExtContext) PasskeyRepository {
	return &passkeyRepository{db: db}
}

// Upsert inserts a credential or refreshes its JSON and last use. The
// original owner and creation time are kept.
func (r *passkeyRepository) Upsert(ctx context.Context, cred *domain.PasskeyCredential) error {
	query := `
		INSERT INTO passkeys (credential_id, user_id, credential_json, last_used_at)
		VALUES (:credential_id, :user_id, :credential_json, :last_used_at)
		ON CONFLICT (credential_id) DO UPDATE
		SET credential_json = EXCLUDED.credential_json,
			last_used_at = COALESCE(EXCLUDED.last_used_at, passkeys.last_used_at),
			updated_at = NOW()`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, cred)
	return err
}

func (r *passkeyRepository) GetByCredentialID(ctx context.Context, credentialID string) (*domain.PasskeyCredential, error) {
	var cred domain.PasskeyCredential
	query := `SELECT * FROM passkeys WHERE credential_id = $1`

	err := sqlx.GetContext(ctx, r.db, &cred, query, credentialID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *passkeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.PasskeyCredential, error) {
	creds := []domain.PasskeyCredential{}
	query := `SELECT * FROM passkeys WHERE user_id = $1 ORDER BY created_at ASC`
	err := sqlx.SelectContext(ctx, r.db, &creds, query, userID)
	return creds, err
}

func (r *passkeyRepository) Delete(ctx context.Context, credentialID string, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM passkeys WHERE credential_id = $1 AND user_id = $2`, credentialID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
