package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PasskeySessionKind string

const (
	PasskeySessionRegistration PasskeySessionKind = "registration"
	PasskeySessionLogin        PasskeySessionKind = "login"
)

// PasskeyCredential stores a webauthn credential as JSON, keyed by its
// base64url credential id.
type PasskeyCredential struct {
	CredentialID   string     `json:"credential_id" db:"credential_id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	CredentialJSON string     `json:"-" db:"credential_json"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

type BeginPasskeyResponse struct {
	SessionID string `json:"session_id"`
	Options   any    `json:"options"`
}

type FinishPasskeyInput struct {
	SessionID string          `json:"session_id" validate:"required"`
	Response  json.RawMessage `json:"response" validate:"required"`
}

type PasskeyLoginResult struct {
	User   *User      `json:"user"`
	Tokens *TokenPair `json:"tokens"`
}
