package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prodfind/internal/config"
	"prodfind/internal/domain"
	"prodfind/internal/pkg/validation"
)

var errPasskeySessionNotFound = domain.NotFound("Passkey session not found or expired")

type passkeyProvider interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginDiscoverableLogin(opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidatePasskeyLogin(handler webauthn.DiscoverableUserHandler, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (webauthn.User, *webauthn.Credential, error)
}

type passkeyParser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type defaultPasskeyParser struct{}

func (defaultPasskeyParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBytes(data)
}

func (defaultPasskeyParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBytes(data)
}

func newWebAuthn(cfg *config.Config) (passkeyProvider, error) {
	w, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.WebAuthnRPDisplayName,
		RPID:          cfg.WebAuthnRPID,
		RPOrigins:     cfg.WebAuthnRPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("configure webauthn: %w", err)
	}
	return w, nil
}

// passkeyUser adapts a user and their stored credentials to webauthn. The
// user handle is the textual user id.
type passkeyUser struct {
	user        *domain.User
	credentials []webauthn.Credential
}

func (u *passkeyUser) WebAuthnID() []byte {
	return []byte(u.user.ID.String())
}

func (u *passkeyUser) WebAuthnName() string {
	return u.user.Email
}

func (u *passkeyUser) WebAuthnDisplayName() string {
	return u.user.Name
}

func (u *passkeyUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

type passkeySession struct {
	Kind   domain.PasskeySessionKind `json:"kind"`
	UserID *uuid.UUID                `json:"user_id,omitempty"`
	Data   webauthn.SessionData      `json:"data"`
}

func passkeySessionKey(id string) string {
	return "passkey:session:" + id
}

func (s *service) BeginPasskeyRegistration(ctx context.Context, actor *domain.User) (*domain.BeginPasskeyResponse, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}

	user, err := s.loadPasskeyUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	options := []webauthn.RegistrationOption{
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	}
	if len(user.credentials) > 0 {
		options = append(options, webauthn.WithExclusions(webauthn.Credentials(user.credentials).CredentialDescriptors()))
	}

	creation, session, err := s.passkeys.BeginRegistration(user, options...)
	if err != nil {
		return nil, fmt.Errorf("begin passkey registration: %w", err)
	}

	sessionID, err := s.storePasskeySession(ctx, domain.PasskeySessionRegistration, &actor.ID, session)
	if err != nil {
		return nil, err
	}

	return &domain.BeginPasskeyResponse{SessionID: sessionID, Options: creation}, nil
}

func (s *service) FinishPasskeyRegistration(ctx context.Context, actor *domain.User, input domain.FinishPasskeyInput) (*domain.PasskeyCredential, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	session, err := s.loadPasskeySession(ctx, input.SessionID, domain.PasskeySessionRegistration)
	if err != nil {
		return nil, err
	}
	if session.UserID == nil || *session.UserID != actor.ID {
		return nil, errPasskeySessionNotFound
	}

	user, err := s.loadPasskeyUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.ParseCredentialCreationResponseBytes(input.Response)
	if err != nil {
		return nil, domain.Validation("Invalid credential response")
	}
	credential, err := s.passkeys.CreateCredential(user, session.Data, parsed)
	if err != nil {
		return nil, domain.Validation("Passkey registration could not be verified")
	}

	stored, err := s.storePasskeyCredential(ctx, actor.ID, *credential, false)
	if err != nil {
		return nil, err
	}
	s.deletePasskeySession(ctx, input.SessionID)

	return stored, nil
}

func (s *service) BeginPasskeyLogin(ctx context.Context) (*domain.BeginPasskeyResponse, error) {
	assertion, session, err := s.passkeys.BeginDiscoverableLogin()
	if err != nil {
		return nil, fmt.Errorf("begin passkey login: %w", err)
	}

	sessionID, err := s.storePasskeySession(ctx, domain.PasskeySessionLogin, nil, session)
	if err != nil {
		return nil, err
	}

	return &domain.BeginPasskeyResponse{SessionID: sessionID, Options: assertion}, nil
}

func (s *service) FinishPasskeyLogin(ctx context.Context, meta domain.RequestMeta, input domain.FinishPasskeyInput) (*domain.PasskeyLoginResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	session, err := s.loadPasskeySession(ctx, input.SessionID, domain.PasskeySessionLogin)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.ParseCredentialRequestResponseBytes(input.Response)
	if err != nil {
		return nil, domain.Validation("Invalid credential response")
	}

	validated, credential, err := s.passkeys.ValidatePasskeyLogin(s.passkeyUserHandler(ctx), session.Data, parsed)
	if err != nil {
		return nil, domain.Unauthorized("Passkey login failed")
	}
	user, ok := validated.(*passkeyUser)
	if !ok {
		return nil, errors.New("passkey user type mismatch")
	}

	if _, err := s.storePasskeyCredential(ctx, user.user.ID, *credential, true); err != nil {
		return nil, err
	}
	s.deletePasskeySession(ctx, input.SessionID)

	tokens, err := s.generateTokenPair(ctx, user.user, meta)
	if err != nil {
		return nil, err
	}

	return &domain.PasskeyLoginResult{User: user.user, Tokens: tokens}, nil
}

func (s *service) passkeyUserHandler(ctx context.Context) webauthn.DiscoverableUserHandler {
	return func(_, userHandle []byte) (webauthn.User, error) {
		userID, err := uuid.ParseBytes(userHandle)
		if err != nil {
			return nil, fmt.Errorf("invalid user handle: %w", err)
		}
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("user %s not found", userID)
		}
		return s.loadPasskeyUser(ctx, user)
	}
}

func (s *service) loadPasskeyUser(ctx context.Context, user *domain.User) (*passkeyUser, error) {
	records, err := s.passkeyRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	credentials := make([]webauthn.Credential, 0, len(records))
	for _, record := range records {
		var credential webauthn.Credential
		if err := json.Unmarshal([]byte(record.CredentialJSON), &credential); err != nil {
			return nil, fmt.Errorf("decode credential %s: %w", record.CredentialID, err)
		}
		credentials = append(credentials, credential)
	}
	return &passkeyUser{user: user, credentials: credentials}, nil
}

// storePasskeyCredential saves a new or updated credential. A used
// credential must already be registered.
func (s *service) storePasskeyCredential(ctx context.Context, userID uuid.UUID, credential webauthn.Credential, used bool) (*domain.PasskeyCredential, error) {
	credentialID := encodeCredentialID(credential.ID)
	if used {
		existing, err := s.passkeyRepo.GetByCredentialID(ctx, credentialID)
		if err != nil {
			return nil, err
		}
		if existing == nil || existing.UserID != userID {
			return nil, domain.Unauthorized("Passkey is not registered")
		}
	}

	credentialJSON, err := json.Marshal(credential)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &domain.PasskeyCredential{
		CredentialID:   credentialID,
		UserID:         userID,
		CredentialJSON: string(credentialJSON),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if used {
		record.LastUsedAt = &now
	}

	if err := s.passkeyRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("store passkey credential: %w", err)
	}
	return record, nil
}

func (s *service) storePasskeySession(ctx context.Context, kind domain.PasskeySessionKind, userID *uuid.UUID, data *webauthn.SessionData) (string, error) {
	if s.redis == nil {
		return "", errors.New("passkey sessions require redis")
	}
	if data == nil {
		return "", errors.New("session data is required")
	}

	payload, err := json.Marshal(passkeySession{Kind: kind, UserID: userID, Data: *data})
	if err != nil {
		return "", err
	}

	sessionID := uuid.New().String()
	if err := s.redis.Set(ctx, passkeySessionKey(sessionID), payload, s.cfg.WebAuthnSessionTTL).Err(); err != nil {
		return "", fmt.Errorf("store passkey session: %w", err)
	}
	return sessionID, nil
}

func (s *service) loadPasskeySession(ctx context.Context, sessionID string, kind domain.PasskeySessionKind) (*passkeySession, error) {
	if s.redis == nil {
		return nil, errors.New("passkey sessions require redis")
	}

	raw, err := s.redis.Get(ctx, passkeySessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errPasskeySessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load passkey session: %w", err)
	}

	var session passkeySession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode passkey session: %w", err)
	}
	if session.Kind != kind {
		return nil, errPasskeySessionNotFound
	}
	return &session, nil
}

func (s *service) deletePasskeySession(ctx context.Context, sessionID string) {
	_ = s.redis.Del(ctx, passkeySessionKey(sessionID)).Err()
}

func encodeCredentialID(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
