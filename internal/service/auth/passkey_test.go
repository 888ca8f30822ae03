package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prodfind/internal/config"
	"prodfind/internal/domain"
	"prodfind/internal/mocks"
)

type fakePasskeyProvider struct {
	beginLoginCalls int
}

func (f *fakePasskeyProvider) BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	return &protocol.CredentialCreation{}, &webauthn.SessionData{Challenge: "challenge", UserID: user.WebAuthnID()}, nil
}

func (f *fakePasskeyProvider) CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	return &webauthn.Credential{ID: []byte("credential")}, nil
}

func (f *fakePasskeyProvider) BeginDiscoverableLogin(opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	f.beginLoginCalls++
	return &protocol.CredentialAssertion{}, &webauthn.SessionData{Challenge: "challenge"}, nil
}

func (f *fakePasskeyProvider) ValidatePasskeyLogin(handler webauthn.DiscoverableUserHandler, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (webauthn.User, *webauthn.Credential, error) {
	return nil, nil, nil
}

func newPasskeyTestService(users *mocks.UserRepository, passkeys *mocks.PasskeyRepository) (*service, *fakePasskeyProvider) {
	provider := &fakePasskeyProvider{}
	return &service{
		userRepo:    users,
		sessionRepo: new(mocks.SessionRepository),
		passkeyRepo: passkeys,
		passkeys:    provider,
		parser:      defaultPasskeyParser{},
		cfg:         &config.Config{JWTSecret: "test-secret", WebAuthnSessionTTL: time.Minute},
		now:         time.Now,
	}, provider
}

func TestPasskeyUser(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada"}
	pu := &passkeyUser{user: user}

	assert.Equal(t, []byte(user.ID.String()), pu.WebAuthnID())
	assert.Equal(t, "ada@example.com", pu.WebAuthnName())
	assert.Equal(t, "Ada", pu.WebAuthnDisplayName())
	assert.Empty(t, pu.WebAuthnCredentials())
}

func TestPasskeyUserHandler(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
	stored, err := json.Marshal(webauthn.Credential{ID: []byte("cred-1")})
	require.NoError(t, err)

	users := new(mocks.UserRepository)
	passkeys := new(mocks.PasskeyRepository)
	users.On("GetByID", ctx, user.ID).Return(user, nil)
	passkeys.On("ListByUser", ctx, user.ID).Return([]domain.PasskeyCredential{
		{CredentialID: encodeCredentialID([]byte("cred-1")), UserID: user.ID, CredentialJSON: string(stored)},
	}, nil)
	svc, _ := newPasskeyTestService(users, passkeys)

	t.Run("Resolves the user handle", func(t *testing.T) {
		resolved, err := svc.passkeyUserHandler(ctx)(nil, []byte(user.ID.String()))

		require.NoError(t, err)
		require.Len(t, resolved.WebAuthnCredentials(), 1)
		assert.Equal(t, []byte("cred-1"), resolved.WebAuthnCredentials()[0].ID)
	})

	t.Run("Rejects a malformed handle", func(t *testing.T) {
		_, err := svc.passkeyUserHandler(ctx)(nil, []byte("not-a-uuid"))

		assert.Error(t, err)
	})
}

func TestStorePasskeyCredential_UnknownCredentialOnLogin(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	passkeys := new(mocks.PasskeyRepository)
	passkeys.On("GetByCredentialID", ctx, encodeCredentialID([]byte("cred-x"))).Return(nil, nil)
	svc, _ := newPasskeyTestService(new(mocks.UserRepository), passkeys)

	_, err := svc.storePasskeyCredential(ctx, userID, webauthn.Credential{ID: []byte("cred-x")}, true)

	assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
	passkeys.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestBeginPasskeyLogin_RequiresRedis(t *testing.T) {
	svc, provider := newPasskeyTestService(new(mocks.UserRepository), new(mocks.PasskeyRepository))

	_, err := svc.BeginPasskeyLogin(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 1, provider.beginLoginCalls)
}

func TestEncodeCredentialID(t *testing.T) {
	assert.Equal(t, "_-8", encodeCredentialID([]byte{0xff, 0xef}))
}
