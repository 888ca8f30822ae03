package auth_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"prodfind/internal/config"
	"prodfind/internal/domain"
	"prodfind/internal/mocks"
	"prodfind/internal/repository"
	"prodfind/internal/service/auth"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:             "test-secret",
		JWTAccessExpiry:       15 * time.Minute,
		JWTRefreshExpiry:      24 * time.Hour,
		WebAuthnRPDisplayName: "Prodfind",
		WebAuthnRPID:          "localhost",
		WebAuthnRPOrigins:     []string{"http://localhost:3000"},
		WebAuthnSessionTTL:    5 * time.Minute,
	}
}

type fixture struct {
	users    *mocks.UserRepository
	sessions *mocks.SessionRepository
	svc      auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    new(mocks.UserRepository),
		sessions: new(mocks.SessionRepository),
	}
	svc, err := auth.NewService(f.users, f.sessions, new(mocks.PasskeyRepository), nil, testConfig())
	require.NoError(t, err)
	f.svc = svc
	return f
}

func sha(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var meta = domain.RequestMeta{IPAddress: "192.0.2.1", UserAgent: "Mozilla/5.0"}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Normalizes email and issues tokens", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
		f.users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		var session *repository.Session
		f.sessions.On("Create", ctx, mock.AnythingOfType("*repository.Session")).
			Run(func(args mock.Arguments) { session = args.Get(1).(*repository.Session) }).
			Return(nil)

		user, tokens, err := f.svc.Register(ctx, meta, domain.CreateUserInput{
			Email:    "  Ada@Example.com ",
			Password: "correct horse",
			Name:     "Ada",
		})

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, domain.RoleUser, user.Role)
		require.NotNil(t, user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("correct horse")))

		assert.Equal(t, int64(900), tokens.ExpiresIn)
		require.NotNil(t, session)
		assert.Equal(t, sha(tokens.RefreshToken), session.TokenHash)
		assert.Equal(t, user.ID, session.UserID)
		require.NotNil(t, session.IPAddress)
		assert.Equal(t, "192.0.2.1", *session.IPAddress)

		claims, err := f.svc.ValidateAccessToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, domain.RoleUser, claims.Role)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("ExistsByEmail", ctx, "ada@example.com").Return(true, nil)

		_, _, err := f.svc.Register(ctx, meta, domain.CreateUserInput{Email: "ada@example.com", Password: "correct horse", Name: "Ada"})

		assert.ErrorIs(t, err, auth.ErrEmailExists)
	})

	t.Run("Invalid input", func(t *testing.T) {
		f := newFixture(t)

		_, _, err := f.svc.Register(ctx, meta, domain.CreateUserInput{Email: "nope", Password: "short", Name: "A"})

		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, domain.KindValidation, de.Kind)
		assert.Contains(t, de.Details, "email")
		assert.Contains(t, de.Details, "password")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := string(hash)
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: &stored, Role: domain.RoleAdmin}

	t.Run("Valid credentials", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("GetByEmail", ctx, "ada@example.com").Return(user, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*repository.Session")).Return(nil)

		got, tokens, err := f.svc.Login(ctx, meta, domain.LoginInput{Email: "ada@example.com", Password: "correct horse"})

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		claims, err := f.svc.ValidateAccessToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, claims.Role)
	})

	t.Run("Wrong password", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("GetByEmail", ctx, "ada@example.com").Return(user, nil)

		_, _, err := f.svc.Login(ctx, meta, domain.LoginInput{Email: "ada@example.com", Password: "wrong horse"})

		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("Unknown email", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

		_, _, err := f.svc.Login(ctx, meta, domain.LoginInput{Email: "ghost@example.com", Password: "correct horse"})

		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("Passkey-only account", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("GetByEmail", ctx, "pk@example.com").Return(&domain.User{ID: uuid.New(), Email: "pk@example.com"}, nil)

		_, _, err := f.svc.Login(ctx, meta, domain.LoginInput{Email: "pk@example.com", Password: "correct horse"})

		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com", Role: domain.RoleUser}
	session := &repository.Session{ID: uuid.New(), UserID: user.ID, TokenHash: sha("old-token")}

	t.Run("Rotates the session", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.On("GetByTokenHash", ctx, sha("old-token")).Return(session, nil)
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.sessions.On("Revoke", ctx, session.ID).Return(true, nil).Once()
		f.sessions.On("Create", ctx, mock.AnythingOfType("*repository.Session")).Return(nil)

		tokens, err := f.svc.RefreshToken(ctx, meta, "old-token")

		require.NoError(t, err)
		assert.NotEqual(t, "old-token", tokens.RefreshToken)
		f.sessions.AssertExpectations(t)
	})

	t.Run("Lost rotation race", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.On("GetByTokenHash", ctx, sha("old-token")).Return(session, nil)
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.sessions.On("Revoke", ctx, session.ID).Return(false, nil)

		_, err := f.svc.RefreshToken(ctx, meta, "old-token")

		assert.ErrorIs(t, err, auth.ErrInvalidToken)
		f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Unknown token", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.On("GetByTokenHash", ctx, sha("bogus")).Return(nil, nil)

		_, err := f.svc.RefreshToken(ctx, meta, "bogus")

		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Empty token", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.RefreshToken(ctx, meta, "")

		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestValidateAccessToken(t *testing.T) {
	f := newFixture(t)

	sign := func(method jwt.SigningMethod, key any, expires time.Time) string {
		claims := &auth.Claims{
			UserID: uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(expires),
			},
		}
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	t.Run("Expired", func(t *testing.T) {
		_, err := f.svc.ValidateAccessToken(sign(jwt.SigningMethodHS256, []byte("test-secret"), time.Now().Add(-time.Minute)))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		_, err := f.svc.ValidateAccessToken(sign(jwt.SigningMethodHS256, []byte("other"), time.Now().Add(time.Minute)))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Wrong algorithm", func(t *testing.T) {
		_, err := f.svc.ValidateAccessToken(sign(jwt.SigningMethodHS512, []byte("test-secret"), time.Now().Add(time.Minute)))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := f.svc.ValidateAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := &repository.Session{ID: uuid.New()}
	f.sessions.On("GetByTokenHash", ctx, sha("token")).Return(session, nil)
	f.sessions.On("Revoke", ctx, session.ID).Return(true, nil)
	f.sessions.On("GetByTokenHash", ctx, sha("unknown")).Return(nil, nil)

	assert.NoError(t, f.svc.Logout(ctx, "token"))
	assert.NoError(t, f.svc.Logout(ctx, "unknown"))
	assert.NoError(t, f.svc.Logout(ctx, ""))
	f.sessions.AssertNumberOfCalls(t, "Revoke", 1)
}
