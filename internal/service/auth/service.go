package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"prodfind/internal/config"
	"prodfind/internal/domain"
	"prodfind/internal/pkg/validation"
	"prodfind/internal/repository"
)

var (
	ErrInvalidCredentials = domain.Unauthorized("Invalid email or password")
	ErrInvalidToken       = domain.Unauthorized("Invalid or expired token")
	ErrEmailExists        = domain.Conflict("Email already registered")
)

type Service interface {
	Register(ctx context.Context, meta domain.RequestMeta, input domain.CreateUserInput) (*domain.User, *domain.TokenPair, error)
	Login(ctx context.Context, meta domain.RequestMeta, input domain.LoginInput) (*domain.User, *domain.TokenPair, error)
	RefreshToken(ctx context.Context, meta domain.RequestMeta, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(token string) (*Claims, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	BeginPasskeyRegistration(ctx context.Context, actor *domain.User) (*domain.BeginPasskeyResponse, error)
	FinishPasskeyRegistration(ctx context.Context, actor *domain.User, input domain.FinishPasskeyInput) (*domain.PasskeyCredential, error)
	BeginPasskeyLogin(ctx context.Context) (*domain.BeginPasskeyResponse, error)
	FinishPasskeyLogin(ctx context.Context, meta domain.RequestMeta, input domain.FinishPasskeyInput) (*domain.PasskeyLoginResult, error)
}

type Claims struct {
	UserID uuid.UUID       `json:"user_id"`
	Email  string          `json:"email"`
	Role   domain.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	passkeyRepo repository.PasskeyRepository
	passkeys    passkeyProvider
	parser      passkeyParser
	redis       *redis.Client
	cfg         *config.Config
	now         func() time.Time
}

func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	passkeyRepo repository.PasskeyRepository,
	redis *redis.Client,
	cfg *config.Config,
) (Service, error) {
	provider, err := newWebAuthn(cfg)
	if err != nil {
		return nil, err
	}
	return &service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		passkeyRepo: passkeyRepo,
		passkeys:    provider,
		parser:      defaultPasskeyParser{},
		redis:       redis,
		cfg:         cfg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, meta domain.RequestMeta, input domain.CreateUserInput) (*domain.User, *domain.TokenPair, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	hash := string(hashedPassword)

	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: &hash,
		Name:         input.Name,
		Role:         domain.RoleUser,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.generateTokenPair(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

func (s *service) Login(ctx context.Context, meta domain.RequestMeta, input domain.LoginInput) (*domain.User, *domain.TokenPair, error) {
	if err := validation.Struct(input); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.HasPassword() {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokenPair(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// RefreshToken rotates a refresh session: the presented token is revoked and
// a new pair is issued. A token can be rotated only once.
func (s *service) RefreshToken(ctx context.Context, meta domain.RequestMeta, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.sessionRepo.Revoke(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, ErrInvalidToken
	}

	return s.generateTokenPair(ctx, user, meta)
}

// Logout revokes the refresh session. Unknown tokens are ignored.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	_, err = s.sessionRepo.Revoke(ctx, session.ID)
	return err
}

func (s *service) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *service) generateTokenPair(ctx context.Context, user *domain.User, meta domain.RequestMeta) (*domain.TokenPair, error) {
	now := s.now()
	accessClaims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTAccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID.String(),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	refreshTokenRaw := uuid.New().String()

	session := &repository.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(refreshTokenRaw),
		UserAgent: optional(meta.UserAgent),
		IPAddress: optional(meta.IPAddress),
		ExpiresAt: now.Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
	}, nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
