package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"prodfind/internal/domain"
	"prodfind/internal/service/auth"
)

const (
	UserContextKey   = "user"
	UserIDContextKey = "user_id"
)

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(authService auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return Unauthorized("Missing authorization header")
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			return Unauthorized("Invalid authorization header format")
		}

		user, err := authenticate(c, authService, token)
		if err != nil {
			return err
		}

		setCurrentUser(c, user)
		return c.Next()
	}
}

// AuthOptional attaches the user when a valid bearer token is present and
// lets anonymous requests through. A present but invalid token is rejected.
func AuthOptional(authService auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			return Unauthorized("Invalid authorization header format")
		}

		user, err := authenticate(c, authService, token)
		if err != nil {
			return err
		}

		setCurrentUser(c, user)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func authenticate(c *fiber.Ctx, authService auth.Service, token string) (*domain.User, error) {
	claims, err := authService.ValidateAccessToken(token)
	if err != nil {
		return nil, Unauthorized("Invalid or expired token")
	}

	user, err := authService.GetUserByID(c.UserContext(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, Unauthorized("User not found")
	}
	return user, nil
}

func setCurrentUser(c *fiber.Ctx, user *domain.User) {
	c.Locals(UserContextKey, user)
	c.Locals(UserIDContextKey, user.ID)
}

// GetCurrentUser returns nil for anonymous requests.
func GetCurrentUser(c *fiber.Ctx) *domain.User {
	user, ok := c.Locals(UserContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

func GetCurrentUserID(c *fiber.Ctx) uuid.UUID {
	userID, ok := c.Locals(UserIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}
