package middleware

import (
	"github.com/gofiber/fiber/v2"

	"prodfind/internal/domain"
)

func RequireRole(requiredRole domain.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetCurrentUser(c)
		if user == nil {
			return Unauthorized("User not found")
		}

		if !user.HasRole(requiredRole) {
			if requiredRole == domain.RoleAdmin {
				return domain.ErrAdminRequired
			}
			return Forbidden("Insufficient permissions for this operation")
		}

		return c.Next()
	}
}

func IsAdmin(c *fiber.Ctx) bool {
	return GetCurrentUser(c).IsAdmin()
}
