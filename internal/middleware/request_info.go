package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"prodfind/internal/domain"
)

const RequestMetaContextKey = "request_meta"

// RequestInfo records the real client IP and user agent. Behind Cloudflare
// the client IP comes from CF-Connecting-IP, otherwise from the first
// X-Forwarded-For hop.
func RequestInfo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(RequestMetaContextKey, domain.RequestMeta{
			IPAddress: clientIP(c),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		})
		return c.Next()
	}
}

func clientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.IP()
}

// GetRequestMeta falls back to reading the request directly when
// RequestInfo did not run.
func GetRequestMeta(c *fiber.Ctx) domain.RequestMeta {
	if meta, ok := c.Locals(RequestMetaContextKey).(domain.RequestMeta); ok {
		return meta
	}
	return domain.RequestMeta{
		IPAddress: clientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}
