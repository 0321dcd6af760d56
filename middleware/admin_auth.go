// middleware/admin_auth.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthMiddleware validates the Bearer token on operator routes. The
// actual operator identity lives upstream; this service only checks the
// shared token it was handed.
func AdminAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("ADMIN_API_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ ADMIN_API_TOKEN is not set — operator routes cannot be authenticated")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [ADMIN_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "admin authentication token missing",
			})
		}

		// Parse "Bearer <token>"
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// no "Bearer " prefix — accept the raw value
			token = authHeader
		}

		if token != expectedToken {
			log.Printf("❌ [ADMIN_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid admin authentication token",
			})
		}

		return c.Next()
	}
}
