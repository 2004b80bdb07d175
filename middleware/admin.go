// middleware/admin.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthMiddleware guards the admin surface (challenge CRUD, program
// management, spot moderation) with the static ADMIN_TOKEN.
func AdminAuthMiddleware(adminToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("X-Admin-Token") != adminToken {
			log.Printf("[ADMIN_AUTH] rejected %s %s", c.Method(), c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin token required",
			})
		}
		return c.Next()
	}
}
