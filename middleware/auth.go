// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CallsignContextMiddleware extracts the authenticated callsign set by the
// Gateway. Routes that report progress, join challenges or post spots need
// an identity; everything else can read locals("callsign") opportunistically.
func CallsignContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		callsign := strings.ToUpper(strings.TrimSpace(c.Get("X-Callsign")))
		if callsign == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Callsign; request must come through gateway with auth context",
			})
		}

		c.Locals("callsign", callsign)
		return c.Next()
	}
}

// OptionalCallsign attaches the callsign when present without requiring it.
// Leaderboard reads use it to fill userPosition.
func OptionalCallsign() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if callsign := strings.ToUpper(strings.TrimSpace(c.Get("X-Callsign"))); callsign != "" {
			c.Locals("callsign", callsign)
		}
		return c.Next()
	}
}
