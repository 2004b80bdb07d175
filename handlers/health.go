// handlers/health.go
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupHealthRoute exposes an unauthenticated liveness check that also pings
// the database.
func SetupHealthRoute(app *fiber.App, db *gorm.DB) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"cause":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
