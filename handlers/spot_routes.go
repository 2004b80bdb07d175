// handlers/spot_routes.go
package handlers

import (
	"carrierwave-activities/middleware"
	"carrierwave-activities/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSpotRoutes(v1 fiber.Router, spotService *services.SpotService, adminToken string) {
	spots := v1.Group("/spots")

	spots.Get("/", spotService.ListSpots)

	secured := spots.Group("/", middleware.CallsignContextMiddleware())
	secured.Post("/", spotService.CreateSelfSpot)
	secured.Delete("/:id", spotService.DeleteOwnSpot)

	v1.Delete("/admin/spots/:id", middleware.AdminAuthMiddleware(adminToken), spotService.AdminDeleteSpot)
}
