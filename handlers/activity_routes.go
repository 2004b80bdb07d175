// handlers/activity_routes.go
package handlers

import (
	"carrierwave-activities/middleware"
	"carrierwave-activities/services"

	"github.com/gofiber/fiber/v2"
)

func SetupActivityRoutes(v1 fiber.Router, activityService *services.ActivityService, inviteService *services.InviteService) {
	secured := v1.Group("/", middleware.CallsignContextMiddleware())

	secured.Post("/activities", activityService.ReportActivity)
	secured.Delete("/activities/:id", activityService.DeleteActivity)
	secured.Get("/feed", activityService.GetFeed)

	secured.Post("/invites/:token/accept", inviteService.AcceptInvite)
}
