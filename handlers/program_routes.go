// handlers/program_routes.go
package handlers

import (
	"carrierwave-activities/middleware"
	"carrierwave-activities/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgramRoutes(v1 fiber.Router, programService *services.ProgramService, adminToken string) {
	programs := v1.Group("/programs")

	programs.Get("/", programService.ListPrograms)
	programs.Get("/:slug", programService.GetProgram)

	admin := v1.Group("/admin/programs", middleware.AdminAuthMiddleware(adminToken))
	admin.Put("/", programService.UpsertProgram)
	admin.Post("/:slug/icon", programService.UploadProgramIcon)
}
