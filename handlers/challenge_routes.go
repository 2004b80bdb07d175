// handlers/challenge_routes.go
package handlers

import (
	"carrierwave-activities/middleware"
	"carrierwave-activities/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(v1 fiber.Router, challengeService *services.ChallengeService, progressService *services.ProgressService, leaderboardService *services.LeaderboardService, adminToken string) {
	challenges := v1.Group("/challenges")

	// Public reads. The leaderboard optionally personalizes with the caller's
	// callsign when X-Callsign is present.
	challenges.Get("/", challengeService.ListChallenges)
	challenges.Get("/:id", challengeService.GetChallenge)
	challenges.Get("/:id/leaderboard", middleware.OptionalCallsign(), leaderboardService.GetLeaderboard)

	// Secured routes require the caller's callsign
	secured := challenges.Group("/", middleware.CallsignContextMiddleware())
	secured.Post("/:id/join", challengeService.JoinChallenge)
	secured.Delete("/:id/join", challengeService.LeaveChallenge)
	secured.Post("/:id/progress", progressService.ReportProgress)

	// Admin endpoints
	admin := v1.Group("/admin/challenges", middleware.AdminAuthMiddleware(adminToken))
	admin.Post("/", challengeService.CreateChallenge)
	admin.Put("/:id", challengeService.UpdateChallenge)
	admin.Delete("/:id", challengeService.DeleteChallenge)
}
