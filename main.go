package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"carrierwave-activities/config"
	"carrierwave-activities/handlers"
	"carrierwave-activities/middleware"
	"carrierwave-activities/models"
	"carrierwave-activities/services"
	"carrierwave-activities/utils"
	"carrierwave-activities/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, icons are the largest upload
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Callsign, X-Admin-Token",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Challenge{},
		&models.Participant{},
		&models.ChallengeParticipation{},
		&models.ChallengeProgress{},
		&models.Program{},
		&models.Spot{},
		&models.Activity{},
		&models.Friendship{},
		&models.FriendInvite{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	challengeService := services.NewChallengeService(db)
	leaderboardService := services.NewLeaderboardService(db)
	progressService := services.NewProgressService(db, leaderboardService)
	programService := services.NewProgramService(db)
	spotService := services.NewSpotService(db)
	activityService := services.NewActivityService(db)
	inviteService := services.NewInviteService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SpotsEnabled {
		spotService.StartSpotCleanupScheduler()

		if cfg.PotaAggregatorEnabled {
			go workers.NewPotaAggregator(db).Start(ctx)
		}
		if cfg.RbnAggregatorEnabled {
			go workers.NewRbnAggregator(db).Start(ctx)
		}
		if cfg.SotaAggregatorEnabled {
			go workers.NewSotaAggregator(db).Start(ctx)
		}
	}

	// Browser-facing pages and the health check stay outside gateway auth
	handlers.SetupHealthRoute(app, db)
	handlers.SetupInvitePage(app, inviteService, cfg.InviteBaseURL)

	// Everything under /v1 must arrive through the gateway
	v1 := app.Group("/v1", middleware.GatewayAuthMiddleware(cfg.GatewayServiceToken))
	handlers.SetupChallengeRoutes(v1, challengeService, progressService, leaderboardService, cfg.AdminToken)
	handlers.SetupProgramRoutes(v1, programService, cfg.AdminToken)
	handlers.SetupSpotRoutes(v1, spotService, cfg.AdminToken)
	handlers.SetupActivityRoutes(v1, activityService, inviteService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Spots enabled: %v (POTA=%v RBN=%v SOTA=%v)",
		cfg.SpotsEnabled, cfg.PotaAggregatorEnabled, cfg.RbnAggregatorEnabled, cfg.SotaAggregatorEnabled)
	log.Println("✅ GatewayAuthMiddleware enforced on /v1")
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
