package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"community-hub-system/handlers"
	"community-hub-system/middleware"
	"community-hub-system/models"
	"community-hub-system/services"
	"community-hub-system/utils"
	"community-hub-system/workers"

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

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB — images only, nothing bigger passes through
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Split the comma-separated origins string and trim spaces from each
	allowedOriginsList := strings.Split(cfg.AllowedOrigins, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Session-Token, X-Service-Token, X-User-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Member{},
		&models.UserPointsState{},
		&models.PointEvent{},
		&models.Notification{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
		&models.Course{},
		&models.Survey{},
		&models.SurveyStep{},
		&models.SurveyResponse{},
		&models.SurveyScoreConfig{},
		&models.SubscriptionMirror{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	pointsService := services.NewPointsService(db)
	notificationService := services.NewNotificationService(db)
	notificationService.BatchWindow = cfg.BatchWindow()
	feedService := services.NewFeedService(db, pointsService, notificationService)
	courseService := services.NewCourseService(db, notificationService)
	surveyService := services.NewSurveyService(db)
	limiter := middleware.NewRateLimiter()

	// --- CONFIGURE external collaborators ---
	syncServiceURL := cfg.SyncServiceURL
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	hubServiceToken := os.Getenv("HUB_SERVICE_TOKEN")
	if hubServiceToken == "" {
		log.Fatal("HUB_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	syncWorker := workers.NewMemberSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", hubServiceToken)

	billingSyncClient := workers.NewBillingSyncClient(db)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go workers.PollSubscriptions(ctx, billingSyncClient, 30*time.Second)

	go func() {
		log.Println("Starting Member Sync Worker...")
		syncWorker.Start(ctx)
	}()

	services.StartScheduler(courseService, limiter)

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupFeedRoutes(app, feedService, limiter, cfg)
	handlers.SetupPointsRoutes(app, pointsService)
	handlers.SetupNotificationRoutes(app, notificationService)
	handlers.SetupCourseRoutes(app, courseService)
	handlers.SetupSurveyRoutes(app, surveyService, limiter, cfg)
	handlers.SetupUploadRoutes(app)
	handlers.SetupMemberRoutes(app, db)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%d", cfg.Port)
	log.Println("✅ Member Sync Worker running")
	log.Println("✅ Subscription polling running (every 30s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
