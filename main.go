package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"meepleon-backend/handlers"
	"meepleon-backend/models"
	"meepleon-backend/repositories"
	"meepleon-backend/services"
	"meepleon-backend/utils"
	"meepleon-backend/workers"

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

	app := fiber.New(fiber.Config{
		ErrorHandler: utils.ErrorHandler,
	})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	origins := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.GameCategory{},
		&models.GameMechanism{},
		&models.GameCategoryMapping{},
		&models.GameMechanismMapping{},
		&models.GameRating{},
		&models.TranslationStats{},
		&models.Listing{},
		&models.ListingImage{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// R2 is optional: listings fall back to URL-only images without it
	if err := utils.InitR2(); err != nil {
		log.Printf("⚠️  R2 disabled: %v", err)
	}

	gameRepo := repositories.NewGameRepository(db)
	ratingRepo := repositories.NewRatingRepository(db)
	listingRepo := repositories.NewListingRepository(db)
	userRepo := repositories.NewUserRepository(db)

	bggClient := services.NewBggClient()
	papagoClient := services.NewPapagoClient()
	syncService := services.NewGameSyncService(gameRepo, bggClient)
	translationBatch := services.NewTranslationBatchService(gameRepo, papagoClient)

	gameService := services.NewGameService(gameRepo, ratingRepo, syncService, translationBatch)
	listingService := services.NewListingService(listingRepo, syncService)
	authService := services.NewAuthService(userRepo)
	homeService := services.NewHomeService(gameRepo, listingRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrapWorker := workers.NewBootstrapSyncWorker(gameRepo, syncService)
	bootstrapWorker.Start(ctx)

	services.StartScheduler(syncService, translationBatch)

	api := app.Group("/api/v1")
	handlers.SetupAuthRoutes(api, authService)
	handlers.SetupUserRoutes(api, authService, listingService)
	handlers.SetupGameRoutes(api, gameService)
	handlers.SetupListingRoutes(api, listingService)
	handlers.SetupHomeRoutes(api, homeService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
