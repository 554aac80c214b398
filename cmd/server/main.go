package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chynybekuuludastan/content_optimizer/internal/api"
	"github.com/chynybekuuludastan/content_optimizer/internal/api/handlers"
	"github.com/chynybekuuludastan/content_optimizer/internal/app"
	"github.com/chynybekuuludastan/content_optimizer/internal/config"
	"github.com/chynybekuuludastan/content_optimizer/internal/database"
	"github.com/chynybekuuludastan/content_optimizer/internal/logger"
	"github.com/chynybekuuludastan/content_optimizer/internal/repository"
	"github.com/chynybekuuludastan/content_optimizer/internal/repository/cache"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Initialize configuration
	cfg := config.NewConfig()

	zlog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	service, closeService, err := app.NewContentService(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to build analysis service", zap.Error(err))
	}
	defer closeService()

	// PostgreSQL is optional: without it reports are not stored
	var reports repository.ReportRepository
	db, err := database.InitPostgreSQL(ctx, cfg.PostgresURI, !cfg.IsProduction(), zlog)
	if err != nil {
		zlog.Warn("PostgreSQL unavailable, reports will not be stored", zap.Error(err))
	} else {
		defer db.Close()
		reports = repository.NewRepositoryFactory(db.DB).ReportRepository
	}

	// Redis is optional: without it every request is analyzed
	reportCache := cache.NewRepository(nil, cfg.CacheTTL)
	redisClient, err := database.InitRedis(ctx, cfg.RedisURI)
	if err != nil {
		zlog.Warn("Redis unavailable, report cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		reportCache = cache.NewRepository(redisClient.Client, cfg.CacheTTL)
	}

	// Initialize Fiber app
	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	// Middleware
	fiberApp.Use(recover.New())
	fiberApp.Use(fiberlogger.New())
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE",
	}))

	// Setup routes
	contentHandler := handlers.NewContentHandler(service, reports, reportCache, cfg, zlog)
	api.SetupRoutes(fiberApp, contentHandler, cfg)

	// Start server
	go func() {
		zlog.Info("Starting server", zap.String("port", cfg.Port), zap.Bool("auth", cfg.AuthEnabled()))
		if err := fiberApp.Listen(":" + cfg.Port); err != nil {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server...")
	if err := fiberApp.Shutdown(); err != nil {
		zlog.Error("Server shutdown failed", zap.Error(err))
	}
}
