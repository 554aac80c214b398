package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/content_optimizer/internal/api/handlers"
	"github.com/chynybekuuludastan/content_optimizer/internal/api/middleware"
	"github.com/chynybekuuludastan/content_optimizer/internal/config"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, contentHandler *handlers.ContentHandler, cfg *config.Config) {
	// API group
	api := app.Group("/api")

	// Health check route
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"storage": contentHandler.Reports != nil,
			"cache":   contentHandler.Cache.Enabled(),
		})
	})

	// Content routes
	content := api.Group("/content", middleware.JWTMiddleware(cfg))
	content.Post("/analyze", contentHandler.Analyze)
	content.Post("/analyze-url", contentHandler.AnalyzeURL)
	content.Get("/reports", contentHandler.ListReports)
	content.Get("/reports/:id", contentHandler.GetReport)
	content.Delete("/reports/:id", contentHandler.DeleteReport)
}
