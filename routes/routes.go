package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	controller "github.com/zotexmedia/verification/controllers"
	"github.com/zotexmedia/verification/middleware"
	"github.com/zotexmedia/verification/verifier"
)

func SetupAdminRoutes(app *fiber.App, db *gorm.DB) {
	adminLogger := log.New(os.Stdout, "ADMIN: ", log.Ldate|log.Ltime|log.Lshortfile)

	apiKeyController := controller.NewAPIKeyController(db, adminLogger)

	// Admin endpoints are guarded by the static admin token, not an API key
	admin := app.Group("/admin", middleware.AdminOnly(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	admin.Post("/api-keys", apiKeyController.CreateAPIKey)
	admin.Get("/api-keys", apiKeyController.ListAPIKeys)
	admin.Delete("/api-keys/:id", apiKeyController.RevokeAPIKey)

	adminLogger.Println("Admin routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, lists verifier.ListProvider) {
	verifyLogger := log.New(os.Stdout, "VERIFY: ", log.Ldate|log.Ltime|log.Lshortfile)

	verificationController := controller.NewVerificationController(db, verifyLogger, lists)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Verification routes with rate limiting
	verify := api.Group("/verify", middleware.VerifyRateLimiter())
	verify.Get("/", verificationController.VerifyEmail)
	verify.Post("/bulk", verificationController.BulkVerify)
	verify.Get("/:id", verificationController.GetVerificationResults)
	verify.Get("/:id/export", verificationController.ExportResults)

	// WebSocket route for job progress. The progress stream carries
	// customer addresses and verdicts, so the upgrade requires the same
	// API key as the REST endpoints.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/verify/:id/progress", middleware.Protected(), websocket.New(func(c *websocket.Conn) {
		controller.HandleVerificationProgressWS(c)
	}))

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, lists verifier.ListProvider) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup admin routes
	SetupAdminRoutes(app, db)

	// Setup API routes
	SetupAPIRoutes(app, db, lists)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
