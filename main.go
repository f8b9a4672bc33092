package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"github.com/zotexmedia/verification/config"
	"github.com/zotexmedia/verification/middleware"
	"github.com/zotexmedia/verification/routes"
	"github.com/zotexmedia/verification/utils"
	"github.com/zotexmedia/verification/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "VERIFY: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry error reporting when configured
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Initialize the shared reference list feed
	listFeed := utils.NewListFeed(utils.ListFeedConfig{
		DisposableURL: config.AppConfig.DisposableListURL,
		RoleURL:       config.AppConfig.RoleListURL,
		TypoURL:       config.AppConfig.TypoListURL,
		FetchTimeout:  config.AppConfig.ListFetchTimeout,
	}, nil)

	// Initialize and start the list refresh worker
	listWorker := worker.NewListRefreshWorker(listFeed, config.AppConfig.ListRefreshTTL, log.New(os.Stdout, "LISTS: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, listFeed)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
