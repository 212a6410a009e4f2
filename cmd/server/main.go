package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/config"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/handlers"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/logging"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/metrics"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/middleware"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/storage"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/summarizer"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/version"
)

// appDeps are the collaborators the HTTP routes need
type appDeps struct {
	store         handlers.MeetingStore
	summarizers   summarizer.Factory
	defaultAPIKey string
	log           *logrus.Logger
	logs          *logging.LogBuffer
	metrics       *metrics.Metrics
	bodyLimitMB   int
}

func main() {
	configPath := flag.String("config", "", "config file (default config/config.yaml or $MEETING_CONFIG)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}
	logBuffer := logging.NewLogBuffer(logging.DefaultBufferLines)
	log.AddHook(logBuffer)

	log.Info("Initializing components...")

	// Database
	db, err := storage.NewMeetingDB(cfg.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if cfg.OpenAI.APIKey == "" {
		log.Warn("OPENAI_API_KEY not set - requests must carry their own api_key")
	}

	app := newApp(appDeps{
		store: db,
		summarizers: summarizer.NewFactory(summarizer.Options{
			BaseURL:   cfg.OpenAI.BaseURL,
			Model:     cfg.OpenAI.Model,
			MaxTokens: cfg.OpenAI.MaxTokens,
		}),
		defaultAPIKey: cfg.OpenAI.APIKey,
		log:           log,
		logs:          logBuffer,
		metrics:       metrics.New(),
		bodyLimitMB:   cfg.Server.BodyLimitMB,
	})

	// Start server
	addr := cfg.Addr()
	log.Infof("🚀 Server starting on %s", addr)
	log.Info("📝 Endpoints:")
	log.Info("   POST   /summarize          - Summarize and save a meeting")
	log.Info("   GET    /api/meetings       - List and search meetings")
	log.Info("   POST   /api/meetings       - Save a meeting")
	log.Info("   GET    /api/meetings/:id   - Get a meeting")
	log.Info("   PUT    /api/meetings/:id   - Update a meeting")
	log.Info("   DELETE /api/meetings/:id   - Delete a meeting")
	log.Info("   GET    /logs               - View server logs")
	log.Info("   GET    /metrics            - Prometheus metrics")
	log.Info("   GET    /health             - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Shutdown failed")
		}
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// newApp builds the fiber app with middleware and routes
func newApp(d appDeps) *fiber.App {
	bodyLimit := d.bodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 4
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(d.log, d.metrics))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	meetingsHandler := handlers.NewMeetingsHandler(d.store, d.log, d.metrics)
	summarizeHandler := handlers.NewSummarizeHandler(d.store, d.summarizers, d.defaultAPIKey, d.log, d.metrics)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": version.Version,
		})
	})

	app.Post("/summarize", summarizeHandler.Handle)
	meetingsHandler.Register(app)

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": d.logs.GetLogs(),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(d.metrics.Handler()))

	return app
}
