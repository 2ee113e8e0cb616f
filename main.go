package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/tecnochat/tenolatina-sub000/database"
	"github.com/tecnochat/tenolatina-sub000/internal/ai"
	"github.com/tecnochat/tenolatina-sub000/internal/cache"
	"github.com/tecnochat/tenolatina-sub000/internal/config"
	"github.com/tecnochat/tenolatina-sub000/internal/conversation"
	"github.com/tecnochat/tenolatina-sub000/internal/handlers"
	"github.com/tecnochat/tenolatina-sub000/internal/jobs"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/routes"
	"github.com/tecnochat/tenolatina-sub000/internal/services"
	"github.com/tecnochat/tenolatina-sub000/internal/speech"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	cfg := config.Load()

	// Storage
	var store storage.Store
	var dbPing func() error
	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect()
		if err != nil {
			log.Fatal("Failed to connect to database: ", err)
		}

		log.Println("🔄 Running database migrations...")
		err = db.AutoMigrate(
			&models.Chatbot{},
			&models.Flow{},
			&models.Welcome{},
			&models.WelcomeTracking{},
			&models.BlacklistEntry{},
			&models.Prompt{},
			&models.FormConfig{},
			&models.FormSubmission{},
			&models.ChatHistory{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database: ", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
		if sqlDB, err := db.DB(); err == nil {
			dbPing = sqlDB.Ping
		}
	}

	// Lookup/response cache
	var responseCache cache.Cache
	var cachePing func() error
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		responseCache = redisCache
		cachePing = redisCache.Ping
		log.Printf("✅ Redis cache at %s", cfg.RedisAddr)
	} else {
		responseCache = cache.NewMemoryCache()
		log.Println("⚠️  Using in-process cache (single instance only)")
	}

	// Outbound transport
	var sender services.Sender
	twilioService, err := services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
	if err != nil {
		log.Fatal("Failed to initialize Twilio service: ", err)
	}
	sender = twilioService
	log.Println("✅ Twilio service initialized")

	// AI and speech
	var completer ai.Completer
	var synthesizer speech.Synthesizer
	var transcriber speech.Transcriber
	if cfg.OpenAIAPIKey != "" {
		completer = ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ChatModel)
		openAISpeech := speech.NewOpenAISpeech(cfg.OpenAIAPIKey, cfg.MediaDir)
		synthesizer = openAISpeech
		transcriber = openAISpeech
		log.Printf("✅ AI responder using model %s", cfg.ChatModel)
	} else {
		log.Println("⚠️  OPENAI_API_KEY not set - AI responses and voice notes disabled")
	}
	downloader := speech.NewTwilioMediaDownloader(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.MediaDir)

	// Services
	sessions := conversation.NewManager(cfg.SessionIdleTTL)
	historyService := services.NewHistoryService(store, cfg.HistoryLimit, cfg.OpenAIAPIKey)
	blacklistService := services.NewBlacklistService(store)
	welcomeService := services.NewWelcomeService(store, responseCache, sender, cfg.DefaultCacheTTL, cfg.WelcomeTTL)
	flowService := services.NewFlowService(store, responseCache, sender, historyService, cfg.DefaultCacheTTL)
	formService := services.NewDataFlowService(store, responseCache, sender, sessions, historyService, cfg.DefaultCacheTTL)
	aiChatService := services.NewAIChatService(store, responseCache, sender, completer, synthesizer, historyService, cfg.DefaultCacheTTL, cfg.AIResponseTTL, cfg.PublicBaseURL)
	router := services.NewRouter(store, responseCache, blacklistService, welcomeService, flowService, formService, aiChatService, downloader, transcriber, sender, cfg.DefaultCountryCode, cfg.DefaultCacheTTL)

	deduper := services.NewDeduper(cfg.DedupTTL, cfg.RateLimitWindow, cfg.RateLimitPerWindow)

	cleanupJob := jobs.NewCleanupJob(store, time.Hour)
	cleanupJob.Start()

	// HTTP
	whatsappHandler := handlers.NewWhatsAppHandler(router, deduper)
	adminHandler := handlers.NewAdminHandler(store, router, flowService, welcomeService, formService, aiChatService, historyService)
	var pingers []func() error
	if dbPing != nil {
		pingers = append(pingers, dbPing)
	}
	if cachePing != nil {
		pingers = append(pingers, cachePing)
	}
	healthHandler := handlers.NewHealthHandler(version, sessions, pingers...)

	app := fiber.New(fiber.Config{
		AppName: "TenoLatina Routing Engine v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	routes.Setup(app, cfg, whatsappHandler, adminHandler, healthHandler)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down...")
		cleanupJob.Stop()
		deduper.Stop()
		sessions.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
