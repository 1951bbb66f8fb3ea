package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/Nader-Kojok/chatbot-whatsapp/database"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/config"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/handlers"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/i18n"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/jobs"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/nlp"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/routes"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/services"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	catalog, err := i18n.NewCatalog(cfg.DefaultLanguage, cfg.SupportedLanguages)
	if err != nil {
		log.Fatal("Failed to build message catalog:", err)
	}

	// Initialize storage
	var store storage.Store
	usingDatabase := false

	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		log.Println("🔄 Running database migrations...")
		err = db.AutoMigrate(
			&models.User{},
			&models.Conversation{},
			&models.Message{},
			&models.Ticket{},
			&models.KnowledgeBase{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
		usingDatabase = true
	}

	if err := storage.SeedKnowledgeBase(store); err != nil {
		log.Printf("⚠️  Knowledge base seeding failed: %v", err)
	}

	// Outbound WhatsApp channel
	var sender services.Sender
	twilioEnabled := false
	if twilioSender, err := services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom); err != nil {
		log.Printf("⚠️  Twilio not configured, responses will be logged: %v", err)
		sender = services.LogSender{}
	} else {
		sender = twilioSender
		twilioEnabled = true
		log.Println("✅ Twilio WhatsApp sender initialized")
	}

	// Shared cache and session store
	sharedCache := cache.New(cfg.SessionTTL())
	defer sharedCache.Close()
	sessions := cache.NewSessionStore(sharedCache, cfg.SessionTTL())

	// Hosted model client and NLP services
	if cfg.OpenAIAPIKey == "" {
		log.Println("⚠️  OPENAI_API_KEY not set - classification will rely on keyword fallback")
	}
	llm := nlp.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAIMaxTokens, cfg.OpenAITemperature)
	analyzer := nlp.NewAnalyzer(llm, sharedCache, cfg.IntentCacheTTL())
	detector := nlp.NewDetector(llm, sharedCache, cfg.IntentCacheTTL(), cfg.SupportedLanguages)

	// Domain services
	knowledgeService := services.NewKnowledgeService(store, llm, sharedCache, cfg.SearchCacheTTL())
	ticketService := services.NewTicketService(store, sharedCache, cfg.TicketCacheTTL(), cfg.EscalationTimeout())
	formatter := services.NewFormatter(catalog)
	conversationService := services.NewConversationService(
		store, sessions, analyzer, detector,
		knowledgeService, ticketService, formatter,
		catalog, sender, cfg,
	)

	// Scheduled ticket sweeps
	sweepJob := jobs.NewSweepJob(ticketService, cfg.TicketAutoAssign, cfg.TicketDefaultAgent)
	if err := sweepJob.Start(); err != nil {
		log.Fatal("Failed to start sweep jobs:", err)
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "WhatsApp Support Chatbot v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	// Handlers and routes
	whatsappHandler := handlers.NewWhatsAppHandler(conversationService)
	adminHandler := handlers.NewAdminHandler(store, ticketService)
	healthHandler := handlers.NewHealthHandler(version, store, twilioEnabled, usingDatabase)
	routes.SetupRoutes(app, cfg, whatsappHandler, adminHandler, healthHandler)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Gracefully shutting down...")
		sweepJob.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 WhatsApp Support Chatbot starting on port %s", cfg.Port)
	log.Printf("🌍 Environment: %s", cfg.Environment)
	log.Printf("📊 Storage: %s", storageType(usingDatabase))
	log.Printf("📱 WhatsApp: %s", whatsappStatus(twilioEnabled))
	log.Printf("🗣  Languages: %v (default %s)", cfg.SupportedLanguages, cfg.DefaultLanguage)
	log.Println("========================================")

	log.Fatal(app.Listen(":" + cfg.Port))
}

func storageType(usingDatabase bool) string {
	if usingDatabase {
		return "PostgreSQL Database"
	}
	return "In-Memory (Testing)"
}

func whatsappStatus(enabled bool) string {
	if enabled {
		return "Configured"
	}
	return "Not configured"
}
