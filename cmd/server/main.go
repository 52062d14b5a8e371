// @title           Always Companion API
// @version         1.0.0
// @description     Backend API for building and talking to AI personas of loved ones. Handles memory uploads, persona training, and conversation sessions.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/philm28/always/internal/ai"
	"github.com/philm28/always/internal/config"
	"github.com/philm28/always/internal/database"
	"github.com/philm28/always/internal/handlers"
	"github.com/philm28/always/internal/middleware"
	"github.com/philm28/always/internal/services"
	"github.com/philm28/always/internal/supabase"
	"github.com/philm28/always/internal/training"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// AI collaborator (chat, vision, transcription)
	aiClient := ai.NewClient(ai.Config{
		BaseURL:         cfg.AIBaseURL,
		APIKey:          cfg.AIAPIKey,
		ChatModel:       cfg.AIChatModel,
		VisionModel:     cfg.AIVisionModel,
		TranscribeModel: cfg.AITranscribeModel,
	})

	// Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		sugar.Fatalw("failed to initialize supabase client", "error", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		sugar.Fatalw("failed to initialize storage client", "error", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	// Direct database connection for queries and migrations
	var dbClient *supabase.DatabaseClient
	if cfg.DatabaseURL != "" {
		dbClient, err = supabase.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			sugar.Warnw("failed to initialize database client; database operations will be limited", "error", err)
		} else {
			defer dbClient.Close()

			migrator, err := database.NewMigrator(cfg.DatabaseURL)
			if err != nil {
				sugar.Warnw("failed to initialize migrator", "error", err)
			} else {
				defer migrator.Close()
				if err := migrator.Run(); err != nil {
					sugar.Warnw("migration failed", "error", err)
				} else {
					sugar.Infow("migrations completed")
				}
			}
		}
	} else {
		sugar.Warnw("DATABASE_URL not set; migrations and database operations are disabled")
	}

	// Services and the training orchestrator (only with a live database)
	var (
		uploadService       *services.UploadService
		conversationService *services.ConversationService
		orchestrator        *training.Orchestrator
	)
	if dbClient != nil {
		uploadService = services.NewUploadService(dbClient, storageClient, realtimeClient, sugar)
		conversationService = services.NewConversationService(dbClient, aiClient, sugar)

		pipeline := training.NewPipeline(dbClient, storageClient, aiClient, dbClient, sugar)
		orchestrator = training.NewOrchestrator(pipeline.Run, dbClient, realtimeClient, sugar)
	}

	// Handlers (dbClient might be nil, handlers guard for this)
	personasHandler := handlers.NewPersonasHandler(dbClient, storageClient)
	uploadHandler := handlers.NewUploadHandler(dbClient, uploadService)
	contentHandler := handlers.NewContentHandler(dbClient)
	trainHandler := handlers.NewTrainHandler(dbClient, orchestrator)
	sessionsHandler := handlers.NewSessionsHandler(dbClient, conversationService)
	storageHandler := handlers.NewStorageHandler(storageClient)

	// Setup router
	router := gin.Default()
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Persona routes
	api.POST("/personas", personasHandler.CreatePersona)
	api.GET("/personas", personasHandler.ListPersonas)
	api.GET("/personas/:persona_id", personasHandler.GetPersona)
	api.DELETE("/personas/:persona_id", personasHandler.DeletePersona)

	// Memory uploads and content
	api.POST("/personas/:persona_id/upload", uploadHandler.Upload)
	api.GET("/personas/:persona_id/content", contentHandler.ListContent)

	// Training
	api.POST("/personas/:persona_id/train", trainHandler.Train)
	api.GET("/personas/:persona_id/train/status", trainHandler.TrainingStatus)

	// Conversation sessions
	api.POST("/personas/:persona_id/sessions", sessionsHandler.CreateSession)
	api.POST("/sessions/:session_id/messages", sessionsHandler.SendMessage)
	api.GET("/sessions/:session_id/messages", sessionsHandler.ListMessages)
	api.POST("/sessions/:session_id/end", sessionsHandler.EndSession)

	// Storage probe
	api.GET("/storage/probe", storageHandler.Probe)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	sugar.Infow("server starting", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		sugar.Fatalw("server failed", "error", err)
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
