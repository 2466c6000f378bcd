package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"unified-assistant/internal/api"
	"unified-assistant/internal/api/handlers"
	"unified-assistant/internal/llm"
	"unified-assistant/internal/models"
	"unified-assistant/internal/persona"
	"unified-assistant/internal/repository"
	"unified-assistant/internal/service"
	"unified-assistant/internal/vectorstore"
	"unified-assistant/internal/vectorstore/memory"
	"unified-assistant/pkg/auth"
	"unified-assistant/pkg/config"
	"unified-assistant/pkg/logger"
	"unified-assistant/pkg/postgres"
	"unified-assistant/pkg/redis"

	"go.uber.org/zap"
)

// @title Unified Assistant API
// @version 1.0
// @description Retrieval-augmented SOP and Human Capital assistant for PT Bio Farma

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Unified Assistant service")

	ctx := context.Background()

	// Index backend: postgres persists chunks across restarts, memory keeps
	// them in process for local runs.
	var (
		indexes  map[models.Domain]vectorstore.Index
		docRepo  *repository.DocumentRepository
		userRepo *repository.UserRepository
	)
	if cfg.RAG.IndexBackend == "memory" {
		indexes = map[models.Domain]vectorstore.Index{
			models.DomainSOP: memory.NewIndex(),
			models.DomainHC:  memory.NewIndex(),
		}
		appLogger.Warn("Using in-memory index, chunks will not survive a restart")
	} else {
		db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		chunkRepo := repository.NewChunkRepository(db, appLogger)
		indexes = map[models.Domain]vectorstore.Index{
			models.DomainSOP: chunkRepo.ForDomain(models.DomainSOP),
			models.DomainHC:  chunkRepo.ForDomain(models.DomainHC),
		}
		docRepo = repository.NewDocumentRepository(db, appLogger)
		userRepo = repository.NewUserRepository(db, appLogger)
	}

	// Session history is optional: without Redis answers are still served,
	// just without stored conversation context.
	var historyRepo *repository.HistoryRepository
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis, appLogger)
		if err != nil {
			appLogger.Warn("Redis unavailable, session history disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			historyRepo = repository.NewHistoryRepository(redisClient, appLogger)
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize LLM client
	llmClient, err := llm.NewClient(&cfg.AzureOpenAI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM client", zap.Error(err))
	}

	// Initialize persona registry and services
	registry := persona.NewRegistry(cfg.RAG.PersonaDir, appLogger)

	topK := map[models.Domain]int{
		models.DomainSOP: cfg.RAG.SOP.TopK,
		models.DomainHC:  cfg.RAG.HC.TopK,
	}
	answerService := service.NewAnswerService(registry, indexes, llmClient, topK, cfg.RAG.HistoryTurns, appLogger)

	var docRegistry service.DocumentRegistry
	if docRepo != nil {
		docRegistry = docRepo
	}
	ingestService := service.NewIngestService(indexes, llmClient, docRegistry, &cfg.RAG, appLogger)

	var authService *service.AuthService
	if userRepo != nil {
		authService = service.NewAuthService(userRepo, jwtManager, appLogger)
	}

	// Initialize handlers
	askHandler := handlers.NewAskHandler(answerService, historyRepo, cfg.RAG.HistoryTurns, appLogger)
	statusHandler := handlers.NewStatusHandler(registry, indexes, cfg, appLogger)
	docHandler := handlers.NewDocumentHandler(ingestService, docRepo, appLogger)
	authHandler := handlers.NewAuthHandler(authService, appLogger)

	// Setup router
	app := api.SetupRouter(askHandler, statusHandler, docHandler, authHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
