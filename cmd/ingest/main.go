package main

import (
	"context"
	"flag"
	"log"

	"unified-assistant/internal/llm"
	"unified-assistant/internal/models"
	"unified-assistant/internal/repository"
	"unified-assistant/internal/service"
	"unified-assistant/internal/vectorstore"
	"unified-assistant/pkg/config"
	"unified-assistant/pkg/logger"
	"unified-assistant/pkg/postgres"

	"go.uber.org/zap"
)

// Rebuilds a domain's index partition from a documents folder. Typical use:
//
//	go run ./cmd/ingest -domain SOP -dir data/sop
//	go run ./cmd/ingest -domain HC -dir data/hr
func main() {
	domainFlag := flag.String("domain", "", "domain to ingest (SOP or HC)")
	dirFlag := flag.String("dir", "", "documents folder (defaults to the domain's configured dir)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	domain, err := models.ParseDomain(*domainFlag)
	if err != nil {
		appLogger.Fatal("Unknown domain, expected SOP or HC", zap.String("domain", *domainFlag))
	}

	dir := *dirFlag
	if dir == "" {
		if domain == models.DomainSOP {
			dir = cfg.RAG.SOP.DocumentsDir
		} else {
			dir = cfg.RAG.HC.DocumentsDir
		}
	}

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	chunkRepo := repository.NewChunkRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)

	indexes := map[models.Domain]vectorstore.Index{
		domain: chunkRepo.ForDomain(domain),
	}

	// Initialize LLM client for embeddings
	llmClient, err := llm.NewClient(&cfg.AzureOpenAI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM client", zap.Error(err))
	}

	ingestService := service.NewIngestService(indexes, llmClient, docRepo, &cfg.RAG, appLogger)

	appLogger.Info("Starting ingestion",
		zap.String("domain", string(domain)),
		zap.String("dir", dir),
	)

	result, err := ingestService.IngestFolder(ctx, domain, dir)
	if err != nil {
		appLogger.Fatal("Ingestion failed", zap.Error(err))
	}

	appLogger.Info("Ingestion finished",
		zap.Int("documents", result.Documents),
		zap.Int("chunks", result.Chunks),
	)
}
