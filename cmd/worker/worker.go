package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"ai-sales-brain/internal/ai"
	"ai-sales-brain/internal/config"
	"ai-sales-brain/internal/logger"
	"ai-sales-brain/internal/queue"
	"ai-sales-brain/internal/store"
	"ai-sales-brain/internal/telemetry"
	"ai-sales-brain/internal/vectorstore/qdrant"
	"ai-sales-brain/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	ctx := context.Background()

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(cfg.DBName)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("ai-sales-brain-worker", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdown()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	embedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	vectorIndex, err := qdrant.NewStore(qdrant.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dimension:  cfg.VectorDimensions,
	}, embedder)
	if err != nil {
		log.Fatal("Failed to initialize vector index:", err)
	}

	documentStore := store.NewDocumentStore(db)
	chunkStore := store.NewChunkStore(db)

	extractionService := services.NewExtractionService()
	chunkingService := services.NewChunkingService(cfg.ChunkSizeChars, cfg.ChunkOverlapChars)
	embeddingService := services.NewEmbeddingService(vectorIndex, cfg.EmbedRetryAttempts, cfg.EmbedRetryDelay)
	processingService := services.NewDocumentProcessingService(
		documentStore, chunkStore, extractionService, chunkingService, embeddingService)

	janitor := services.NewJanitorService(documentStore, cfg.StuckProcessingAfter, cfg.JanitorInterval)
	if err := janitor.Start(); err != nil {
		log.Fatal("Failed to start janitor:", err)
	}
	defer janitor.Stop()

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task failed: %s, error: %v", task.Type(), err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(processingService, documentStore, metrics)
	mux := queue.NewMux(processor)

	log.Printf("Starting ingestion worker (redis: %s)", cfg.RedisURL)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
