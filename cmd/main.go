package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ai-sales-brain/internal/ai"
	"ai-sales-brain/internal/auth"
	"ai-sales-brain/internal/config"
	"ai-sales-brain/internal/logger"
	"ai-sales-brain/internal/queue"
	"ai-sales-brain/internal/store"
	"ai-sales-brain/internal/telemetry"
	"ai-sales-brain/internal/vectorstore/qdrant"
	"ai-sales-brain/middleware"
	"ai-sales-brain/routes"
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
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("ai-sales-brain-api", cfg.OTLPEndpoint)
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

	geminiClient, err := ai.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

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

	fileService := services.NewFileService(cfg.FileStorageDir, cfg.MaxFileSize)
	extractionService := services.NewExtractionService()
	chunkingService := services.NewChunkingService(cfg.ChunkSizeChars, cfg.ChunkOverlapChars)
	embeddingService := services.NewEmbeddingService(vectorIndex, cfg.EmbedRetryAttempts, cfg.EmbedRetryDelay)
	processingService := services.NewDocumentProcessingService(
		documentStore, chunkStore, extractionService, chunkingService, embeddingService)
	exportService := services.NewExportService(documentStore)
	ragService := services.NewRagService(vectorIndex, geminiClient, cfg.DefaultTopK, cfg.SimilarityThreshold)

	queueClient := queue.NewClient(cfg.RedisURL, cfg.RedisPassword)
	defer queueClient.Close()

	jwtTTL, err := time.ParseDuration(cfg.JWTExpiresIn)
	if err != nil {
		log.Fatal("Invalid JWT_EXPIRES_IN:", err)
	}
	tokenService := auth.NewTokenService(cfg.JWTSecret, jwtTTL, rdb)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupAuthRoutes(router, db, tokenService)
	routes.NewDocumentRoutes(documentStore, chunkStore, fileService,
		processingService, embeddingService, exportService, queueClient).
		Register(router, authMiddleware)
	routes.NewChatRoutes(ragService, metrics).Register(router, authMiddleware)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
