package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string

	Port        string
	GinMode     string
	CORSOrigins []string

	JWTSecret    string
	JWTExpiresIn string
	BcryptCost   int

	GeminiAPIKey    string
	GeminiChatModel string
	EmbeddingsModel string

	// Qdrant vector index
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	VectorDimensions int

	// Chunking
	ChunkSizeChars    int
	ChunkOverlapChars int

	// Retrieval
	DefaultTopK         int
	SimilarityThreshold float64

	// Embedding storage retry
	EmbedRetryAttempts int
	EmbedRetryDelay    time.Duration

	// Upload handling
	MaxFileSize    int64
	FileStorageDir string

	// Ingestion janitor
	StuckProcessingAfter time.Duration
	JanitorInterval      time.Duration

	// Redis (asynq + rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// Telemetry
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/sales_brain"),
		DBName:   getEnv("DB_NAME", "sales_brain"),

		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnv("JWT_EXPIRES_IN", "24h"),
		BcryptCost:   getEnvInt("BCRYPT_COST", 12),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiChatModel: getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "document_chunks"),
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),

		ChunkSizeChars:    getEnvInt("CHUNK_SIZE_CHARS", 800),
		ChunkOverlapChars: getEnvInt("CHUNK_OVERLAP_CHARS", 100),

		DefaultTopK:         getEnvInt("RAG_TOP_K", 5),
		SimilarityThreshold: getEnvFloat64("RAG_SIMILARITY_THRESHOLD", 0.75),

		EmbedRetryAttempts: getEnvInt("EMBED_RETRY_ATTEMPTS", 3),
		EmbedRetryDelay:    time.Duration(getEnvInt("EMBED_RETRY_DELAY_MS", 1000)) * time.Millisecond,

		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 10485760), // 10MB cap at the upload boundary
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),

		StuckProcessingAfter: time.Duration(getEnvInt("STUCK_PROCESSING_MINUTES", 30)) * time.Minute,
		JanitorInterval:      time.Duration(getEnvInt("JANITOR_INTERVAL_MINUTES", 15)) * time.Minute,

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkOverlapChars >= cfg.ChunkSizeChars {
		return nil, fmt.Errorf("CHUNK_OVERLAP_CHARS (%d) must be smaller than CHUNK_SIZE_CHARS (%d)",
			cfg.ChunkOverlapChars, cfg.ChunkSizeChars)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
