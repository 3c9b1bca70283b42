package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	OpenAIAPIKey string
	GeminiAPIKey string

	EmbedProvider string // "openai" or "gemini"
	EmbedModel    string
	EmbedDim      int
	MaxEmbedChars int

	GenModel    string
	OCRProvider string // "gemini" or "local"
	OCRModel    string

	VectorBackend     string // "pinecone" or "pgvector"
	PineconeAPIKey    string
	PineconeIndexName string
	PineconeIndexHost string

	MinTextChars   int
	IngestWorkers  int
	ModelTimeout   int // seconds
	AnalyzeOnIngest bool

	Port     string
	Env      string
	LogLevel string
}

// LoadConfig reads environment variables (via .env when present) and
// returns the process configuration.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-1"),
		BucketName:   getEnv("BUCKET_NAME", "mediscan-reports"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),

		EmbedProvider: getEnv("EMBED_PROVIDER", "openai"),
		EmbedModel:    getEnv("EMBED_MODEL", "text-embedding-3-small"),
		EmbedDim:      getEnvInt("EMBED_DIM", 1536),
		MaxEmbedChars: getEnvInt("MAX_EMBED_CHARS", 8000),

		GenModel:    getEnv("GEN_MODEL", "gemini-1.5-flash"),
		OCRProvider: getEnv("OCR_PROVIDER", "gemini"),
		OCRModel:    getEnv("OCR_MODEL", "gemini-1.5-flash"),

		VectorBackend:     getEnv("VECTOR_BACKEND", "pinecone"),
		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndexName: getEnv("PINECONE_INDEX_NAME", "mediscan-reports"),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),

		MinTextChars:    getEnvInt("MIN_TEXT_CHARS", 20),
		IngestWorkers:   getEnvInt("INGEST_WORKERS", 4),
		ModelTimeout:    getEnvInt("MODEL_TIMEOUT_SEC", 60),
		AnalyzeOnIngest: getEnvBool("ANALYZE_ON_INGEST", false),

		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
