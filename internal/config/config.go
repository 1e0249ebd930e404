package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"genforge-core/internal/domain/entity"
)

// Config holds all configuration for the generation service.
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string
	AppVersion  string

	// Providers
	GoogleProject     string
	GoogleLocation    string
	GeminiAPIKey      string
	PrimaryModel      string
	SecondaryProvider string // "gemini" or "anthropic"
	SecondaryModel    string
	AnthropicAPIKey   string
	AnthropicEndpoint string
	EmbeddingModel    string
	JudgeModel        string

	// Infrastructure, disabled when empty
	RedisAddr        string
	GenerationLimit  int
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	CacheSimilarity  float64
	NATSURL          string
	NATSSubject      string

	// Generation defaults
	Generation     entity.GenerationConfig
	RetryBaseDelay time.Duration

	// Per-request limits enforced by the HTTP API
	MaxRetriesLimit int
	MaxTimeoutMs    int
	RequestTimeout  time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	defaults := entity.DefaultGenerationConfig()
	secondary := strings.ToLower(getEnv("SECONDARY_PROVIDER", "gemini"))
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AppVersion:  getEnv("APP_VERSION", "0.1.0"),

		GoogleProject:     getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleLocation:    getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		PrimaryModel:      getEnv("PRIMARY_MODEL", "gemini-2.5-flash"),
		SecondaryProvider: secondary,
		SecondaryModel:    getEnv("SECONDARY_MODEL", defaultSecondaryModel(secondary)),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicEndpoint: getEnv("ANTHROPIC_ENDPOINT", "https://api.anthropic.com/v1/messages"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		JudgeModel:        getEnv("JUDGE_MODEL", ""),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		GenerationLimit:  getEnvInt("USER_GENERATION_LIMIT", 200),
		QdrantHost:       getEnv("QDRANT_HOST", ""),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "generations"),
		CacheSimilarity:  getEnvFloat("CACHE_SIMILARITY", 0.92),
		NATSURL:          getEnv("NATS_URL", ""),
		NATSSubject:      getEnv("NATS_SUBJECT", "genforge.generation.completed"),

		Generation: entity.GenerationConfig{
			MaxRetries:       getEnvInt("GEN_MAX_RETRIES", defaults.MaxRetries),
			TimeoutMs:        getEnvInt("GEN_TIMEOUT_MS", defaults.TimeoutMs),
			FallbackEnabled:  getEnvBool("GEN_FALLBACK_ENABLED", defaults.FallbackEnabled),
			QualityThreshold: getEnvFloat("GEN_QUALITY_THRESHOLD", defaults.QualityThreshold),
		},
		RetryBaseDelay: getEnvDuration("RETRY_BASE_DELAY", 500*time.Millisecond),

		MaxRetriesLimit: getEnvInt("GEN_MAX_RETRIES_LIMIT", 10),
		MaxTimeoutMs:    getEnvInt("GEN_TIMEOUT_MS_LIMIT", 120000),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 5*time.Minute),
	}
}

func defaultSecondaryModel(provider string) string {
	if provider == "anthropic" {
		return "claude-3-5-haiku-latest"
	}
	return "gemini-2.0-flash"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
