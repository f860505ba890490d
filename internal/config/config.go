// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"

	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheFile     = "file"
	CachePostgres = "postgres"
)

type Config struct {
	// HTTP settings
	HTTPAddr string
	PageSize int

	// Feed settings
	SourcesPath       string // empty means the built-in registry
	FeedTimeout       time.Duration
	FeedRetryAttempts int
	FeedRetryDelay    time.Duration
	FeedUserAgent     string

	ResultCacheTTL time.Duration // 0 disables the ranked list cache

	// Embedding settings
	KeywordsPath           string // empty means the built-in corpus
	EmbeddingProvider      string
	GeminiAPIKey           string
	GeminiEmbeddingModel   string
	OpenAIAPIKey           string
	OpenAIEmbeddingModel   string
	HashEmbeddingDim       int
	EmbeddingRetryAttempts int
	EmbeddingRetryDelay    time.Duration
	EmbeddingRPS           float64
	EmbeddingDailyBudget   int

	// Embedding cache settings
	EmbeddingCache     string
	EmbeddingCachePath string
	EmbeddingCacheTTL  time.Duration
	DatabaseURL        string

	// Archive settings
	ElasticsearchAddr  string
	ElasticsearchIndex string
	KafkaBrokers       []string
	KafkaTopic         string

	Debug bool
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		PageSize:               getInt("PAGE_SIZE", 10),
		SourcesPath:            os.Getenv("SOURCES_PATH"),
		FeedTimeout:            getDuration("FEED_TIMEOUT", "15s"),
		FeedRetryAttempts:      getInt("FEED_RETRY_ATTEMPTS", 2),
		FeedRetryDelay:         getDuration("FEED_RETRY_DELAY", "500ms"),
		FeedUserAgent:          os.Getenv("FEED_USER_AGENT"),
		ResultCacheTTL:         getDuration("RESULT_CACHE_TTL", "5m"),
		KeywordsPath:           os.Getenv("KEYWORDS_PATH"),
		EmbeddingProvider:      strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderGemini)),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiEmbeddingModel:   getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIEmbeddingModel:   getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		HashEmbeddingDim:       getInt("HASH_EMBEDDING_DIM", 256),
		EmbeddingRetryAttempts: getInt("EMBEDDING_RETRY_ATTEMPTS", 3),
		EmbeddingRetryDelay:    getDuration("EMBEDDING_RETRY_DELAY", "1s"),
		EmbeddingRPS:           getFloat("EMBEDDING_RPS", 0),
		EmbeddingDailyBudget:   getInt("EMBEDDING_DAILY_BUDGET", 0),
		EmbeddingCache:         strings.ToLower(getEnv("EMBEDDING_CACHE", CacheMemory)),
		EmbeddingCachePath:     getEnv("EMBEDDING_CACHE_PATH", "embeddings.json"),
		EmbeddingCacheTTL:      getDuration("EMBEDDING_CACHE_TTL", "168h"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		ElasticsearchAddr:      os.Getenv("ELASTICSEARCH_ADDR"),
		ElasticsearchIndex:     getEnv("ELASTICSEARCH_INDEX", "articles"),
		KafkaBrokers:           splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:             getEnv("KAFKA_TOPIC", "articles_ranked"),
		Debug:                  os.Getenv("DEBUG") == "true",
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.EmbeddingProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case ProviderHash:
		if c.HashEmbeddingDim <= 0 {
			return fmt.Errorf("HASH_EMBEDDING_DIM must be positive")
		}
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be one of gemini, openai, hash")
	}

	switch c.EmbeddingCache {
	case CacheNone, CacheMemory:
	case CacheFile:
		if c.EmbeddingCachePath == "" {
			return fmt.Errorf("EMBEDDING_CACHE_PATH is required for the file cache")
		}
	case CachePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres cache")
		}
	default:
		return fmt.Errorf("EMBEDDING_CACHE must be one of none, memory, file, postgres")
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}
	if c.FeedTimeout <= 0 {
		return fmt.Errorf("FEED_TIMEOUT must be positive")
	}
	if c.ResultCacheTTL < 0 {
		return fmt.Errorf("RESULT_CACHE_TTL cannot be negative")
	}
	if c.EmbeddingRPS < 0 {
		return fmt.Errorf("EMBEDDING_RPS cannot be negative")
	}
	if c.EmbeddingDailyBudget < 0 {
		return fmt.Errorf("EMBEDDING_DAILY_BUDGET cannot be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
