package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deusflow/linea/internal/config"
)

var keys = []string{
	"HTTP_ADDR", "PAGE_SIZE", "SOURCES_PATH", "FEED_TIMEOUT", "FEED_RETRY_ATTEMPTS",
	"FEED_RETRY_DELAY", "FEED_USER_AGENT", "RESULT_CACHE_TTL", "KEYWORDS_PATH",
	"EMBEDDING_PROVIDER", "GEMINI_API_KEY", "GEMINI_EMBEDDING_MODEL", "OPENAI_API_KEY",
	"OPENAI_EMBEDDING_MODEL", "HASH_EMBEDDING_DIM", "EMBEDDING_RETRY_ATTEMPTS",
	"EMBEDDING_RETRY_DELAY", "EMBEDDING_RPS", "EMBEDDING_DAILY_BUDGET", "EMBEDDING_CACHE",
	"EMBEDDING_CACHE_PATH", "EMBEDDING_CACHE_TTL", "DATABASE_URL", "ELASTICSEARCH_ADDR",
	"ELASTICSEARCH_INDEX", "KAFKA_BROKERS", "KAFKA_TOPIC", "DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 10, cfg.PageSize)
	require.Equal(t, 15*time.Second, cfg.FeedTimeout)
	require.Equal(t, 2, cfg.FeedRetryAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.FeedRetryDelay)
	require.Equal(t, 5*time.Minute, cfg.ResultCacheTTL)
	require.Equal(t, config.ProviderGemini, cfg.EmbeddingProvider)
	require.Equal(t, "text-embedding-004", cfg.GeminiEmbeddingModel)
	require.Equal(t, config.CacheMemory, cfg.EmbeddingCache)
	require.Equal(t, 168*time.Hour, cfg.EmbeddingCacheTTL)
	require.Equal(t, "articles", cfg.ElasticsearchIndex)
	require.Empty(t, cfg.KafkaBrokers)
	require.Equal(t, "articles_ranked", cfg.KafkaTopic)
	require.False(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("FEED_TIMEOUT", "3s")
	t.Setenv("RESULT_CACHE_TTL", "0s")
	t.Setenv("EMBEDDING_RPS", "2.5")
	t.Setenv("EMBEDDING_CACHE", "file")
	t.Setenv("EMBEDDING_CACHE_PATH", "/tmp/e.json")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9093,")
	t.Setenv("DEBUG", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, config.ProviderOpenAI, cfg.EmbeddingProvider)
	require.Equal(t, 25, cfg.PageSize)
	require.Equal(t, 3*time.Second, cfg.FeedTimeout)
	require.Zero(t, cfg.ResultCacheTTL)
	require.Equal(t, 2.5, cfg.EmbeddingRPS)
	require.Equal(t, config.CacheFile, cfg.EmbeddingCache)
	require.Equal(t, []string{"a:9092", "b:9093"}, cfg.KafkaBrokers)
	require.True(t, cfg.Debug)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("FEED_TIMEOUT", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, cfg.FeedTimeout)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing gemini key", map[string]string{}},
		{"missing openai key", map[string]string{"EMBEDDING_PROVIDER": "openai"}},
		{"unknown provider", map[string]string{"EMBEDDING_PROVIDER": "bert"}},
		{"postgres without url", map[string]string{"EMBEDDING_PROVIDER": "hash", "EMBEDDING_CACHE": "postgres"}},
		{"unknown cache", map[string]string{"EMBEDDING_PROVIDER": "hash", "EMBEDDING_CACHE": "redis"}},
		{"zero page size", map[string]string{"EMBEDDING_PROVIDER": "hash", "PAGE_SIZE": "0"}},
		{"negative budget", map[string]string{"EMBEDDING_PROVIDER": "hash", "EMBEDDING_DAILY_BUDGET": "-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("EMBEDDING_PROVIDER=hash\nHASH_EMBEDDING_DIM=32\n"), 0o644))

	require.NoError(t, os.Unsetenv("EMBEDDING_PROVIDER"))
	require.NoError(t, os.Unsetenv("HASH_EMBEDDING_DIM"))
	require.NoError(t, config.LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.ProviderHash, cfg.EmbeddingProvider)
	require.Equal(t, 32, cfg.HashEmbeddingDim)
}
