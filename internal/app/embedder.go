package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deusflow/linea/internal/config"
	"github.com/deusflow/linea/internal/embed"
	"github.com/deusflow/linea/internal/gemini"
	"github.com/deusflow/linea/internal/metrics"
	"github.com/deusflow/linea/internal/openai"
	"github.com/deusflow/linea/internal/ratelimit"
	"github.com/deusflow/linea/internal/retry"
	"github.com/deusflow/linea/internal/storage"
)

// newBackend creates the configured embedding provider.
func newBackend(ctx context.Context, cfg *config.Config) (embed.Embedder, func() error, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return c, func() error { c.Close(); return nil }, nil
	case config.ProviderOpenAI:
		c, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case config.ProviderHash:
		return embed.NewHashEmbedder(cfg.HashEmbeddingDim), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// newStore opens the configured embedding cache. A nil store disables caching.
func newStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (embed.Store, func() error, error) {
	switch cfg.EmbeddingCache {
	case config.CacheNone:
		return nil, nil, nil
	case config.CacheMemory:
		return embed.NewMemoryStore(), nil, nil
	case config.CacheFile:
		fs := storage.NewFileStore(cfg.EmbeddingCachePath, cfg.EmbeddingCacheTTL)
		if err := fs.Load(); err != nil {
			// a corrupt cache only costs re-embedding
			log.Warn("failed to load embedding cache, starting empty", slog.Any("err", err))
		}
		return fs, nil, nil
	case config.CachePostgres:
		ps, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.EmbeddingCacheTTL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := ps.Cleanup(ctx); err != nil {
			log.Warn("embedding cache cleanup failed", slog.Any("err", err))
		}
		return ps, ps.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown embedding cache %q", cfg.EmbeddingCache)
	}
}

// buildEmbedder stacks the wrappers around backend. Cache hits skip the
// limiter; every retry attempt is counted and limited.
func buildEmbedder(cfg *config.Config, backend embed.Embedder, store embed.Store, m *metrics.Metrics, log *slog.Logger) (embed.Embedder, *ratelimit.Limiter) {
	limiter := ratelimit.New(cfg.EmbeddingRPS, 1, cfg.EmbeddingDailyBudget, 0, log)

	var e embed.Embedder = embed.WithMetrics(backend, m)
	e = embed.WithLimiter(e, limiter)
	e = embed.WithRetry(e, retry.RetryConfig{
		MaxAttempts: cfg.EmbeddingRetryAttempts,
		Delay:       cfg.EmbeddingRetryDelay,
		Backoff:     true,
	})
	if store != nil {
		e = embed.WithCache(e, store, log, m)
	}
	return e, limiter
}
