// Package app wires the pipeline together and serves it over HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/deusflow/linea/internal/api"
	"github.com/deusflow/linea/internal/archive"
	"github.com/deusflow/linea/internal/config"
	"github.com/deusflow/linea/internal/metrics"
	"github.com/deusflow/linea/internal/relevance"
	"github.com/deusflow/linea/internal/retry"
	"github.com/deusflow/linea/internal/rss"
)

type App struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	service *Service
	sink    archive.Sink
	server  *http.Server
	closers []func() error
}

// New builds every component and embeds the keyword corpus. It fails when the
// corpus cannot be embedded.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, log: log, metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	registry := rss.DefaultRegistry()
	if cfg.SourcesPath != "" {
		if registry, err = rss.LoadRegistry(cfg.SourcesPath); err != nil {
			return nil, err
		}
	}
	keywords := relevance.DefaultKeywords
	if cfg.KeywordsPath != "" {
		if keywords, err = relevance.LoadKeywords(cfg.KeywordsPath); err != nil {
			return nil, err
		}
	}

	backend, closeBackend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	a.addCloser(closeBackend)

	store, closeStore, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	a.addCloser(closeStore)

	embedder, limiter := buildEmbedder(cfg, backend, store, a.metrics, log)
	corpus, err := relevance.NewCorpus(ctx, embedder, keywords)
	if err != nil {
		return nil, err
	}
	log.Info("keyword corpus ready",
		slog.String("model", corpus.Model()),
		slog.Int("keywords", corpus.Len()),
		slog.Int("dim", corpus.Dim()),
		slog.Any("budget", limiter.GetStats()))

	a.sink = newSink(ctx, cfg, log)
	a.addCloser(a.sink.Close)

	fetcher := rss.NewFetcher(rss.Options{
		Timeout:   cfg.FeedTimeout,
		UserAgent: cfg.FeedUserAgent,
		Retry: retry.RetryConfig{
			MaxAttempts: cfg.FeedRetryAttempts,
			Delay:       cfg.FeedRetryDelay,
		},
	}, log, a.metrics)

	a.service = NewService(ServiceConfig{
		Registry: registry,
		PageSize: cfg.PageSize,
		CacheTTL: cfg.ResultCacheTTL,
	}, fetcher, relevance.NewScorer(embedder, corpus, log), a.sink, a.metrics, log)

	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(a.service, a.metrics, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// a cold pipeline run fetches every feed and embeds every article
		WriteTimeout: 2 * time.Minute,
	}
	return a, nil
}

// newSink enables the archive sinks that are configured. A sink that cannot be
// reached at startup is skipped.
func newSink(ctx context.Context, cfg *config.Config, log *slog.Logger) archive.Sink {
	var sinks archive.Multi
	if cfg.ElasticsearchAddr != "" {
		es, err := archive.NewElasticsearch(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = es.Ping(pctx)
			cancel()
		}
		if err != nil {
			log.Warn("elasticsearch archive disabled", slog.Any("err", err))
		} else {
			sinks = append(sinks, es)
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		sinks = append(sinks, archive.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, log))
	}
	if len(sinks) == 0 {
		return archive.Nop{}
	}
	return sinks
}

func (a *App) addCloser(fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server starting", slog.String("addr", a.cfg.HTTPAddr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Close releases every resource in reverse order of creation.
func (a *App) Close() error {
	if a.service != nil {
		a.service.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) Handler() http.Handler { return a.server.Handler }
