package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/deusflow/linea/internal/archive"
	"github.com/deusflow/linea/internal/cache"
	"github.com/deusflow/linea/internal/metrics"
	"github.com/deusflow/linea/internal/news"
	"github.com/deusflow/linea/internal/rss"
)

const rankedKey = "ranked"

type Fetcher interface {
	FetchAll(ctx context.Context, reg rss.Registry) []news.Article
}

type Scorer interface {
	ScoreArticles(ctx context.Context, articles []news.Article) error
}

type ServiceConfig struct {
	Registry rss.Registry
	PageSize int
	CacheTTL time.Duration // 0 runs the pipeline on every request
	// ArchiveTimeout bounds one publish to the archive sinks.
	ArchiveTimeout time.Duration
}

// Service runs fetch, dedupe, score and rank, and answers listing and search
// requests from the result.
type Service struct {
	cfg     ServiceConfig
	fetcher Fetcher
	scorer  Scorer
	sink    archive.Sink
	cache   *cache.Cache
	metrics *metrics.Metrics
	log     *slog.Logger

	group    singleflight.Group
	archives sync.WaitGroup
}

func NewService(cfg ServiceConfig, fetcher Fetcher, scorer Scorer, sink archive.Sink, m *metrics.Metrics, log *slog.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = news.DefaultPageSize
	}
	if cfg.ArchiveTimeout <= 0 {
		cfg.ArchiveTimeout = 30 * time.Second
	}
	if sink == nil {
		sink = archive.Nop{}
	}
	s := &Service{
		cfg:     cfg,
		fetcher: fetcher,
		scorer:  scorer,
		sink:    sink,
		metrics: m,
		log:     log,
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL)
	}
	return s
}

// ListArticles returns one page of the ranked articles of the given origin class.
func (s *Service) ListArticles(ctx context.Context, tab news.Tab, page int) (news.Page, error) {
	ranked, err := s.Ranked(ctx)
	if err != nil {
		return news.Page{}, err
	}
	return news.Paginate(news.FilterOrigin(ranked, tab), page, s.cfg.PageSize), nil
}

// SearchArticles returns every ranked article whose title contains query.
func (s *Service) SearchArticles(ctx context.Context, query string) ([]news.Article, error) {
	ranked, err := s.Ranked(ctx)
	if err != nil {
		return nil, err
	}
	return news.SearchTitle(ranked, query), nil
}

// Ranked returns the deduplicated articles in rank order. Concurrent callers
// share one pipeline run; the result is reused until the cache TTL passes.
func (s *Service) Ranked(ctx context.Context) ([]news.Article, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(rankedKey); ok {
			s.metrics.IncrementResultCacheHits()
			return news.Clone(v.([]news.Article)), nil
		}
	}

	v, err, shared := s.group.Do(rankedKey, func() (interface{}, error) {
		if s.cache != nil {
			if v, ok := s.cache.Get(rankedKey); ok {
				return v, nil
			}
		}
		// a caller that goes away must not fail the others waiting on this run
		return s.run(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("joined running pipeline")
	}
	return news.Clone(v.([]news.Article)), nil
}

func (s *Service) run(ctx context.Context) ([]news.Article, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.log.With(slog.String("run_id", runID))
	s.metrics.IncrementPipelineRuns()

	fetched := s.fetcher.FetchAll(ctx, s.cfg.Registry)
	articles := news.Dedupe(fetched)
	if n := len(fetched) - len(articles); n > 0 {
		s.metrics.AddDuplicatesCollapsed(n)
	}

	if err := s.scorer.ScoreArticles(ctx, articles); err != nil {
		s.metrics.SetError(err.Error())
		log.Error("scoring failed", slog.Any("err", err), slog.Int("articles", len(articles)))
		return nil, fmt.Errorf("score articles: %w", err)
	}
	news.Rank(articles)

	elapsed := time.Since(start)
	s.metrics.RecordProcessingTime(elapsed)
	s.metrics.SetLastRun()
	log.Info("pipeline finished",
		slog.Int("fetched", len(fetched)),
		slog.Int("unique", len(articles)),
		slog.Duration("took", elapsed))

	if s.cache != nil {
		s.cache.Set(rankedKey, articles, s.cfg.CacheTTL)
	}
	s.publish(runID, news.Clone(articles), log)
	return articles, nil
}

// publish copies the ranking to the archive sinks in the background.
func (s *Service) publish(runID string, articles []news.Article, log *slog.Logger) {
	if len(articles) == 0 {
		return
	}
	if _, ok := s.sink.(archive.Nop); ok {
		return
	}
	s.archives.Add(1)
	go func() {
		defer s.archives.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ArchiveTimeout)
		defer cancel()
		if err := s.sink.Publish(ctx, runID, articles); err != nil {
			s.metrics.IncrementArchiveFailures()
			log.Warn("archive publish failed", slog.Any("err", err))
		}
	}()
}

// Close waits for pending archive publishes and releases the result cache.
func (s *Service) Close() {
	s.archives.Wait()
	if s.cache != nil {
		s.cache.Close()
	}
}
