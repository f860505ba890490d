// Package rss fetches the registered feeds and turns their entries into articles.
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/linea/internal/metrics"
	"github.com/deusflow/linea/internal/news"
	"github.com/deusflow/linea/internal/retry"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "lineanews/1.0 (+https://github.com/deusflow/linea)"

	maxParallel = 8
)

type Options struct {
	Timeout   time.Duration
	Retry     retry.RetryConfig
	UserAgent string
	Client    *http.Client
}

type Fetcher struct {
	opts    Options
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewFetcher(opts Options, log *slog.Logger, m *metrics.Metrics) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Fetcher{opts: opts, log: log, metrics: m}
}

// FetchAll downloads every source in the registry. A source that fails is logged
// and contributes nothing. The result lists international sources before national
// ones, each in registry order, entries in feed order.
func (f *Fetcher) FetchAll(ctx context.Context, reg Registry) []news.Article {
	sources := reg.ordered()
	results := make([][]news.Article, len(sources))

	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			articles, err := f.fetchSource(ctx, src)
			if err != nil {
				f.metrics.RecordFeed(false, 0)
				f.log.Warn("failed to fetch feed",
					slog.String("source", src.ID),
					slog.String("url", src.URL),
					slog.Any("err", err))
				return nil
			}
			f.metrics.RecordFeed(true, len(articles))
			f.log.Debug("loaded feed", slog.String("source", src.ID), slog.Int("articles", len(articles)))
			results[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	var all []news.Article
	ok := 0
	for _, r := range results {
		if r != nil {
			ok++
		}
		all = append(all, r...)
	}
	f.log.Info("processed feeds",
		slog.Int("ok", ok),
		slog.Int("sources", len(sources)),
		slog.Int("articles", len(all)))
	return all
}

func (f *Fetcher) fetchSource(ctx context.Context, src entry) ([]news.Article, error) {
	var feed *gofeed.Feed
	err := retry.WithRetry(ctx, f.opts.Retry, func() error {
		fctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()

		// gofeed.Parser is not safe for concurrent use
		parser := gofeed.NewParser()
		parser.UserAgent = f.opts.UserAgent
		if f.opts.Client != nil {
			parser.Client = f.opts.Client
		}
		parsed, err := parser.ParseURLWithContext(src.URL, fctx)
		if err != nil {
			return err
		}
		feed = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.URL, err)
	}

	out := make([]news.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		out = append(out, toArticle(item, src))
	}
	return out, nil
}

func toArticle(item *gofeed.Item, src entry) news.Article {
	a := news.Article{
		Source:    src.ID,
		Title:     strings.TrimSpace(item.Title),
		Link:      strings.TrimSpace(item.Link),
		Summary:   item.Description,
		Published: item.Published,
		Origin:    src.origin,
	}
	if a.Title == "" {
		a.Title = news.DefaultTitle
	}
	if a.Link == "" {
		a.Link = news.DefaultLink
	}
	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		a.PublishedAt = &t
	default:
		a.PublishedAt = news.ParsePublished(item.Published)
	}
	return a
}
