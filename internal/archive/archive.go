// Package archive copies ranked articles to optional downstream sinks.
package archive

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/deusflow/linea/internal/news"
)

// Sink receives every freshly ranked article list.
type Sink interface {
	Publish(ctx context.Context, runID string, articles []news.Article) error
	Close() error
}

// Document is the archived form of an article.
type Document struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id"`
	Rank        int        `json:"rank"`
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary,omitempty"`
	Published   string     `json:"published,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Score       float64    `json:"score"`
	Origin      string     `json:"origin"`
	ArchivedAt  time.Time  `json:"archived_at"`
}

// DocumentID derives a stable id from the article link.
func DocumentID(link string) string {
	sum := sha1.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}

func newDocument(runID string, rank int, a news.Article, now time.Time) Document {
	return Document{
		ID:          DocumentID(a.Link),
		RunID:       runID,
		Rank:        rank,
		Source:      a.Source,
		Title:       a.Title,
		Link:        a.Link,
		Summary:     a.Summary,
		Published:   a.Published,
		PublishedAt: a.PublishedAt,
		Score:       a.Score,
		Origin:      string(a.Origin),
		ArchivedAt:  now,
	}
}

// Multi publishes to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, runID string, articles []news.Article) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, runID, articles); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, string, []news.Article) error { return nil }
func (Nop) Close() error                                          { return nil }
