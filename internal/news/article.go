package news

import (
	"strings"
	"time"
)

// Origin tells which source registry an article came from.
type Origin string

const (
	National      Origin = "national"
	International Origin = "international"
)

// Placeholders for feed entries with missing fields.
const (
	DefaultTitle = "No title"
	DefaultLink  = "#"
)

// Article is a single feed entry scored for relevance.
type Article struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary"`
	Published   string     `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Score       float64    `json:"score"`
	Origin      Origin     `json:"origin"`
}

// IsNational reports whether the article came from the national registry.
func (a Article) IsNational() bool {
	return a.Origin == National
}

// layouts tried when a feed only gives a display string for the publish date
var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// ParsePublished turns a display date into a timestamp, nil when nothing matches.
func ParsePublished(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// Clone returns a copy of the slice so cached results can be handed out safely.
func Clone(articles []Article) []Article {
	if articles == nil {
		return nil
	}
	out := make([]Article, len(articles))
	copy(out, articles)
	return out
}
