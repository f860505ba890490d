// Package relevance scores article text against a fixed keyword corpus by mean
// cosine similarity of embeddings.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/deusflow/linea/internal/embed"
	"github.com/deusflow/linea/internal/htmltext"
	"github.com/deusflow/linea/internal/news"
)

var (
	ErrEmptyCorpus       = errors.New("keyword corpus is empty")
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
)

// Corpus holds the keywords and their vectors. It is built once and never mutated.
type Corpus struct {
	keywords []string
	vectors  [][]float32
	model    string
}

// NewCorpus embeds keywords with e in a single call.
func NewCorpus(ctx context.Context, e embed.Embedder, keywords []string) (*Corpus, error) {
	if len(keywords) == 0 {
		return nil, ErrEmptyCorpus
	}
	vectors, err := e.Embed(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to embed keyword corpus: %w", err)
	}
	if err := embed.CheckCount(keywords, vectors); err != nil {
		return nil, err
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return nil, fmt.Errorf("%w: keyword %q has %d, want %d", ErrDimensionMismatch, keywords[i], len(v), dim)
		}
	}
	return &Corpus{
		keywords: append([]string(nil), keywords...),
		vectors:  vectors,
		model:    e.Model(),
	}, nil
}

func (c *Corpus) Len() int { return len(c.keywords) }

func (c *Corpus) Dim() int { return len(c.vectors[0]) }

func (c *Corpus) Keywords() []string { return append([]string(nil), c.keywords...) }

func (c *Corpus) Model() string { return c.model }

// Mean returns the mean cosine similarity of v against every keyword vector.
func (c *Corpus) Mean(v []float32) (float64, error) {
	if len(v) != c.Dim() {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), c.Dim())
	}
	var sum float64
	for _, k := range c.vectors {
		sum += Cosine(v, k)
	}
	return sum / float64(len(c.vectors)), nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero norm.
// a and b must have the same length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, s))
}

// Scorer embeds texts with the same model the corpus was built with.
type Scorer struct {
	embedder embed.Embedder
	corpus   *Corpus
	log      *slog.Logger
}

func NewScorer(e embed.Embedder, corpus *Corpus, log *slog.Logger) *Scorer {
	if log == nil {
		log = slog.Default()
	}
	return &Scorer{embedder: e, corpus: corpus, log: log}
}

// Scores returns one score per text, in order, from a single embedding call.
func (s *Scorer) Scores(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed articles: %w", err)
	}
	if err := embed.CheckCount(texts, vectors); err != nil {
		return nil, err
	}
	out := make([]float64, len(texts))
	for i, v := range vectors {
		if out[i], err = s.corpus.Mean(v); err != nil {
			return nil, err
		}
	}
	s.log.Debug("scored texts", slog.Int("count", len(texts)))
	return out, nil
}

// ScoreArticles sets Score on every article in place.
func (s *Scorer) ScoreArticles(ctx context.Context, articles []news.Article) error {
	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = ArticleText(a)
	}
	scores, err := s.Scores(ctx, texts)
	if err != nil {
		return err
	}
	for i := range articles {
		articles[i].Score = scores[i]
	}
	return nil
}

// ArticleText is the text an article is judged by: its title, followed by the
// plain text of its summary when there is one.
func ArticleText(a news.Article) string {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = news.DefaultTitle
	}
	summary := htmltext.Text(a.Summary)
	if summary == "" {
		return title
	}
	return title + " " + summary
}
