package embed

import (
	"context"
	"errors"

	"github.com/deusflow/linea/internal/metrics"
	"github.com/deusflow/linea/internal/ratelimit"
	"github.com/deusflow/linea/internal/retry"
)

// Retrying retries failed batch calls. Budget exhaustion and cancellation are not retried.
type Retrying struct {
	next Embedder
	cfg  retry.RetryConfig
}

func WithRetry(next Embedder, cfg retry.RetryConfig) *Retrying {
	return &Retrying{next: next, cfg: cfg}
}

func (r *Retrying) Model() string { return r.next.Model() }

func (r *Retrying) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := retry.WithRetry(ctx, r.cfg, func() error {
		vectors, err := r.next.Embed(ctx, texts)
		if err != nil {
			if errors.Is(err, ratelimit.ErrBudgetExceeded) || errors.Is(err, ErrCountMismatch) {
				return retry.Permanent(err)
			}
			return err
		}
		out = vectors
		return nil
	})
	return out, err
}

// Limited takes a limiter slot before every call to the backend.
type Limited struct {
	next    Embedder
	limiter *ratelimit.Limiter
}

func WithLimiter(next Embedder, limiter *ratelimit.Limiter) *Limited {
	return &Limited{next: next, limiter: limiter}
}

func (l *Limited) Model() string { return l.next.Model() }

func (l *Limited) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := l.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return l.next.Embed(ctx, texts)
}

// Observed records every backend call in the metrics.
type Observed struct {
	next    Embedder
	metrics *metrics.Metrics
}

func WithMetrics(next Embedder, m *metrics.Metrics) *Observed {
	return &Observed{next: next, metrics: m}
}

func (o *Observed) Model() string { return o.next.Model() }

func (o *Observed) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := o.next.Embed(ctx, texts)
	if err == nil {
		err = CheckCount(texts, vectors)
	}
	o.metrics.RecordEmbedding(err)
	if err != nil {
		return nil, err
	}
	return vectors, nil
}
