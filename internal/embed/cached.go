package embed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/deusflow/linea/internal/cache"
	"github.com/deusflow/linea/internal/metrics"
)

// Store persists vectors by content key.
type Store interface {
	// Lookup returns the vectors found for keys; missing keys are absent from the map.
	Lookup(ctx context.Context, keys []string) (map[string][]float32, error)
	Save(ctx context.Context, vectors map[string][]float32) error
}

// Cached serves known texts from a Store and embeds only the misses, in one call.
// Store failures are logged and fall through to the backend.
type Cached struct {
	next    Embedder
	store   Store
	log     *slog.Logger
	metrics *metrics.Metrics
}

func WithCache(next Embedder, store Store, log *slog.Logger, m *metrics.Metrics) *Cached {
	return &Cached{next: next, store: store, log: log, metrics: m}
}

func (c *Cached) Model() string { return c.next.Model() }

// ContentKey identifies text embedded by model.
func ContentKey(model, text string) string {
	return cache.GenerateKey(model, text)
}

func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	model := c.next.Model()
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = ContentKey(model, t)
	}

	found, err := c.store.Lookup(ctx, keys)
	if err != nil {
		c.log.Warn("embedding cache lookup failed", slog.Any("err", err))
		found = nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	pending := map[string][]int{}
	for i, k := range keys {
		if v, ok := found[k]; ok {
			out[i] = v
			continue
		}
		// identical texts in one batch are embedded once
		if idx, seen := pending[k]; seen {
			pending[k] = append(idx, i)
			continue
		}
		pending[k] = []int{i}
		missTexts = append(missTexts, texts[i])
		missIdx = append(missIdx, i)
	}
	if hits := len(texts) - countPending(pending); hits > 0 {
		c.metrics.AddEmbeddingCacheHits(hits)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if err := CheckCount(missTexts, vectors); err != nil {
		return nil, err
	}

	fresh := make(map[string][]float32, len(vectors))
	for j, v := range vectors {
		k := keys[missIdx[j]]
		for _, i := range pending[k] {
			out[i] = v
		}
		fresh[k] = v
	}

	if err := c.store.Save(ctx, fresh); err != nil {
		c.log.Warn("embedding cache save failed", slog.Any("err", err), slog.Int("vectors", len(fresh)))
	} else {
		c.log.Debug("embedding cache updated", slog.String("model", model), slog.Int("vectors", len(fresh)))
	}
	return out, nil
}

func countPending(p map[string][]int) int {
	n := 0
	for _, idx := range p {
		n += len(idx)
	}
	return n
}

// MemoryStore keeps vectors in process memory for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vectors: map[string][]float32{}}
}

func (m *MemoryStore) Lookup(_ context.Context, keys []string) (map[string][]float32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]float32, len(keys))
	for _, k := range keys {
		if v, ok := m.vectors[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, vectors map[string][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("empty vector for key %s", k)
		}
		m.vectors[k] = v
	}
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}
