package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	PipelineRuns        int64
	FeedsFetched        int64
	FeedsFailed         int64
	ArticlesFetched     int64
	DuplicatesCollapsed int64
	EmbeddingCalls      int64
	EmbeddingFailures   int64
	EmbeddingCacheHits  int64
	ResultCacheHits     int64
	ArchiveFailures     int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) IncrementPipelineRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PipelineRuns++
}

// RecordFeed counts one source fetch and the articles it produced.
func (m *Metrics) RecordFeed(ok bool, articles int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !ok {
		m.FeedsFailed++
		return
	}
	m.FeedsFetched++
	m.ArticlesFetched += int64(articles)
}

func (m *Metrics) AddDuplicatesCollapsed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesCollapsed += int64(n)
}

func (m *Metrics) RecordEmbedding(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbeddingCalls++
	if err != nil {
		m.EmbeddingFailures++
	}
}

func (m *Metrics) AddEmbeddingCacheHits(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbeddingCacheHits += int64(n)
}

func (m *Metrics) IncrementResultCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResultCacheHits++
}

func (m *Metrics) IncrementArchiveFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArchiveFailures++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"pipeline_runs":              m.PipelineRuns,
		"feeds_fetched":              m.FeedsFetched,
		"feeds_failed":               m.FeedsFailed,
		"articles_fetched":           m.ArticlesFetched,
		"duplicates_collapsed":       m.DuplicatesCollapsed,
		"embedding_calls":            m.EmbeddingCalls,
		"embedding_failures":         m.EmbeddingFailures,
		"embedding_cache_hits":       m.EmbeddingCacheHits,
		"result_cache_hits":          m.ResultCacheHits,
		"archive_failures":           m.ArchiveFailures,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
