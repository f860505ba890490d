package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/deusflow/linea/internal/news"
)

// Elasticsearch indexes one document per article, keyed by link, so the index
// always holds the latest score of every article seen.
type Elasticsearch struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
	now   func() time.Time
}

// NewElasticsearch instantiates the Elasticsearch client.
func NewElasticsearch(addr, index string, logger *slog.Logger) (*Elasticsearch, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Elasticsearch{es: es, index: index, log: logger, now: time.Now}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Elasticsearch) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

func (c *Elasticsearch) Publish(ctx context.Context, runID string, articles []news.Article) error {
	now := c.now().UTC()
	for i, a := range articles {
		if a.Link == news.DefaultLink {
			continue
		}
		if err := c.indexDocument(ctx, newDocument(runID, i+1, a, now)); err != nil {
			return err
		}
	}
	c.log.Debug("archived articles", slog.String("index", c.index), slog.Int("count", len(articles)))
	return nil
}

func (c *Elasticsearch) indexDocument(ctx context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index doc: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index doc failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

func (c *Elasticsearch) Close() error { return nil }
