// Package gemini embeds texts with the Gemini embedding API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/linea/internal/embed"
)

const (
	DefaultModel = "text-embedding-004"

	// maxBatch is the API limit of requests per BatchEmbedContents call.
	maxBatch = 100
	maxChars = 6000
)

type Client struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	name   string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	em := client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeSemanticSimilarity
	return &Client{client: client, model: em, name: model}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Client) Model() string { return "gemini/" + c.name }

// Embed sends texts in batches of at most 100 and returns the vectors in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, chunk := range embed.Chunk(texts, maxBatch) {
		b := c.model.NewBatch()
		for _, t := range chunk {
			b.AddContent(genai.Text(clip(t)))
		}
		res, err := c.model.BatchEmbedContents(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("failed to embed contents: %w", err)
		}
		vectors, err := values(res, len(chunk))
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func values(res *genai.BatchEmbedContentsResponse, want int) ([][]float32, error) {
	if res == nil || len(res.Embeddings) != want {
		got := 0
		if res != nil {
			got = len(res.Embeddings)
		}
		return nil, fmt.Errorf("%w: got %d, want %d", embed.ErrCountMismatch, got, want)
	}
	out := make([][]float32, want)
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for text %d", i)
		}
		out[i] = e.Values
	}
	return out, nil
}

// clip collapses whitespace and cuts overlong texts on a rune boundary.
func clip(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars])
}
