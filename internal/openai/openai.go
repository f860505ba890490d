// Package openai embeds texts with the OpenAI embeddings endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/deusflow/linea/internal/embed"
)

const (
	DefaultModel = "text-embedding-3-small"

	// maxBatch keeps each request well under the API input limit.
	maxBatch = 512
)

type Client struct {
	client openai.Client
	model  string
}

// NewClient builds an embedder. The SDK's own retries are disabled; callers wrap
// the client with embed.WithRetry.
func NewClient(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &Client{client: openai.NewClient(opts...), model: model}, nil
}

func (c *Client) Model() string { return "openai/" + c.model }

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, chunk := range embed.Chunk(texts, maxBatch) {
		resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunk},
			Model:          openai.EmbeddingModel(c.model),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		vectors, err := ordered(resp.Data, len(chunk))
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// ordered places each returned embedding at its input index.
func ordered(data []openai.Embedding, want int) ([][]float32, error) {
	if len(data) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", embed.ErrCountMismatch, len(data), want)
	}
	out := make([][]float32, want)
	for _, d := range data {
		if d.Index < 0 || int(d.Index) >= want || out[d.Index] != nil {
			return nil, fmt.Errorf("unexpected embedding index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		out[d.Index] = v
	}
	return out, nil
}
