// Package embed defines the text embedding boundary and the wrappers stacked
// around concrete backends: caching, retries, rate limiting and metrics.
package embed

import (
	"context"
	"errors"
	"fmt"
)

// Embedder maps texts to fixed-length vectors. Implementations must return one
// vector per input text, in input order, and be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model identifies the vector space; vectors from different models are not comparable.
	Model() string
}

var ErrCountMismatch = errors.New("embedding count does not match input count")

// CheckCount verifies a backend answered with one vector per text.
func CheckCount(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(vectors), len(texts))
	}
	return nil
}

// Chunk splits texts into batches of at most size elements.
func Chunk(texts []string, size int) [][]string {
	if size <= 0 || len(texts) <= size {
		if len(texts) == 0 {
			return nil
		}
		return [][]string{texts}
	}
	var out [][]string
	for start := 0; start < len(texts); start += size {
		out = append(out, texts[start:min(start+size, len(texts))])
	}
	return out
}
