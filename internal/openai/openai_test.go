package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/require"
)

func TestEmbedOrdersByIndex(t *testing.T) {
	var path string
	var got struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	c, err := NewClient("test-key", "", option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := c.Embed(context.Background(), []string{"museum", "poetry"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
	require.Equal(t, "/embeddings", path)
	require.Equal(t, []string{"museum", "poetry"}, got.Input)
	require.Equal(t, "text-embedding-3-small", got.Model)
	require.Equal(t, "openai/text-embedding-3-small", c.Model())
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	c, err := NewClient("test-key", "", option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", "")
	require.Error(t, err)
}
