package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	ctx := context.Background()

	fs := NewFileStore(path, time.Hour)
	require.NoError(t, fs.Load())
	require.NoError(t, fs.Save(ctx, map[string][]float32{"a": {1, 2}, "b": {3}}))

	got, err := fs.Lookup(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	require.Equal(t, map[string][]float32{"a": {1, 2}}, got)

	reloaded := NewFileStore(path, time.Hour)
	require.NoError(t, reloaded.Load())
	require.Equal(t, 2, reloaded.GetStats()["total_items"])
	got, err = reloaded.Lookup(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, []float32{3}, got["b"])
}

func TestFileStoreExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	ctx := context.Background()
	now := time.Now()

	fs := NewFileStore(path, time.Hour)
	fs.now = func() time.Time { return now }
	require.NoError(t, fs.Save(ctx, map[string][]float32{"a": {1}}))

	now = now.Add(2 * time.Hour)
	got, err := fs.Lookup(ctx, []string{"a"})
	require.NoError(t, err)
	require.Empty(t, got)

	fs.Cleanup()
	require.Equal(t, 0, fs.GetStats()["total_items"])

	reloaded := NewFileStore(path, time.Hour)
	reloaded.now = func() time.Time { return now }
	require.NoError(t, reloaded.Load())
	require.Equal(t, 0, reloaded.GetStats()["total_items"])
}

func TestFileStoreLoadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewFileStore(filepath.Join(dir, "none.json"), 0).Load())

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	require.NoError(t, NewFileStore(empty, 0).Load())

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o644))
	require.Error(t, NewFileStore(broken, 0).Load())
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(filepath.Join(dir, "embeddings.json"), 0)
	require.NoError(t, fs.Save(context.Background(), map[string][]float32{"a": {1}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "embeddings.json", entries[0].Name())
}
