package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// cachedVector is one embedding persisted in the JSON file.
type cachedVector struct {
	Key       string    `json:"key"`
	Vector    []float32 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}

// FileStore keeps embeddings in memory and mirrors them to a JSON file.
// Entries older than the TTL are dropped on load and ignored on lookup.
type FileStore struct {
	filePath string
	ttl      time.Duration
	items    map[string]cachedVector
	mu       sync.RWMutex
	now      func() time.Time
}

// NewFileStore creates a store backed by filePath. ttl <= 0 keeps entries forever.
func NewFileStore(filePath string, ttl time.Duration) *FileStore {
	return &FileStore{
		filePath: filePath,
		ttl:      ttl,
		items:    make(map[string]cachedVector),
		now:      time.Now,
	}
}

// Load reads existing entries from the file. A missing or empty file is not an error.
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read embedding cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []cachedVector
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal embedding cache: %w", err)
	}
	for _, item := range items {
		if fs.fresh(item) && len(item.Vector) > 0 {
			fs.items[item.Key] = item
		}
	}
	return nil
}

func (fs *FileStore) Lookup(_ context.Context, keys []string) (map[string][]float32, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make(map[string][]float32, len(keys))
	for _, k := range keys {
		if item, ok := fs.items[k]; ok && fs.fresh(item) {
			out[k] = item.Vector
		}
	}
	return out, nil
}

// Save adds vectors and rewrites the file.
func (fs *FileStore) Save(_ context.Context, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	fs.mu.Lock()
	now := fs.now()
	for k, v := range vectors {
		fs.items[k] = cachedVector{Key: k, Vector: v, CreatedAt: now}
	}
	fs.mu.Unlock()
	return fs.flush()
}

// Cleanup removes expired entries from memory.
func (fs *FileStore) Cleanup() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for k, item := range fs.items {
		if !fs.fresh(item) {
			delete(fs.items, k)
		}
	}
}

// GetStats returns cache statistics
func (fs *FileStore) GetStats() map[string]int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return map[string]int{"total_items": len(fs.items)}
}

func (fs *FileStore) fresh(item cachedVector) bool {
	return fs.ttl <= 0 || fs.now().Sub(item.CreatedAt) < fs.ttl
}

// flush writes through a temp file so a crash never leaves a truncated cache.
func (fs *FileStore) flush() error {
	fs.mu.RLock()
	items := make([]cachedVector, 0, len(fs.items))
	for _, item := range fs.items {
		items = append(items, item)
	}
	fs.mu.RUnlock()

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.filePath), ".embeddings-*")
	if err != nil {
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.filePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace embedding cache: %w", err)
	}
	return nil
}
