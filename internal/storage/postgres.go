package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// PostgresStore keeps embeddings in PostgreSQL so they survive restarts and are
// shared between replicas.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
	log *slog.Logger
}

// NewPostgresStore connects, pings and creates the schema. ttl <= 0 keeps rows forever.
func NewPostgresStore(ctx context.Context, connectionString string, ttl time.Duration, log *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db, ttl: ttl, log: log}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info("PostgreSQL embedding cache connected")
	return store, nil
}

func (ps *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embedding_cache (
		content_hash VARCHAR(64) PRIMARY KEY,
		vector DOUBLE PRECISION[] NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		last_used_at TIMESTAMP NOT NULL DEFAULT NOW(),
		use_count INTEGER DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_embedding_cache_created_at ON embedding_cache(created_at);
	`
	if _, err := ps.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Lookup(ctx context.Context, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	query := `
		UPDATE embedding_cache
		SET last_used_at = NOW(), use_count = use_count + 1
		WHERE content_hash = ANY($1) AND ($2::timestamp IS NULL OR created_at > $2)
		RETURNING content_hash, vector
	`
	rows, err := ps.db.QueryContext(ctx, query, pq.Array(keys), ps.cutoff())
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var vector pq.Float64Array
		if err := rows.Scan(&key, &vector); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		out[key] = toFloat32(vector)
	}
	return out, rows.Err()
}

// Save upserts vectors in one transaction.
func (ps *PostgresStore) Save(ctx context.Context, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embedding_cache (content_hash, vector, created_at, last_used_at, use_count)
		VALUES ($1, $2, NOW(), NOW(), 1)
		ON CONFLICT (content_hash) DO UPDATE SET
			vector = EXCLUDED.vector,
			created_at = NOW(),
			last_used_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for key, v := range vectors {
		if _, err := stmt.ExecContext(ctx, key, pq.Float64Array(toFloat64(v))); err != nil {
			return fmt.Errorf("failed to save embedding: %w", err)
		}
	}
	return tx.Commit()
}

// Cleanup removes rows older than the TTL.
func (ps *PostgresStore) Cleanup(ctx context.Context) error {
	cutoff := ps.cutoff()
	if cutoff == nil {
		return nil
	}
	result, err := ps.db.ExecContext(ctx, `DELETE FROM embedding_cache WHERE created_at < $1`, *cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		ps.log.Info("cleaned up embedding cache", slog.Int64("rows", rows))
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

func (ps *PostgresStore) cutoff() *time.Time {
	if ps.ttl <= 0 {
		return nil
	}
	t := time.Now().Add(-ps.ttl)
	return &t
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
