// Package history records completed prompt interactions so users can
// review what was asked and what came back. Writes are best-effort;
// a history failure never fails the request that produced it.
package history

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Kind labels the interaction surface that produced an entry.
type Kind string

const (
	KindEnhancement Kind = "enhancement"
	KindStream      Kind = "stream"
	KindAnalysis    Kind = "analysis"
)

// Entry is one recorded interaction.
type Entry struct {
	ID              uuid.UUID `json:"id"`
	Kind            Kind      `json:"kind"`
	EnhancementType string    `json:"enhancement_type"`
	PromptChars     int       `json:"prompt_chars"`
	ResponseChars   int       `json:"response_chars"`
	ChunkCount      int       `json:"chunk_count"`
	Outcome         string    `json:"outcome"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store persists interaction entries in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a history store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the interaction log table.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS interaction_logs (
			id               UUID PRIMARY KEY,
			kind             TEXT NOT NULL,
			enhancement_type TEXT NOT NULL DEFAULT '',
			prompt_chars     INT NOT NULL DEFAULT 0,
			response_chars   INT NOT NULL DEFAULT 0,
			chunk_count      INT NOT NULL DEFAULT 0,
			outcome          TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// Record inserts an entry. Failures are logged and swallowed.
func (s *Store) Record(ctx context.Context, entry Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO interaction_logs (id, kind, enhancement_type, prompt_chars, response_chars, chunk_count, outcome, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Kind, entry.EnhancementType, entry.PromptChars,
		entry.ResponseChars, entry.ChunkCount, entry.Outcome, entry.CreatedAt,
	)
	if err != nil {
		log.Printf(`{"level":"warn","message":"Failed to record interaction","kind":"%s","error":"%v"}`, entry.Kind, err)
	}
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, enhancement_type, prompt_chars, response_chars, chunk_count, outcome, created_at
		FROM interaction_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		err := rows.Scan(
			&entry.ID, &entry.Kind, &entry.EnhancementType, &entry.PromptChars,
			&entry.ResponseChars, &entry.ChunkCount, &entry.Outcome, &entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
