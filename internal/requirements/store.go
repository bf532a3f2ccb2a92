// Package requirements manages the per-category non-functional
// requirement lists that the prompt constructor folds into enhanced
// prompts. Lists live in Postgres; when the database is unreachable
// the built-in defaults are served instead so prompt construction
// never blocks on storage.
package requirements

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Requirement is a single non-functional requirement within a category.
type Requirement struct {
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

// Store reads and writes requirement lists.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a requirements store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the requirements table and seeds the default
// categories if the table is empty.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS nfr_requirements (
			category    TEXT NOT NULL,
			position    INT NOT NULL,
			requirement TEXT NOT NULL,
			enabled     BOOLEAN NOT NULL DEFAULT TRUE,
			PRIMARY KEY (category, position)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create requirements table: %w", err)
	}

	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM nfr_requirements`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count requirements: %w", err)
	}
	if count > 0 {
		return nil
	}

	for category, texts := range DefaultSets() {
		for i, text := range texts {
			_, err := s.pool.Exec(ctx,
				`INSERT INTO nfr_requirements (category, position, requirement, enabled)
				 VALUES ($1, $2, $3, TRUE)`,
				category, i, text,
			)
			if err != nil {
				return fmt.Errorf("failed to seed requirements for %s: %w", category, err)
			}
		}
	}

	return nil
}

// Enabled returns the enabled requirement texts for a category in
// priority order. If the category is unknown or the query fails, the
// built-in defaults for that category are returned so callers always
// get a usable list.
func (s *Store) Enabled(ctx context.Context, category string) []string {
	rows, err := s.pool.Query(ctx, `
		SELECT requirement FROM nfr_requirements
		WHERE category = $1 AND enabled = TRUE
		ORDER BY position
	`, category)
	if err != nil {
		log.Printf(`{"level":"warn","message":"Requirements query failed, using defaults","category":"%s","error":"%v"}`, category, err)
		return defaultFor(category)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			log.Printf(`{"level":"warn","message":"Requirements scan failed, using defaults","category":"%s","error":"%v"}`, category, err)
			return defaultFor(category)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		log.Printf(`{"level":"warn","message":"Requirements iteration failed, using defaults","category":"%s","error":"%v"}`, category, err)
		return defaultFor(category)
	}

	if len(texts) == 0 {
		return defaultFor(category)
	}
	return texts
}

// All returns every category with its full requirement list, flags
// included, for the settings surface.
func (s *Store) All(ctx context.Context) (map[string][]Requirement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, requirement, enabled FROM nfr_requirements
		ORDER BY category, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query requirements: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]Requirement)
	for rows.Next() {
		var category string
		var req Requirement
		if err := rows.Scan(&category, &req.Text, &req.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan requirement: %w", err)
		}
		result[category] = append(result[category], req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requirements: %w", err)
	}

	return result, nil
}

// Replace overwrites a category's requirement list in one transaction.
func (s *Store) Replace(ctx context.Context, category string, reqs []Requirement) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM nfr_requirements WHERE category = $1`, category)
	if err != nil {
		return fmt.Errorf("failed to clear requirements for %s: %w", category, err)
	}

	for i, req := range reqs {
		_, err = tx.Exec(ctx,
			`INSERT INTO nfr_requirements (category, position, requirement, enabled)
			 VALUES ($1, $2, $3, $4)`,
			category, i, req.Text, req.Enabled,
		)
		if err != nil {
			return fmt.Errorf("failed to insert requirement: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func defaultFor(category string) []string {
	if texts, ok := DefaultSets()[category]; ok {
		return texts
	}
	return nil
}
