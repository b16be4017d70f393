// Package settings supplies LLM provider settings from the environment or the
// settings table.
package settings

import (
	"context"
	"database/sql"
	"sync"

	"review-insights/internal/llm"
)

// Keys of the settings table.
const (
	KeyLLMProvider = "llm_provider"
	KeyLLMModel    = "llm_model"
	KeyLLMAPIKey   = "llm_api_key"
)

// Source yields LLM settings. Missing values come back empty.
type Source interface {
	LLMSettings(ctx context.Context) (llm.Config, error)
}

// Static returns fixed settings, typically loaded from the environment.
type Static llm.Config

// LLMSettings returns the static settings.
func (s Static) LLMSettings(ctx context.Context) (llm.Config, error) {
	if err := ctx.Err(); err != nil {
		return llm.Config{}, err
	}
	return llm.Config(s), nil
}

// PGSource reads settings from Postgres.
type PGSource struct {
	DB *sql.DB
}

// LLMSettings reads provider, model and api key from the settings table.
func (s *PGSource) LLMSettings(ctx context.Context) (llm.Config, error) {
	const query = `
SELECT key, value
FROM settings
WHERE key IN ('llm_provider', 'llm_model', 'llm_api_key')`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return llm.Config{}, err
	}
	defer rows.Close()

	values := make(map[string]string, 3)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return llm.Config{}, err
		}
		values[key] = value.String
	}
	if err := rows.Err(); err != nil {
		return llm.Config{}, err
	}
	return fromValues(values), nil
}

// Set stores one setting.
func (s *PGSource) Set(ctx context.Context, key, value string) error {
	const query = `
INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	_, err := s.DB.ExecContext(ctx, query, key, value)
	return err
}

// MemorySource is an in-memory settings store.
type MemorySource struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySource constructs an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{values: make(map[string]string)}
}

// Set stores one setting.
func (s *MemorySource) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// LLMSettings returns the stored LLM settings.
func (s *MemorySource) LLMSettings(ctx context.Context) (llm.Config, error) {
	if err := ctx.Err(); err != nil {
		return llm.Config{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fromValues(s.values), nil
}

func fromValues(values map[string]string) llm.Config {
	return llm.Config{
		Provider: values[KeyLLMProvider],
		Model:    values[KeyLLMModel],
		APIKey:   values[KeyLLMAPIKey],
	}
}
