package postgres

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the five tables if they do not exist yet. It is
// idempotent and safe to run at every process start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return storageErr("ensure schema", err)
	}
	return nil
}
