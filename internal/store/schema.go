package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"packline/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

func (s *Store) initSchema(ctx context.Context) error {
	if strings.TrimSpace(schemaSQL) == "" {
		return domain.Fail(domain.ErrSchemaMissing, "init schema", "embedded schema is empty")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	})
}
