package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// DatabaseHealth captures diagnostic information about the station database.
type DatabaseHealth struct {
	DBPath            string
	DatabaseExists    bool
	DatabaseReadable  bool
	AppliedMigrations []string
	MissingTables     []string
	MissingColumns    []string
	IntegrityCheck    bool
	Batches           int
	Boxes             int
	Pieces            int
	Error             string
}

var expectedColumns = map[string][]string{
	"products": {"code", "name", "species", "state"},
	"batches":  {"id", "traceability_code", "lot_code", "state", "created_at"},
	"boxes": {
		"id", "batch_id", "box_number", "state", "closed_at", "closed_weight",
		"accumulated_weight", "piece_count", "last_sequence", "created_at",
	},
	"pieces": {
		"id", "box_id", "product_code", "product_name", "species", "weight",
		"sequence_number", "captured_at",
	},
}

// CheckHealth returns diagnostic information about the station database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	tables := make([]string, 0, len(expectedColumns))
	for table := range expectedColumns {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		exists, err := tableExists(connCtx, s.db, table)
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		if !exists {
			health.MissingTables = append(health.MissingTables, table)
			continue
		}
		columns, err := tableColumns(connCtx, s.db, table)
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		present := make(map[string]struct{}, len(columns))
		for _, column := range columns {
			present[column] = struct{}{}
		}
		for _, column := range expectedColumns[table] {
			if _, ok := present[column]; !ok {
				health.MissingColumns = append(health.MissingColumns, table+"."+column)
			}
		}
	}

	rows, err := s.db.QueryContext(connCtx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("list migrations: %w", err)
	}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			health.Error = err.Error()
			return health, fmt.Errorf("scan migration: %w", err)
		}
		health.AppliedMigrations = append(health.AppliedMigrations, version)
	}
	rows.Close()

	if len(health.MissingTables) == 0 {
		counts := []struct {
			table string
			dest  *int
		}{
			{"batches", &health.Batches},
			{"boxes", &health.Boxes},
			{"pieces", &health.Pieces},
		}
		for _, c := range counts {
			if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
				health.Error = err.Error()
				return health, fmt.Errorf("count %s: %w", c.table, err)
			}
		}
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

// Healthy reports whether the database is usable for capture.
func (h DatabaseHealth) Healthy() bool {
	return h.DatabaseExists && h.DatabaseReadable && h.IntegrityCheck &&
		len(h.MissingTables) == 0 && len(h.MissingColumns) == 0
}
