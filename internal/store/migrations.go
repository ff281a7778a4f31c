package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"packline/internal/domain"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type migration struct {
	version string
	sql     string
}

// migrationGuard reports whether a migration's effect is already present.
// A missing table means the migration does not apply yet.
type migrationGuard struct {
	table  string
	column string
	index  string
}

var migrationGuards = map[string]migrationGuard{
	"001_products_state":            {table: "products", column: "state"},
	"002_pieces_product_code_index": {table: "pieces", index: "idx_pieces_product_code"},
	"003_boxes_closed_weight":       {table: "boxes", column: "closed_weight"},
	"004_pieces_species":            {table: "pieces", column: "species"},
	"005_boxes_last_sequence":       {table: "boxes", column: "last_sequence"},
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, domain.Fail(domain.ErrSchemaMissing, "load migrations", "read migrations dir: %v", err)
	}
	versions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		versions = append(versions, entry.Name())
	}
	sort.Strings(versions)

	migrations := make([]migration, 0, len(versions))
	for _, name := range versions {
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, domain.Fail(domain.ErrSchemaMissing, "load migrations", "read migration %s: %v", name, err)
		}
		version := strings.TrimSuffix(name, ".sql")
		migrations = append(migrations, migration{version: version, sql: string(data)})
	}
	return migrations, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
			return fmt.Errorf("ensure schema_migrations: %w", err)
		}

		for _, migration := range migrations {
			var count int
			row := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", migration.version)
			if err := row.Scan(&count); err != nil {
				return fmt.Errorf("scan migration version: %w", err)
			}
			if count > 0 {
				continue
			}

			guard, ok := migrationGuards[migration.version]
			if !ok {
				return domain.Fail(domain.ErrSchemaMissing, "apply migrations", "migration %s has no guard", migration.version)
			}
			present, applicable, err := guard.check(ctx, tx)
			if err != nil {
				return fmt.Errorf("check migration %s: %w", migration.version, err)
			}
			if !applicable {
				continue
			}
			if !present {
				if _, err := tx.ExecContext(ctx, migration.sql); err != nil {
					return fmt.Errorf("apply migration %s: %w", migration.version, err)
				}
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", migration.version); err != nil {
				return fmt.Errorf("record migration %s: %w", migration.version, err)
			}
		}
		return nil
	})
}

// check returns whether the guarded object already exists and whether the
// migration applies at all.
func (g migrationGuard) check(ctx context.Context, q queryer) (present bool, applicable bool, err error) {
	exists, err := tableExists(ctx, q, g.table)
	if err != nil || !exists {
		return false, false, err
	}
	switch {
	case g.column != "":
		columns, err := tableColumns(ctx, q, g.table)
		if err != nil {
			return false, false, err
		}
		for _, column := range columns {
			if column == g.column {
				return true, true, nil
			}
		}
		return false, true, nil
	case g.index != "":
		var name string
		row := q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name = ?", g.table, g.index)
		if err := row.Scan(&name); err != nil {
			if err == sql.ErrNoRows {
				return false, true, nil
			}
			return false, false, err
		}
		return true, true, nil
	}
	return false, true, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func tableExists(ctx context.Context, q queryer, table string) (bool, error) {
	var count int
	row := q.QueryRowContext(ctx, "SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return count > 0, nil
}

func tableColumns(ctx context.Context, q queryer, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info %s: %w", table, err)
	}
	return columns, nil
}
