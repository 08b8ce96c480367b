package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies embedded migrations that are not yet recorded in
// schema_migrations. Each file runs in its own transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)
`); err != nil {
		return nil, classify("create schema_migrations", err)
	}

	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	applied := make([]string, 0, len(names))
	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}
		short := strings.TrimPrefix(name, "migrations/")

		ran := false
		if err := WithTx(ctx, pool, func(txCtx context.Context, tx pgx.Tx) error {
			tag, err := tx.Exec(txCtx, `
INSERT INTO schema_migrations (name) VALUES ($1)
ON CONFLICT (name) DO NOTHING
`, short)
			if err != nil {
				return classify("record migration", err)
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			if _, err := tx.Exec(txCtx, string(body)); err != nil {
				return classify("apply migration "+short, err)
			}
			ran = true
			return nil
		}); err != nil {
			return applied, err
		}
		if ran {
			applied = append(applied, short)
		}
	}

	return applied, nil
}
