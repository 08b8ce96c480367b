// Package sqlite is the embedded store: the same tables and uniqueness
// constraints as the postgres package, in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/locazos/stream-mate-match/internal/domain/model"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Open opens (creating if needed) the database file at path and applies the
// embedded schema. SQLite allows one writer, so the pool is capped at one
// connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at INTEGER NOT NULL
)
`); err != nil {
		return classify("create schema_migrations", err)
	}

	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		short := strings.TrimPrefix(name, "migrations/")

		if err := withTx(ctx, db, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, `
INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)
ON CONFLICT (name) DO NOTHING
`, short, time.Now().UTC().UnixNano())
			if err != nil {
				return classify("record migration", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return nil
			}
			if _, err := tx.ExecContext(ctx, string(body)); err != nil {
				return classify("apply migration "+short, err)
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return model.StoreFailure("begin tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return model.StoreFailure("commit tx", err)
	}
	return nil
}

func classify(op string, err error) error {
	switch constraintKind(err) {
	case constraintUnique:
		return errors.Join(model.ErrConflict, err)
	case constraintCheck:
		return errors.Join(model.ErrValidation, err)
	}
	if err == nil {
		return nil
	}
	return model.StoreFailure(op, err)
}

type constraint int

const (
	constraintNone constraint = iota
	constraintUnique
	constraintCheck
)

// constraintKind reads the extended result code, falling back to the message
// when the connection only reports the primary SQLITE_CONSTRAINT code.
func constraintKind(err error) constraint {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return constraintNone
	}
	switch code := sqliteErr.Code(); {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return constraintUnique
	case code == sqlite3.SQLITE_CONSTRAINT_CHECK:
		return constraintCheck
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		msg := sqliteErr.Error()
		if strings.Contains(msg, "UNIQUE") {
			return constraintUnique
		}
		if strings.Contains(msg, "CHECK") {
			return constraintCheck
		}
	}
	return constraintNone
}

func isUniqueViolation(err error) bool {
	return constraintKind(err) == constraintUnique
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().UnixNano()
}

func fromUnix(v int64) time.Time {
	return time.Unix(0, v).UTC()
}
