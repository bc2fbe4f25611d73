// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. SQLite has no bulk-load API like Postgres COPY; batched
// prepared INSERTs inside a single transaction keep performance acceptable
// for moderate volumes and give the same all-or-nothing semantics.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tabular/internal/storage"
)

// Config holds SQLite repository configuration.
type Config struct {
	DSN        string // e.g. "file:data.db?cache=shared" or a bare path
	Table      string
	KeyColumns []string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection and returns a Repository plus a
// close function. It pings with a short timeout to fail fast on bad DSNs.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")
	return &Repository{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// Persist writes the batch in one transaction under the given policy.
func (r *Repository) Persist(ctx context.Context, columns []string, rows [][]any, policy storage.ConflictPolicy) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if policy == storage.Upsert && len(r.cfg.KeyColumns) == 0 {
		return 0, r.persistErr(fmt.Errorf("upsert requires key columns"))
	}

	stmtSQL := InsertSQL(r.cfg.Table, columns, r.cfg.KeyColumns, policy)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, r.persistErr(fmt.Errorf("begin: %w", err))
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, r.persistErr(fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()

	var written int64
	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, r.persistErr(fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns)))
		}
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			_ = tx.Rollback()
			return 0, r.persistErr(fmt.Errorf("row %d: %w", i, err))
		}
		n, _ := res.RowsAffected()
		written += n
	}
	if err := tx.Commit(); err != nil {
		return 0, r.persistErr(fmt.Errorf("commit: %w", err))
	}
	return written, nil
}

// Exec runs a single statement. Used for DDL.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

func (r *Repository) persistErr(err error) error {
	return &storage.PersistError{Kind: "sqlite", Table: r.cfg.Table, Err: err}
}

// InsertSQL renders the per-row statement for the policy: a plain INSERT for
// insert-only (constraint violations abort the transaction), or
// INSERT ... ON CONFLICT(keys) DO UPDATE for upsert.
func InsertSQL(table string, columns, keyColumns []string, policy storage.ConflictPolicy) string {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	base := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)
	if policy != storage.Upsert {
		return base
	}

	keys := make(map[string]struct{}, len(keyColumns))
	for _, k := range keyColumns {
		keys[k] = struct{}{}
	}
	var sets []string
	for _, c := range columns {
		if _, isKey := keys[c]; isKey {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	action := "DO NOTHING"
	if len(sets) > 0 {
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	return fmt.Sprintf("%s ON CONFLICT(%s) %s", base, strings.Join(keyColumns, ", "), action)
}
