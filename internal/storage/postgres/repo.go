// Package postgres implements a Postgres-backed storage.Repository using pgx
// v5. Inserts go straight through CopyFrom; upserts COPY into a session-local
// staging table and then merge into the target with INSERT ... ON CONFLICT.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tabular/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN        string   // connection string for pgxpool
	Table      string   // fully qualified target table, e.g. "public.products"
	KeyColumns []string // conflict target columns for upsert
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, fmt.Errorf("postgres: table must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, func() { pool.Close() }, nil
}

// Persist implements the storage contract. The whole batch is written inside
// one transaction; any failure rolls everything back and surfaces as a
// *storage.PersistError.
func (r *Repository) Persist(ctx context.Context, columns []string, rows [][]any, policy storage.ConflictPolicy) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, r.persistErr(fmt.Errorf("no columns"))
	}
	if policy == storage.Upsert && len(r.cfg.KeyColumns) == 0 {
		return 0, r.persistErr(fmt.Errorf("upsert requires key columns"))
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, r.persistErr(fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var n int64
	switch policy {
	case storage.Upsert:
		n, err = r.upsert(ctx, tx, columns, rows)
	default:
		n, err = tx.CopyFrom(ctx, tableIdent(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	}
	if err != nil {
		return 0, r.persistErr(describePgError(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, r.persistErr(fmt.Errorf("commit: %w", err))
	}
	return n, nil
}

// upsert copies the batch into a uuid-suffixed temp table, then merges it
// into the target. The temp table is ON COMMIT DROP, so nothing leaks.
func (r *Repository) upsert(ctx context.Context, tx pgx.Tx, columns []string, rows [][]any) (int64, error) {
	tmp := fmt.Sprintf("stage_%s", strings.ReplaceAll(uuid.New().String(), "-", ""))
	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s ON COMMIT DROP AS SELECT %s FROM %s WHERE false",
		pgIdent(tmp), strings.Join(mapIdent(columns), ","), pgFQN(r.cfg.Table),
	)
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("create staging table: %w", err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{tmp}, columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, fmt.Errorf("copy into staging table: %w", err)
	}

	merge := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		pgFQN(r.cfg.Table),
		strings.Join(mapIdent(columns), ","),
		strings.Join(mapIdent(columns), ","),
		pgIdent(tmp),
		strings.Join(mapIdent(r.cfg.KeyColumns), ","),
		conflictAction(columns, r.cfg.KeyColumns),
	)
	tag, err := tx.Exec(ctx, merge)
	if err != nil {
		return 0, fmt.Errorf("merge from staging table: %w", err)
	}
	log.Printf("postgres: upsert table=%s rows=%d affected=%d", r.cfg.Table, len(rows), tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// Exec runs one statement outside any batch transaction. Used for DDL.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

func (r *Repository) persistErr(err error) error {
	return &storage.PersistError{Kind: "postgres", Table: r.cfg.Table, Err: err}
}

// conflictAction renders the DO UPDATE SET clause for non-key columns, or
// DO NOTHING when every column is part of the key.
func conflictAction(columns, keyColumns []string) string {
	keys := make(map[string]struct{}, len(keyColumns))
	for _, k := range keyColumns {
		keys[k] = struct{}{}
	}
	var sets []string
	for _, c := range columns {
		if _, isKey := keys[c]; isKey {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", pgIdent(c), pgIdent(c)))
	}
	if len(sets) == 0 {
		return "DO NOTHING"
	}
	return "DO UPDATE SET " + strings.Join(sets, ", ")
}

// describePgError surfaces the useful detail pgx tucks into PgError.
func describePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s: %s (%s)", pgErr.Message, pgErr.Detail, pgErr.SQLState())
	}
	return err
}

// pgIdent quotes a single identifier.
func pgIdent(s string) string {
	return pgx.Identifier{s}.Sanitize()
}

// pgFQN quotes a possibly schema-qualified table name.
func pgFQN(s string) string {
	return tableIdent(s).Sanitize()
}

// tableIdent splits "schema.table" into a pgx.Identifier.
func tableIdent(s string) pgx.Identifier {
	parts := strings.Split(s, ".")
	return pgx.Identifier(parts)
}

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
