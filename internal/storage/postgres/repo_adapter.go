// This adapter wires the Postgres backend into the storage-agnostic factory
// by registering a constructor at init time, and registers the matching DDL
// bootstrapper so callers can create tables based only on storage.Kind.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"tabular/internal/schema"
	"tabular/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adapts *Repository to storage.Repository and carries the close
// function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:        cfg.DSN,
			Table:      cfg.Table,
			KeyColumns: cfg.KeyColumns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("postgres",
		func(ctx context.Context, repo storage.Repository, sch *schema.Schema, cfg storage.Config) error {
			if err := repo.Exec(ctx, CreateTableSQL(sch, cfg)); err != nil {
				return fmt.Errorf("apply DDL: %w", err)
			}
			return nil
		})
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for a declared schema.
// Key columns become a UNIQUE constraint so the upsert conflict target and
// the insert-only defense both exist.
func CreateTableSQL(sch *schema.Schema, cfg storage.Config) string {
	var cols []string
	for _, f := range sch.Fields() {
		null := ""
		if !f.AllowNull {
			null = " NOT NULL"
		}
		cols = append(cols, fmt.Sprintf("%s %s%s", pgIdent(f.Name), pgType(f), null))
	}
	if len(cfg.KeyColumns) > 0 {
		cols = append(cols, fmt.Sprintf("UNIQUE (%s)", strings.Join(mapIdent(cfg.KeyColumns), ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgFQN(cfg.Table), strings.Join(cols, ", "))
}

func pgType(f schema.Field) string {
	switch f.Kind {
	case schema.Integer:
		return "bigint"
	case schema.Float:
		return "double precision"
	case schema.Boolean:
		return "boolean"
	case schema.Date:
		return "date"
	case schema.Datetime:
		return "timestamptz"
	default:
		if f.MaxLength > 0 {
			return fmt.Sprintf("varchar(%d)", f.MaxLength)
		}
		return "text"
	}
}
