// Adapter wiring the SQLite backend into the storage factory, including a
// DDL bootstrapper for schema-derived table creation.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"tabular/internal/schema"
	"tabular/internal/storage"
)

var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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

	storage.RegisterDDL("sqlite",
		func(ctx context.Context, repo storage.Repository, sch *schema.Schema, cfg storage.Config) error {
			if err := repo.Exec(ctx, CreateTableSQL(sch, cfg)); err != nil {
				return fmt.Errorf("apply DDL: %w", err)
			}
			return nil
		})
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for a declared schema.
func CreateTableSQL(sch *schema.Schema, cfg storage.Config) string {
	var cols []string
	for _, f := range sch.Fields() {
		null := ""
		if !f.AllowNull {
			null = " NOT NULL"
		}
		cols = append(cols, fmt.Sprintf("%s %s%s", f.Name, sqliteType(f.Kind), null))
	}
	if len(cfg.KeyColumns) > 0 {
		cols = append(cols, fmt.Sprintf("UNIQUE (%s)", strings.Join(cfg.KeyColumns, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", cfg.Table, strings.Join(cols, ", "))
}

func sqliteType(k schema.Kind) string {
	switch k {
	case schema.Integer, schema.Boolean:
		return "INTEGER"
	case schema.Float:
		return "REAL"
	default:
		// SQLite has no native date types; TEXT keeps layouts readable.
		return "TEXT"
	}
}
