// Adapter wiring the MySQL backend into the storage factory.
package mysql

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
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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

	storage.RegisterDDL("mysql",
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
		cols = append(cols, fmt.Sprintf("`%s` %s%s", f.Name, mysqlType(f), null))
	}
	if len(cfg.KeyColumns) > 0 {
		cols = append(cols, fmt.Sprintf("UNIQUE KEY (%s)", strings.Join(mapBacktick(cfg.KeyColumns), ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", cfg.Table, strings.Join(cols, ", "))
}

func mysqlType(f schema.Field) string {
	switch f.Kind {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE"
	case schema.Boolean:
		return "TINYINT(1)"
	case schema.Date:
		return "DATE"
	case schema.Datetime:
		return "DATETIME"
	default:
		if f.MaxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", f.MaxLength)
		}
		// TEXT cannot carry a unique key in MySQL; keep keyable strings
		// bounded.
		return "VARCHAR(255)"
	}
}
