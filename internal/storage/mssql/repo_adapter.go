// Adapter wiring the SQL Server backend into the storage factory.
package mssql

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
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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

	storage.RegisterDDL("mssql",
		func(ctx context.Context, repo storage.Repository, sch *schema.Schema, cfg storage.Config) error {
			if err := repo.Exec(ctx, CreateTableSQL(sch, cfg)); err != nil {
				return fmt.Errorf("apply DDL: %w", err)
			}
			return nil
		})
}

// CreateTableSQL renders a guarded CREATE TABLE for a declared schema.
// SQL Server has no IF NOT EXISTS on CREATE TABLE; OBJECT_ID guards it.
func CreateTableSQL(sch *schema.Schema, cfg storage.Config) string {
	var cols []string
	for _, f := range sch.Fields() {
		null := " NULL"
		if !f.AllowNull {
			null = " NOT NULL"
		}
		cols = append(cols, fmt.Sprintf("[%s] %s%s", f.Name, mssqlType(f), null))
	}
	if len(cfg.KeyColumns) > 0 {
		cols = append(cols, fmt.Sprintf("UNIQUE (%s)", strings.Join(mapBracket(cfg.KeyColumns), ", ")))
	}
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		cfg.Table, bracketFQN(cfg.Table), strings.Join(cols, ", "),
	)
}

func mssqlType(f schema.Field) string {
	switch f.Kind {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "FLOAT"
	case schema.Boolean:
		return "BIT"
	case schema.Date:
		return "DATE"
	case schema.Datetime:
		return "DATETIME2"
	default:
		if f.MaxLength > 0 {
			return fmt.Sprintf("NVARCHAR(%d)", f.MaxLength)
		}
		return "NVARCHAR(400)"
	}
}
