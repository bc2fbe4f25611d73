// Package mysql implements a MySQL-backed storage.Repository using
// database/sql and the go-sql-driver. Batches are written with multi-row
// INSERT statements inside a transaction; upsert maps onto
// ON DUPLICATE KEY UPDATE against the table's unique key.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"tabular/internal/storage"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN        string // e.g. "user:pass@tcp(host:3306)/db?parseTime=true"
	Table      string
	KeyColumns []string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a MySQL connection pool and returns a Repository plus
// a close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// chunkRows bounds the number of rows per multi-row INSERT so the statement
// stays under MySQL's placeholder and packet limits.
const chunkRows = 500

// Persist writes the batch in one transaction under the given policy.
func (r *Repository) Persist(ctx context.Context, columns []string, rows [][]any, policy storage.ConflictPolicy) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if policy == storage.Upsert && len(r.cfg.KeyColumns) == 0 {
		return 0, r.persistErr(fmt.Errorf("upsert requires key columns"))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, r.persistErr(fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	var written int64
	for off := 0; off < len(rows); off += chunkRows {
		end := off + chunkRows
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[off:end]

		stmtSQL := InsertSQL(r.cfg.Table, columns, r.cfg.KeyColumns, policy, len(chunk))
		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if len(row) != len(columns) {
				return 0, r.persistErr(fmt.Errorf("row %d has %d values, want %d", off+i, len(row), len(columns)))
			}
			args = append(args, row...)
		}
		res, err := tx.ExecContext(ctx, stmtSQL, args...)
		if err != nil {
			return 0, r.persistErr(fmt.Errorf("rows %d..%d: %w", off, end-1, err))
		}
		n, _ := res.RowsAffected()
		// ON DUPLICATE KEY UPDATE reports 2 per updated row; count rows, not
		// the driver's affected number, for a stable "rows written" answer.
		if policy == storage.Upsert {
			written += int64(len(chunk))
		} else {
			written += n
		}
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
	return &storage.PersistError{Kind: "mysql", Table: r.cfg.Table, Err: err}
}

// InsertSQL renders a multi-row INSERT for nRows, with ON DUPLICATE KEY
// UPDATE for the upsert policy.
func InsertSQL(table string, columns, keyColumns []string, policy storage.ConflictPolicy, nRows int) string {
	ph := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	values := make([]string, nRows)
	for i := range values {
		values[i] = ph
	}
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(mapBacktick(columns), ", "), strings.Join(values, ", "))

	if policy == storage.Upsert {
		keys := make(map[string]struct{}, len(keyColumns))
		for _, k := range keyColumns {
			keys[k] = struct{}{}
		}
		var sets []string
		for _, c := range columns {
			if _, isKey := keys[c]; isKey {
				continue
			}
			sets = append(sets, fmt.Sprintf("`%s` = VALUES(`%s`)", c, c))
		}
		if len(sets) == 0 {
			// All columns are keys; touching one keeps the statement valid
			// while changing nothing.
			k := keyColumns[0]
			sets = append(sets, fmt.Sprintf("`%s` = `%s`", k, k))
		}
		fmt.Fprintf(&b, " ON DUPLICATE KEY UPDATE %s", strings.Join(sets, ", "))
	}
	return b.String()
}

func mapBacktick(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = "`" + c + "`"
	}
	return out
}
