// Package storage contains the storage-agnostic persistence contract consumed
// by the serializer, plus a factory keyed by backend kind.
//
// Backends (postgres, mysql, mssql, sqlite) register a constructor at init
// time; callers obtain a Repository via New(...) and stay backend-agnostic.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ConflictPolicy selects how a backend handles rows whose key already exists
// in the target table.
type ConflictPolicy string

const (
	// InsertOnly fails the whole operation if any row's key already exists.
	InsertOnly ConflictPolicy = "insert"

	// Upsert inserts new rows and updates existing rows matched by the
	// configured key columns.
	Upsert ConflictPolicy = "upsert"
)

// ParsePolicy validates a policy string from config or flags.
func ParsePolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case InsertOnly, "insert_only", "":
		return InsertOnly, nil
	case Upsert:
		return Upsert, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q", s)
	}
}

// PersistError wraps any failure at the persistence boundary: constraint
// violations, connection failures, malformed batches. It is surfaced as-is
// and never reinterpreted as a validation error.
type PersistError struct {
	Kind  string // backend kind, e.g. "postgres"
	Table string
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s table %s: %v", e.Kind, e.Table, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Config carries everything a backend needs to open a connection and address
// the target table.
type Config struct {
	// Kind selects the registered backend ("postgres", "mysql", ...).
	Kind string

	// DSN is the backend connection string.
	DSN string

	// Table is the target table name (fully qualified where the backend
	// supports it, e.g. "public.products").
	Table string

	// KeyColumns are the columns forming the unique key used for conflict
	// resolution. Required for the upsert policy.
	KeyColumns []string
}

// Repository is the abstract "persist rows" capability. One Persist call is
// atomic: either every row is durably written or none are. Implementations
// own the transactional discipline; callers never retry automatically.
type Repository interface {
	// Persist writes rows (aligned to columns order, nil = NULL) under the
	// given conflict policy and returns the number of rows written.
	Persist(ctx context.Context, columns []string, rows [][]any, policy ConflictPolicy) (int64, error)

	// Exec runs a single backend statement. Used by DDL bootstrappers.
	Exec(ctx context.Context, sql string) error

	// Close releases the underlying connection resources.
	Close()
}

// Factory builds a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a backend kind. Typically
// called from backend packages' init functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
