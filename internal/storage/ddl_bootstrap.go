package storage

import (
	"context"
	"fmt"
	"sync"

	"tabular/internal/schema"
)

// DDLBootstrapper creates the target table for a declared schema if it does
// not exist yet: field kinds map to backend column types and cfg.KeyColumns
// become a unique constraint. Backends register an implementation for their
// kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, sch *schema.Schema, cfg Config) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for a backend kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable locates the bootstrapper for cfg.Kind and invokes it. Callers
// do not need to know which backend they are using.
func EnsureTable(ctx context.Context, repo Repository, sch *schema.Schema, cfg Config) error {
	ddlMu.RLock()
	fn, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", cfg.Kind)
	}
	return fn(ctx, repo, sch, cfg)
}
