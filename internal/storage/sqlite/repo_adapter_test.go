package sqlite

import (
	"context"
	"testing"

	"tabular/internal/storage"
)

// TestFactoryWiring verifies the init-time registration end to end through
// the storage factory: config fields are forwarded to the backend
// constructor and Close releases through the returned close function.
func TestFactoryWiring(t *testing.T) {
	// Not parallel: swaps the package-level constructor hook.
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	closed := false
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:       "sqlite",
		DSN:        "file:x.db",
		Table:      "products",
		KeyColumns: []string{"id"},
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if gotCfg.DSN != "file:x.db" || gotCfg.Table != "products" || len(gotCfg.KeyColumns) != 1 {
		t.Fatalf("forwarded config: %#v", gotCfg)
	}

	repo.Close()
	if !closed {
		t.Fatalf("Close did not run the constructor's close function")
	}
}
