package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"tabular/internal/schema"
)

type stubRepo struct {
	execSQL []string
	execErr error
}

func (s *stubRepo) Persist(context.Context, []string, [][]any, ConflictPolicy) (int64, error) {
	return 0, nil
}
func (s *stubRepo) Exec(_ context.Context, sql string) error {
	s.execSQL = append(s.execSQL, sql)
	return s.execErr
}
func (s *stubRepo) Close() {}

// TestParsePolicy accepts the documented spellings, defaults to insert-only,
// and rejects everything else.
func TestParsePolicy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ConflictPolicy{
		"":            InsertOnly,
		"insert":      InsertOnly,
		"insert_only": InsertOnly,
		" UPSERT ":    Upsert,
	} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q)=%q err=%v, want %q", in, got, err, want)
		}
	}
	if _, err := ParsePolicy("replace"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

// TestRegisterNew verifies the factory round-trip: a registered kind is
// constructable and listed, an unknown kind names itself in the error.
func TestRegisterNew(t *testing.T) {
	// Not parallel: mutates the process-wide registry.

	want := &stubRepo{}
	Register("stub", func(context.Context, Config) (Repository, error) {
		return want, nil
	})

	got, err := New(context.Background(), Config{Kind: "stub"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got != Repository(want) {
		t.Fatalf("New returned %#v, want the registered stub", got)
	}

	found := false
	for _, k := range ListKinds() {
		if k == "stub" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ListKinds()=%v missing stub", ListKinds())
	}

	_, err = New(context.Background(), Config{Kind: "voltdb"})
	if err == nil || !strings.Contains(err.Error(), "voltdb") {
		t.Fatalf("unknown kind error: %v", err)
	}
}

// TestEnsureTable dispatches to the bootstrapper registered for the config's
// kind and fails with a named error when none exists.
func TestEnsureTable(t *testing.T) {
	// Not parallel: mutates the process-wide DDL registry.

	sch, err := schema.NewBuilder().
		Add(schema.Field{Name: "id", Kind: schema.Integer}).
		Build()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	repo := &stubRepo{}
	RegisterDDL("stub", func(ctx context.Context, r Repository, s *schema.Schema, cfg Config) error {
		return r.Exec(ctx, fmt.Sprintf("CREATE TABLE %s ()", cfg.Table))
	})

	cfg := Config{Kind: "stub", Table: "t"}
	if err := EnsureTable(context.Background(), repo, sch, cfg); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if len(repo.execSQL) != 1 || !strings.Contains(repo.execSQL[0], "CREATE TABLE t") {
		t.Fatalf("exec calls: %v", repo.execSQL)
	}

	err = EnsureTable(context.Background(), repo, sch, Config{Kind: "voltdb"})
	if err == nil || !strings.Contains(err.Error(), "voltdb") {
		t.Fatalf("missing bootstrapper error: %v", err)
	}
}

// TestPersistError covers the message shape and errors.Is/As unwrapping that
// callers rely on to reach backend detail.
func TestPersistError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	var err error = &PersistError{Kind: "mysql", Table: "products", Err: cause}

	if got := err.Error(); !strings.Contains(got, "mysql") || !strings.Contains(got, "products") {
		t.Fatalf("Error()=%q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is failed to reach the cause")
	}
	var pe *PersistError
	if !errors.As(err, &pe) || pe.Kind != "mysql" {
		t.Fatalf("errors.As: %#v", pe)
	}
}
