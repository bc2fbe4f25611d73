package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"tabular/internal/config"
)

func writeSource(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestParseSource_MultiByteDelimiter verifies a configured delimiter is read
// as a whole rune: a multi-byte separator like "§" must split columns, not
// turn into its leading byte.
func TestParseSource_MultiByteDelimiter(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "in.csv", "id§name\n1§ada\n2§bob\n")
	job := config.Job{Source: config.Source{
		Kind:   "file",
		Path:   path,
		Format: "csv",
		CSV:    config.CSVOptions{Comma: "§"},
	}}

	f, err := parseSource(job)
	if err != nil {
		t.Fatalf("parseSource: %v", err)
	}
	if got := f.Names(); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Fatalf("names=%v", got)
	}
	rows, err := f.Rows([]string{"id", "name"})
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	want := [][]any{{"1", "ada"}, {"2", "bob"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows=%#v", rows)
	}
}

// TestParseSource_Errors covers the unsupported kind and format branches.
func TestParseSource_Errors(t *testing.T) {
	t.Parallel()

	if _, err := parseSource(config.Job{Source: config.Source{Kind: "s3"}}); err == nil {
		t.Fatal("want error for unsupported source kind")
	}

	path := writeSource(t, "in.xml", "<rows/>")
	job := config.Job{Source: config.Source{Kind: "file", Path: path, Format: "xml"}}
	if _, err := parseSource(job); err == nil {
		t.Fatal("want error for unsupported format")
	}
}
