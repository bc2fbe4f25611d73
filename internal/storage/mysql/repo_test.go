package mysql

import (
	"strings"
	"testing"

	"tabular/internal/schema"
	"tabular/internal/storage"
)

// TestInsertSQL_MultiRow renders one placeholder tuple per row so a chunk is
// written in a single round trip.
func TestInsertSQL_MultiRow(t *testing.T) {
	t.Parallel()

	got := InsertSQL("products", []string{"id", "name"}, nil, storage.InsertOnly, 3)
	want := "INSERT INTO products (`id`, `name`) VALUES (?, ?), (?, ?), (?, ?)"
	if got != want {
		t.Fatalf("InsertSQL:\n got %s\nwant %s", got, want)
	}
}

// TestInsertSQL_Upsert appends ON DUPLICATE KEY UPDATE for the non-key
// columns; when every column is a key it touches one key to keep the
// statement valid without changing data.
func TestInsertSQL_Upsert(t *testing.T) {
	t.Parallel()

	got := InsertSQL("products", []string{"id", "name", "price"}, []string{"id"}, storage.Upsert, 1)
	want := "INSERT INTO products (`id`, `name`, `price`) VALUES (?, ?, ?)" +
		" ON DUPLICATE KEY UPDATE `name` = VALUES(`name`), `price` = VALUES(`price`)"
	if got != want {
		t.Fatalf("InsertSQL:\n got %s\nwant %s", got, want)
	}

	got = InsertSQL("m", []string{"a"}, []string{"a"}, storage.Upsert, 1)
	if !strings.HasSuffix(got, "ON DUPLICATE KEY UPDATE `a` = `a`") {
		t.Fatalf("all-key InsertSQL = %s", got)
	}
}

// TestCreateTableSQL verifies the MySQL type mapping, in particular that
// unbounded strings become VARCHAR(255) so they stay keyable, and that key
// columns get a UNIQUE KEY.
func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	sch, err := schema.NewBuilder().
		Add(schema.Field{Name: "id", Kind: schema.Integer}).
		Add(schema.Field{Name: "code", Kind: schema.Char, MaxLength: 16}).
		Add(schema.Field{Name: "name", Kind: schema.Char, AllowNull: true}).
		Add(schema.Field{Name: "price", Kind: schema.Float, AllowNull: true}).
		Add(schema.Field{Name: "active", Kind: schema.Boolean, AllowNull: true}).
		Add(schema.Field{Name: "day", Kind: schema.Date, Layout: "2006-01-02", AllowNull: true}).
		Add(schema.Field{Name: "seen", Kind: schema.Datetime, Layout: "2006-01-02", AllowNull: true}).
		Build()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	got := CreateTableSQL(sch, storage.Config{Table: "products", KeyColumns: []string{"id", "code"}})
	want := "CREATE TABLE IF NOT EXISTS products (" +
		"`id` BIGINT NOT NULL, " +
		"`code` VARCHAR(16) NOT NULL, " +
		"`name` VARCHAR(255), " +
		"`price` DOUBLE, " +
		"`active` TINYINT(1), " +
		"`day` DATE, " +
		"`seen` DATETIME, " +
		"UNIQUE KEY (`id`, `code`))"
	if got != want {
		t.Fatalf("CreateTableSQL:\n got %s\nwant %s", got, want)
	}
}
