// Package config defines the JSON-serializable job model for the bulk
// loader: where the input table comes from, the declared schema it must
// satisfy, the uniqueness constraints, and the storage sink. Decoding is
// plain encoding/json; a light static validator reports problems before a
// job runs.
package config

import (
	"tabular/internal/schema"
)

// Job describes one ingestion job: validate a table against a schema and
// persist it.
type Job struct {
	// Name identifies the job in logs and metrics labels.
	Name string `json:"name"`

	// Source describes where the input table comes from.
	Source Source `json:"source"`

	// Fields declares the schema, in validation order.
	Fields []FieldSpec `json:"fields"`

	// Unique lists uniqueness constraints, one field set per entry, checked
	// intra-batch after field validation.
	Unique [][]string `json:"unique,omitempty"`

	// Storage describes where validated rows are written.
	Storage Storage `json:"storage"`

	// Metrics selects an optional metrics backend.
	Metrics Metrics `json:"metrics"`
}

// Source identifies the input data source.
type Source struct {
	// Kind selects the source implementation. Current value: "file".
	Kind string `json:"kind"`

	// Path is the local filesystem path to the input file.
	Path string `json:"path"`

	// Format selects the parser: "csv" or "json".
	Format string `json:"format"`

	// CSV carries options for the csv format.
	CSV CSVOptions `json:"csv"`
}

// CSVOptions mirrors the csv parser's knobs.
type CSVOptions struct {
	Comma      string            `json:"comma,omitempty"`
	TrimSpace  bool              `json:"trim_space,omitempty"`
	LazyQuotes bool              `json:"lazy_quotes,omitempty"`
	HeaderMap  map[string]string `json:"header_map,omitempty"`
}

// FieldSpec is the JSON form of a schema field declaration.
type FieldSpec struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Source     string   `json:"source,omitempty"`
	Required   bool     `json:"required,omitempty"`
	Nullable   bool     `json:"nullable,omitempty"`
	Default    any      `json:"default,omitempty"`
	MaxLength  int      `json:"max_length,omitempty"`
	MinLength  int      `json:"min_length,omitempty"`
	AllowBlank bool     `json:"allow_blank,omitempty"`
	Enum       []string `json:"enum,omitempty"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
	Layout     string   `json:"layout,omitempty"` // date layout
	Truthy     []string `json:"truthy,omitempty"` // bool parsing
	Falsy      []string `json:"falsy,omitempty"`
}

// Storage selects the sink used to persist validated rows.
type Storage struct {
	// Kind selects the storage backend ("postgres", "mysql", "mssql",
	// "sqlite").
	Kind string `json:"kind"`

	// Policy is the conflict policy: "insert" or "upsert".
	Policy string `json:"policy,omitempty"`

	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the backend connection string.
	DSN string `json:"dsn"`

	// Table is the target table (fully qualified where supported).
	Table string `json:"table"`

	// KeyColumns form the unique key used for upsert conflict resolution
	// and the bootstrap unique constraint.
	KeyColumns []string `json:"key_columns,omitempty"`

	// AutoCreateTable creates the target table from the declared schema
	// before the first write.
	AutoCreateTable bool `json:"auto_create_table,omitempty"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	// Backend: "pushgateway", "datadog" or "none".
	Backend string `json:"backend,omitempty"`

	// PushgatewayURL is the Prometheus Pushgateway base URL.
	PushgatewayURL string `json:"pushgateway_url,omitempty"`

	// StatsdAddr is the DogStatsD address, e.g. "127.0.0.1:8125".
	StatsdAddr string `json:"statsd_addr,omitempty"`
}

// Schema builds the immutable schema declared by the job's field specs.
func (j Job) Schema() (*schema.Schema, error) {
	b := schema.NewBuilder()
	for _, fs := range j.Fields {
		kind, err := schema.ParseKind(fs.Type)
		if err != nil {
			return nil, &schema.SchemaError{Field: fs.Name, Reason: err.Error()}
		}
		b.Add(schema.Field{
			Name:       fs.Name,
			Source:     fs.Source,
			Kind:       kind,
			Required:   fs.Required,
			AllowNull:  fs.Nullable,
			Default:    fs.Default,
			MaxLength:  fs.MaxLength,
			MinLength:  fs.MinLength,
			AllowBlank: fs.AllowBlank,
			Enum:       fs.Enum,
			MinValue:   fs.Min,
			MaxValue:   fs.Max,
			Layout:     fs.Layout,
			Truthy:     fs.Truthy,
			Falsy:      fs.Falsy,
		})
	}
	return b.Build()
}
