// Package schema defines the declarative field descriptors a serializer
// validates against, and the ordered, immutable Schema built from them.
//
// A Schema is declared once (builder style, no reflection) and is safe to
// share read-only across serializers validating different frames.
package schema

import (
	"fmt"
	"strings"
)

// SchemaError is the fatal, non-recoverable class of validation failures:
// a malformed schema declaration, a missing required source column, or a
// malformed input frame. Data-quality problems never use this type; they are
// accumulated per row in the error report instead.
type SchemaError struct {
	Field  string // offending field name, empty for frame-level problems
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: field %q: %s", e.Field, e.Reason)
}

// Schema is an ordered, immutable set of field descriptors.
type Schema struct {
	fields []Field
	byName map[string]int
}

// Builder accumulates field declarations for a Schema. Declaration order is
// preserved and becomes validation order.
type Builder struct {
	fields []Field
	err    error
}

// NewBuilder returns an empty schema builder.
func NewBuilder() *Builder { return &Builder{} }

// Add declares one field. Errors are deferred to Build so declarations can
// be chained.
func (b *Builder) Add(f Field) *Builder {
	if b.err != nil {
		return b
	}
	if err := f.check(); err != nil {
		b.err = err
		return b
	}
	b.fields = append(b.fields, f)
	return b
}

// Build finalizes the schema. It fails when any declaration was invalid or a
// field name is declared twice.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.fields) == 0 {
		return nil, &SchemaError{Reason: "no fields declared"}
	}
	s := &Schema{
		fields: make([]Field, len(b.fields)),
		byName: make(map[string]int, len(b.fields)),
	}
	copy(s.fields, b.fields)
	for i, f := range s.fields {
		if _, dup := s.byName[f.Name]; dup {
			return nil, &SchemaError{Field: f.Name, Reason: "declared twice"}
		}
		s.byName[f.Name] = i
	}
	return s, nil
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the descriptor declared under name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Names returns the declared field names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// check validates a single field declaration.
func (f Field) check() error {
	if strings.TrimSpace(f.Name) == "" {
		return &SchemaError{Reason: "field name must not be empty"}
	}
	switch f.Kind {
	case Char, Integer, Float, Boolean, Date, Datetime:
	default:
		return &SchemaError{Field: f.Name, Reason: fmt.Sprintf("unknown kind %q", f.Kind)}
	}
	if f.Default != nil && !f.AllowNull {
		// A default fills null cells; declaring one on a non-nullable field
		// hides data problems the field is supposed to report.
		return &SchemaError{Field: f.Name, Reason: "may not set a default unless allow_null"}
	}
	if f.MaxLength < 0 || f.MinLength < 0 {
		return &SchemaError{Field: f.Name, Reason: "length bounds must not be negative"}
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return &SchemaError{Field: f.Name, Reason: "min_length exceeds max_length"}
	}
	if f.MinValue != nil && f.MaxValue != nil && *f.MinValue > *f.MaxValue {
		return &SchemaError{Field: f.Name, Reason: "min exceeds max"}
	}
	if (f.Kind == Date || f.Kind == Datetime) && f.Layout == "" {
		return &SchemaError{Field: f.Name, Reason: "layout is required for date columns"}
	}
	return nil
}
