package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tabular/internal/frame"
)

// Kind is the logical type a field coerces its column to.
type Kind string

const (
	Char     Kind = "char"
	Integer  Kind = "integer"
	Float    Kind = "float"
	Boolean  Kind = "boolean"
	Date     Kind = "date"
	Datetime Kind = "datetime"
)

// ParseKind maps database-ish and loosely spelled type names onto a Kind,
// e.g. "bigint", "int8" and "int" all mean Integer.
func ParseKind(t string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "char", "text", "string", "str", "varchar":
		return Char, nil
	case "integer", "int", "bigint", "int8", "int4", "int2", "smallint":
		return Integer, nil
	case "float", "double", "real", "numeric":
		return Float, nil
	case "boolean", "bool":
		return Boolean, nil
	case "date":
		return Date, nil
	case "datetime", "timestamp", "timestamptz":
		return Datetime, nil
	default:
		return "", fmt.Errorf("unknown field type %q", t)
	}
}

// Field declares the expected type, constraints and null policy for one
// column. The zero value is not usable; fields are checked when the schema
// is built.
type Field struct {
	// Name is the output column name.
	Name string

	// Source is the input column to read; defaults to Name when empty.
	Source string

	Kind Kind

	// Required fields must be present in the input frame; a missing source
	// column is a schema error. Non-required fields are skipped when absent.
	Required bool

	// AllowNull permits null cells to survive into the coerced column.
	AllowNull bool

	// Default fills null cells before the null check. Only valid together
	// with AllowNull.
	Default any

	// Char constraints.
	MaxLength  int
	MinLength  int
	AllowBlank bool
	NoTrim     bool // keep surrounding whitespace; trimming is the default
	Enum       []string

	// Numeric bounds, checked after coercion.
	MinValue *float64
	MaxValue *float64

	// Date/Datetime layout (Go reference layout). ISO 8601 is always tried
	// as a fallback.
	Layout string

	// Boolean vocabularies. Empty means the default truthy/falsy sets.
	Truthy []string
	Falsy  []string
}

// SourceName returns the input column this field reads from.
func (f Field) SourceName() string {
	if f.Source != "" {
		return f.Source
	}
	return f.Name
}

// default boolean vocabularies, lowercased.
var (
	defaultTruthy = map[string]struct{}{
		"1": {}, "t": {}, "true": {}, "yes": {}, "y": {},
	}
	defaultFalsy = map[string]struct{}{
		"0": {}, "f": {}, "false": {}, "no": {}, "n": {},
	}
)

// Validate coerces every cell of col to the field's kind and checks the
// declared constraints. It returns the coerced column and a row-indexed error
// map; a failing cell is reported and left null in the output, it never stops
// the remaining cells from being processed.
func (f Field) Validate(col *frame.Column) (*frame.Column, map[int]string) {
	n := col.Len()
	out := frame.NewColumn(n)
	errs := map[int]string{}

	for i := 0; i < n; i++ {
		v := col.Value(i)

		// Empty strings count as missing, same as genuine nulls. Char
		// fields that allow blanks keep them as data instead.
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			if f.Kind != Char || !f.AllowBlank {
				v = nil
			}
		}

		if v == nil {
			switch {
			case f.Default != nil:
				v = f.Default
			case f.AllowNull:
				continue // stays null in out
			default:
				errs[i] = fmt.Sprintf("%s is required", f.Name)
				continue
			}
		}

		cv, err := f.coerce(v)
		if err != nil {
			errs[i] = fmt.Sprintf("%s is not a valid %s", f.Name, f.Kind)
			continue
		}
		if msg := f.checkBounds(cv); msg != "" {
			errs[i] = msg
			continue
		}
		out.Set(i, cv)
	}
	return out, errs
}

// coerce converts a single non-null cell to the field's kind.
func (f Field) coerce(v any) (any, error) {
	switch f.Kind {
	case Integer:
		return coerceInt(v)
	case Float:
		return coerceFloat(v)
	case Boolean:
		return f.coerceBool(v)
	case Char:
		return f.coerceChar(v)
	case Date:
		t, err := f.coerceTime(v)
		if err != nil {
			return nil, err
		}
		// Drop the time of day by calendar date, not by truncating the
		// absolute timestamp: a zoned input must keep its local day.
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case Datetime:
		return f.coerceTime(v)
	}
	return nil, fmt.Errorf("unknown kind %q", f.Kind)
}

func coerceInt(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		// JSON numbers arrive as float64; only integral values qualify.
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("not integral: %v", t)
		}
		return int64(t), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	default:
		return 0, fmt.Errorf("type %T not int-convertible", v)
	}
}

func coerceFloat(v any) (float64, error) {
	switch t := v.(type) {
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float32:
		return float64(t), nil
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("type %T not float-convertible", v)
	}
}

func (f Field) coerceBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if len(f.Truthy) > 0 || len(f.Falsy) > 0 {
			for _, w := range f.Truthy {
				if s == strings.ToLower(w) {
					return true, nil
				}
			}
			for _, w := range f.Falsy {
				if s == strings.ToLower(w) {
					return false, nil
				}
			}
			return false, fmt.Errorf("%q not in truthy/falsy sets", t)
		}
		if _, ok := defaultTruthy[s]; ok {
			return true, nil
		}
		if _, ok := defaultFalsy[s]; ok {
			return false, nil
		}
		return false, fmt.Errorf("%q not a recognized boolean", t)
	case int:
		return t != 0, nil
	case int64:
		return t != 0, nil
	case float64:
		return t != 0, nil
	default:
		return false, fmt.Errorf("type %T not bool-convertible", v)
	}
}

func (f Field) coerceChar(v any) (string, error) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case float64:
		// Integral floats render without the trailing ".0" so numeric ids
		// read from loosely typed sources stay stable.
		if t == float64(int64(t)) {
			s = strconv.FormatInt(int64(t), 10)
		} else {
			s = strconv.FormatFloat(t, 'g', -1, 64)
		}
	case bool:
		s = strconv.FormatBool(t)
	default:
		return "", fmt.Errorf("type %T not string-convertible", v)
	}
	if !f.NoTrim {
		s = strings.TrimSpace(s)
	}
	return s, nil
}

func (f Field) coerceTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if f.Layout != "" {
			if ts, err := time.Parse(f.Layout, s); err == nil {
				return ts, nil
			}
		}
		// ISO fallbacks.
		if ts, err := time.Parse("2006-01-02", s); err == nil {
			return ts, nil
		}
		return time.Parse(time.RFC3339, s)
	default:
		return time.Time{}, fmt.Errorf("type %T not date-convertible", v)
	}
}

// checkBounds validates length, range and enum constraints on a coerced cell.
func (f Field) checkBounds(v any) string {
	switch t := v.(type) {
	case string:
		if t == "" && !f.AllowBlank {
			return fmt.Sprintf("%s may not be blank", f.Name)
		}
		if f.MaxLength > 0 && len(t) > f.MaxLength {
			return fmt.Sprintf("ensure %s values have no more than %d characters", f.Name, f.MaxLength)
		}
		if f.MinLength > 0 && len(t) < f.MinLength {
			return fmt.Sprintf("ensure %s values have at least %d characters", f.Name, f.MinLength)
		}
		if len(f.Enum) > 0 {
			for _, e := range f.Enum {
				if t == e {
					return ""
				}
			}
			return fmt.Sprintf("%s value %q is not in %v", f.Name, t, f.Enum)
		}
	case int64:
		return f.checkRange(float64(t))
	case float64:
		return f.checkRange(t)
	}
	return ""
}

func (f Field) checkRange(v float64) string {
	if f.MaxValue != nil && v > *f.MaxValue {
		return fmt.Sprintf("ensure %s values are less than or equal to %v", f.Name, *f.MaxValue)
	}
	if f.MinValue != nil && v < *f.MinValue {
		return fmt.Sprintf("ensure %s values are greater than or equal to %v", f.Name, *f.MinValue)
	}
	return ""
}
