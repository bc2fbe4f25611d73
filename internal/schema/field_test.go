package schema

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"tabular/internal/frame"
)

/*
TestFieldValidate_NullPolicy verifies the null resolution order on a single
column:
  - a declared default fills nulls before the null check,
  - allow_null lets nulls survive into the output,
  - otherwise the row gets a "<name> is required" error,
  - empty and whitespace-only strings count as nulls.
*/
func TestFieldValidate_NullPolicy(t *testing.T) {
	t.Parallel()

	col := frame.ColumnOf([]any{"5", nil, "", "   "})

	// Default fills every null-ish cell.
	withDefault := Field{Name: "n", Kind: Integer, AllowNull: true, Default: int64(7)}
	out, errs := withDefault.Validate(col)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !reflect.DeepEqual(out.Values(), []any{int64(5), int64(7), int64(7), int64(7)}) {
		t.Fatalf("values=%#v", out.Values())
	}

	// allow_null keeps nulls.
	nullable := Field{Name: "n", Kind: Integer, AllowNull: true}
	out, errs = nullable.Validate(col)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !reflect.DeepEqual(out.Values(), []any{int64(5), nil, nil, nil}) {
		t.Fatalf("values=%#v", out.Values())
	}

	// Neither: rows 1..3 are required-errors, row 0 still coerces.
	strict := Field{Name: "n", Kind: Integer}
	out, errs = strict.Validate(col)
	if len(errs) != 3 {
		t.Fatalf("errs=%v, want 3 entries", errs)
	}
	for _, row := range []int{1, 2, 3} {
		if errs[row] != "n is required" {
			t.Fatalf("errs[%d]=%q", row, errs[row])
		}
	}
	if out.Value(0) != int64(5) {
		t.Fatalf("row 0 should still coerce: %#v", out.Value(0))
	}
}

/*
TestFieldValidate_Coercion exercises per-kind coercion on mixed input types.
A failing cell yields "<name> is not a valid <kind>" and stays null; it never
stops the remaining cells.
*/
func TestFieldValidate_Coercion(t *testing.T) {
	t.Parallel()

	t.Run("integer", func(t *testing.T) {
		t.Parallel()
		f := Field{Name: "id", Kind: Integer}
		out, errs := f.Validate(frame.ColumnOf([]any{" 42 ", 7, float64(3), float64(3.5), "x"}))
		if !reflect.DeepEqual(out.Values(), []any{int64(42), int64(7), int64(3), nil, nil}) {
			t.Fatalf("values=%#v", out.Values())
		}
		if errs[3] != "id is not a valid integer" || errs[4] != "id is not a valid integer" {
			t.Fatalf("errs=%v", errs)
		}
	})

	t.Run("float", func(t *testing.T) {
		t.Parallel()
		f := Field{Name: "p", Kind: Float}
		out, errs := f.Validate(frame.ColumnOf([]any{"1.5", 2, "abc"}))
		if !reflect.DeepEqual(out.Values(), []any{1.5, float64(2), nil}) {
			t.Fatalf("values=%#v", out.Values())
		}
		if errs[2] != "p is not a valid float" {
			t.Fatalf("errs=%v", errs)
		}
	})

	t.Run("boolean defaults", func(t *testing.T) {
		t.Parallel()
		f := Field{Name: "b", Kind: Boolean}
		out, errs := f.Validate(frame.ColumnOf([]any{"YES", "f", true, 0, "maybe"}))
		if !reflect.DeepEqual(out.Values(), []any{true, false, true, false, nil}) {
			t.Fatalf("values=%#v", out.Values())
		}
		if len(errs) != 1 || errs[4] == "" {
			t.Fatalf("errs=%v", errs)
		}
	})

	t.Run("boolean custom vocab", func(t *testing.T) {
		t.Parallel()
		f := Field{Name: "b", Kind: Boolean, Truthy: []string{"ano"}, Falsy: []string{"ne"}}
		out, errs := f.Validate(frame.ColumnOf([]any{"ANO", "ne", "true"}))
		// Custom vocabularies replace the default sets entirely.
		if !reflect.DeepEqual(out.Values(), []any{true, false, nil}) {
			t.Fatalf("values=%#v", out.Values())
		}
		if len(errs) != 1 {
			t.Fatalf("errs=%v", errs)
		}
	})

	t.Run("char", func(t *testing.T) {
		t.Parallel()
		f := Field{Name: "s", Kind: Char}
		out, _ := f.Validate(frame.ColumnOf([]any{" hi ", 12, float64(3), 3.5, true}))
		// Integral floats render without the trailing ".0".
		if !reflect.DeepEqual(out.Values(), []any{"hi", "12", "3", "3.5", "true"}) {
			t.Fatalf("values=%#v", out.Values())
		}

		raw := Field{Name: "s", Kind: Char, NoTrim: true}
		out, _ = raw.Validate(frame.ColumnOf([]any{" hi "}))
		if out.Value(0) != " hi " {
			t.Fatalf("NoTrim value=%#v", out.Value(0))
		}
	})

	t.Run("date", func(t *testing.T) {
		t.Parallel()
		f := Field{Name: "d", Kind: Date, Layout: "02.01.2006"}
		out, errs := f.Validate(frame.ColumnOf([]any{"09.11.2025", "2025-11-09", "11/09/25"}))
		want := time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC)
		if got := out.Value(0); !got.(time.Time).Equal(want) {
			t.Fatalf("field layout: %v", got)
		}
		if got := out.Value(1); !got.(time.Time).Equal(want) {
			t.Fatalf("ISO fallback: %v", got)
		}
		if errs[2] != "d is not a valid date" {
			t.Fatalf("errs=%v", errs)
		}
	})

	t.Run("date keeps local day", func(t *testing.T) {
		t.Parallel()
		// A zoned timestamp early in the local day sits on the previous
		// day in UTC; the date must follow the calendar, not the timeline.
		f := Field{Name: "d", Kind: Date, Layout: time.RFC3339}
		out, errs := f.Validate(frame.ColumnOf([]any{"2025-11-09T01:00:00+07:00"}))
		if len(errs) != 0 {
			t.Fatalf("errs=%v", errs)
		}
		want := time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC)
		if got := out.Value(0).(time.Time); !got.Equal(want) {
			t.Fatalf("date=%v, want %v", got, want)
		}
	})

	t.Run("datetime", func(t *testing.T) {
		t.Parallel()
		f := Field{Name: "ts", Kind: Datetime, Layout: time.RFC3339}
		out, errs := f.Validate(frame.ColumnOf([]any{"2025-11-09T10:30:00Z"}))
		if len(errs) != 0 {
			t.Fatalf("errs=%v", errs)
		}
		got := out.Value(0).(time.Time)
		if got.Hour() != 10 || got.Minute() != 30 {
			t.Fatalf("datetime=%v", got)
		}
	})
}

/*
TestFieldValidate_Bounds checks post-coercion constraints: blank policy,
length bounds, enum membership, numeric range. Each failure is a per-row
message, worded like the ones user-facing reports carry.
*/
func TestFieldValidate_Bounds(t *testing.T) {
	t.Parallel()

	t.Run("lengths and enum", func(t *testing.T) {
		t.Parallel()
		f := Field{Name: "st", Kind: Char, MaxLength: 4, MinLength: 2, Enum: []string{"new", "done"}}
		_, errs := f.Validate(frame.ColumnOf([]any{"new", "x", "toolong", "nope"}))
		if len(errs) != 3 {
			t.Fatalf("errs=%v", errs)
		}
		if !strings.Contains(errs[1], "at least 2 characters") {
			t.Fatalf("errs[1]=%q", errs[1])
		}
		if !strings.Contains(errs[2], "no more than 4 characters") {
			t.Fatalf("errs[2]=%q", errs[2])
		}
		if !strings.Contains(errs[3], "not in") {
			t.Fatalf("errs[3]=%q", errs[3])
		}
	})

	t.Run("blank", func(t *testing.T) {
		t.Parallel()
		// A whitespace default trims down to the empty string, which the
		// blank policy rejects unless AllowBlank is set.
		f := Field{Name: "s", Kind: Char, AllowNull: true, Default: "  "}
		_, errs := f.Validate(frame.ColumnOf([]any{nil}))
		if !strings.Contains(errs[0], "may not be blank") {
			t.Fatalf("errs=%v", errs)
		}

		blankOK := Field{Name: "s", Kind: Char, AllowNull: true, Default: "", AllowBlank: true}
		out, errs := blankOK.Validate(frame.ColumnOf([]any{nil}))
		if len(errs) != 0 || out.Value(0) != "" {
			t.Fatalf("AllowBlank: out=%#v errs=%v", out.Value(0), errs)
		}
	})

	t.Run("blank input cells", func(t *testing.T) {
		t.Parallel()
		// An explicit "" cell in a blank-allowing char field is data, not
		// a missing value: it survives as the empty string even though the
		// field has no default and forbids nulls. Whitespace-only cells
		// trim down to the same blank.
		f := Field{Name: "s", Kind: Char, AllowBlank: true}
		out, errs := f.Validate(frame.ColumnOf([]any{"", "   ", "x"}))
		if len(errs) != 0 {
			t.Fatalf("errs=%v", errs)
		}
		if !reflect.DeepEqual(out.Values(), []any{"", "", "x"}) {
			t.Fatalf("values=%#v", out.Values())
		}

		// Without AllowBlank the same cells still count as missing.
		strict := Field{Name: "s", Kind: Char}
		_, errs = strict.Validate(frame.ColumnOf([]any{""}))
		if errs[0] != "s is required" {
			t.Fatalf("errs=%v", errs)
		}
	})

	t.Run("numeric range", func(t *testing.T) {
		t.Parallel()
		lo, hi := 0.0, 100.0
		f := Field{Name: "pct", Kind: Float, MinValue: &lo, MaxValue: &hi}
		_, errs := f.Validate(frame.ColumnOf([]any{"50", "-1", "101"}))
		if len(errs) != 2 {
			t.Fatalf("errs=%v", errs)
		}
		if !strings.Contains(errs[1], "greater than or equal to 0") {
			t.Fatalf("errs[1]=%q", errs[1])
		}
		if !strings.Contains(errs[2], "less than or equal to 100") {
			t.Fatalf("errs[2]=%q", errs[2])
		}

		i := Field{Name: "n", Kind: Integer, MaxValue: &hi}
		_, errs = i.Validate(frame.ColumnOf([]any{"500"}))
		if len(errs) != 1 {
			t.Fatalf("integer range errs=%v", errs)
		}
	})
}
