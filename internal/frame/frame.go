// Package frame implements the columnar container used throughout the
// validation pipeline: an ordered set of named columns of uniform length,
// where each column is a cell slice paired with a null bitmap.
//
// The container is deliberately small. It does not try to be a dataframe
// library; it only guarantees the invariants the serializer relies on:
//
//   - all columns in one frame share the same length,
//   - row index i refers to the same logical record in every column,
//   - nullness is tracked separately from cell values, so a cell can be
//     "null" without the value slice holding a meaningful sentinel.
package frame

import "fmt"

// Column is an ordered sequence of cells with a parallel null bitmap.
// A Column is created for a fixed length and never grows.
type Column struct {
	cells []any
	nulls *bitmap
}

// NewColumn returns an all-null column of length n.
func NewColumn(n int) *Column {
	c := &Column{
		cells: make([]any, n),
		nulls: newBitmap(n),
	}
	for i := 0; i < n; i++ {
		c.nulls.set(i)
	}
	return c
}

// ColumnOf builds a column from raw cell values. A nil value marks the cell
// as null.
func ColumnOf(values []any) *Column {
	c := &Column{
		cells: make([]any, len(values)),
		nulls: newBitmap(len(values)),
	}
	for i, v := range values {
		if v == nil {
			c.nulls.set(i)
			continue
		}
		c.cells[i] = v
	}
	return c
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.cells) }

// IsNull reports whether row i holds a null cell.
func (c *Column) IsNull(i int) bool { return c.nulls.has(i) }

// HasNulls reports whether any cell is null.
func (c *Column) HasNulls() bool { return c.nulls.any() }

// Value returns the cell at row i, or nil when the cell is null.
func (c *Column) Value(i int) any {
	if c.nulls.has(i) {
		return nil
	}
	return c.cells[i]
}

// Set stores v at row i and clears the null bit.
func (c *Column) Set(i int, v any) {
	c.cells[i] = v
	c.nulls.clear(i)
}

// SetNull marks row i as null and drops its cell value.
func (c *Column) SetNull(i int) {
	c.cells[i] = nil
	c.nulls.set(i)
}

// Map applies fn to every non-null cell and returns a new column of the same
// length. Null cells stay null. The receiver is not modified.
func (c *Column) Map(fn func(i int, v any) any) *Column {
	out := NewColumn(c.Len())
	for i := range c.cells {
		if c.nulls.has(i) {
			continue
		}
		out.Set(i, fn(i, c.cells[i]))
	}
	return out
}

// Clone returns a deep copy of the column structure. Cell values themselves
// are copied by reference.
func (c *Column) Clone() *Column {
	out := &Column{
		cells: make([]any, len(c.cells)),
		nulls: c.nulls.clone(),
	}
	copy(out.cells, c.cells)
	return out
}

// Values returns all cells as a plain slice with nil for null cells.
func (c *Column) Values() []any {
	out := make([]any, len(c.cells))
	for i := range c.cells {
		out[i] = c.Value(i)
	}
	return out
}

// Frame is an ordered collection of equal-length named columns.
type Frame struct {
	names []string
	cols  map[string]*Column
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{cols: map[string]*Column{}}
}

// SetColumn adds or replaces a named column. The first column fixes the frame
// length; later columns must match it.
func (f *Frame) SetColumn(name string, col *Column) error {
	if col == nil {
		return fmt.Errorf("frame: column %q is nil", name)
	}
	if len(f.names) > 0 {
		if n := f.Len(); col.Len() != n {
			return fmt.Errorf("frame: column %q has %d rows, frame has %d", name, col.Len(), n)
		}
	}
	if _, exists := f.cols[name]; !exists {
		f.names = append(f.names, name)
	}
	f.cols[name] = col
	return nil
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	c, ok := f.cols[name]
	return c, ok
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of rows (0 for an empty frame).
func (f *Frame) Len() int {
	if len(f.names) == 0 {
		return 0
	}
	return f.cols[f.names[0]].Len()
}

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.names) }

// Rows materializes the frame row-major over the given columns, in the order
// given; null cells become nil. This is the shape bulk writers consume.
// Unknown column names yield an error.
func (f *Frame) Rows(columns []string) ([][]any, error) {
	cols := make([]*Column, len(columns))
	for i, name := range columns {
		c, ok := f.cols[name]
		if !ok {
			return nil, fmt.Errorf("frame: no column %q", name)
		}
		cols[i] = c
	}
	n := f.Len()
	rows := make([][]any, n)
	for i := 0; i < n; i++ {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = c.Value(i)
		}
		rows[i] = row
	}
	return rows, nil
}
