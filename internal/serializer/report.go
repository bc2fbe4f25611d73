package serializer

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Report accumulates validation failures for one pass: per-row, per-field
// messages plus table-level messages. An empty report is equivalent to
// "valid". Reports are never shared across validation calls.
type Report struct {
	rows  map[int]map[string]string
	table []string
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{rows: map[int]map[string]string{}}
}

// AddRow records a failure for one field at one row. The first message per
// (row, field) wins; field validation emits at most one message per cell.
func (r *Report) AddRow(row int, field, msg string) {
	m, ok := r.rows[row]
	if !ok {
		m = map[string]string{}
		r.rows[row] = m
	}
	if _, exists := m[field]; !exists {
		m[field] = msg
	}
}

// MergeField records a whole field's row-indexed error map.
func (r *Report) MergeField(field string, errs map[int]string) {
	for row, msg := range errs {
		r.AddRow(row, field, msg)
	}
}

// AddTable records a table-level failure.
func (r *Report) AddTable(msg string) {
	r.table = append(r.table, msg)
}

// Empty reports whether the pass produced no failures at all.
func (r *Report) Empty() bool {
	return len(r.rows) == 0 && len(r.table) == 0
}

// Rows returns the failing row indices in ascending order.
func (r *Report) Rows() []int {
	out := make([]int, 0, len(r.rows))
	for i := range r.rows {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Row returns the field → message map for one row, or nil when the row
// passed every check.
func (r *Report) Row(i int) map[string]string {
	m, ok := r.rows[i]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Table returns the table-level messages in the order they were recorded.
func (r *Report) Table() []string {
	out := make([]string, len(r.table))
	copy(out, r.table)
	return out
}

// MarshalJSON renders the report as a plain nested mapping:
//
//	{"rows": {"0": {"name": "name is required"}}, "table": ["..."]}
func (r *Report) MarshalJSON() ([]byte, error) {
	rows := make(map[string]map[string]string, len(r.rows))
	for i, m := range r.rows {
		rows[strconv.Itoa(i)] = m
	}
	return json.Marshal(struct {
		Rows  map[string]map[string]string `json:"rows,omitempty"`
		Table []string                     `json:"table,omitempty"`
	}{Rows: rows, Table: r.table})
}
