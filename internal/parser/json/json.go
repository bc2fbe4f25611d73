// Package json parses JSON input into a frame. Two shapes are accepted: a
// top-level array of objects, and newline-delimited objects (NDJSON). Both
// are common export formats for bulk record dumps.
package json

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"tabular/internal/frame"
)

// Parse decodes objects from r and assembles them into a frame. Column order
// follows first appearance across the stream; records missing a key get a
// null cell there, and explicit JSON nulls stay null.
func Parse(r io.Reader) (*frame.Frame, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("json: empty input")
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var recs []map[string]any
	switch first {
	case '[':
		if _, err := dec.Token(); err != nil { // opening '['
			return nil, fmt.Errorf("json: %w", err)
		}
		for dec.More() {
			var m map[string]any
			if err := dec.Decode(&m); err != nil {
				return nil, fmt.Errorf("json: record %d: %w", len(recs), err)
			}
			recs = append(recs, m)
		}
		if _, err := dec.Token(); err != nil { // closing ']'
			return nil, fmt.Errorf("json: closing array: %w", err)
		}
	case '{':
		// NDJSON / concatenated objects.
		for {
			var m map[string]any
			if err := dec.Decode(&m); err == io.EOF {
				break
			} else if err != nil {
				return nil, fmt.Errorf("json: record %d: %w", len(recs), err)
			}
			recs = append(recs, m)
		}
	default:
		return nil, fmt.Errorf("json: top-level value must be an array or object stream")
	}

	return fromRecords(recs)
}

// peekNonSpace returns the first non-whitespace byte without consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

// fromRecords pivots row-major records into columns. Column order is the
// sorted key set of each record, in record order of first appearance, which
// is deterministic for a given input (Go map iteration is not).
func fromRecords(recs []map[string]any) (*frame.Frame, error) {
	var names []string
	index := map[string]int{}
	for _, rec := range recs {
		for _, k := range sortedKeys(rec) {
			if _, ok := index[k]; !ok {
				index[k] = len(names)
				names = append(names, k)
			}
		}
	}

	cells := make([][]any, len(names))
	for j := range cells {
		cells[j] = make([]any, len(recs))
	}
	for i, rec := range recs {
		for k, v := range rec {
			cells[index[k]][i] = normalizeValue(v)
		}
	}

	f := frame.New()
	for j, name := range names {
		if err := f.SetColumn(name, frame.ColumnOf(cells[j])); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
	}
	return f, nil
}

// normalizeValue converts json.Number into int64 when integral, float64
// otherwise, so numeric cells arrive typed for coercion.
func normalizeValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if fv, err := n.Float64(); err == nil {
		return fv
	}
	return n.String()
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
