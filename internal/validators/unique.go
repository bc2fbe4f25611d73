package validators

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"tabular/internal/frame"
)

// UniqueTogether checks that no two rows share the same tuple of values
// across Fields. Uniqueness is intra-batch only: it never consults the
// datastore. The storage layer's own unique constraints remain an
// independent, second line of defense.
type UniqueTogether struct {
	Fields []string
}

// Unique is shorthand for a UniqueTogether over the given fields.
func Unique(fields ...string) UniqueTogether {
	return UniqueTogether{Fields: fields}
}

// Validate groups row indices by the xxh3 hash of their key tuple and emits
// one error per colliding group, naming the field set and the row indices
// involved. Rows with a null in any key field are excluded from the
// uniqueness domain; field validation already decides whether nulls are legal
// there.
func (u UniqueTogether) Validate(f *frame.Frame) []string {
	if len(u.Fields) == 0 {
		return nil
	}
	cols := make([]*frame.Column, len(u.Fields))
	for i, name := range u.Fields {
		c, ok := f.Column(name)
		if !ok {
			return []string{fmt.Sprintf("unique check references unknown column %q", name)}
		}
		cols[i] = c
	}

	groups := map[uint64][]int{}
	order := []uint64{}
	var key, cell []byte
	for row := 0; row < f.Len(); row++ {
		key = key[:0]
		skip := false
		for _, c := range cols {
			v := c.Value(row)
			if v == nil {
				skip = true
				break
			}
			// Length-prefix each component so field boundaries cannot
			// shift, whatever bytes the values carry.
			cell = appendCell(cell[:0], v)
			key = binary.AppendUvarint(key, uint64(len(cell)))
			key = append(key, cell...)
		}
		if skip {
			continue
		}
		h := xxh3.Hash(key)
		if _, seen := groups[h]; !seen {
			order = append(order, h)
		}
		groups[h] = append(groups[h], row)
	}

	var out []string
	for _, h := range order {
		rows := groups[h]
		if len(rows) < 2 {
			continue
		}
		sort.Ints(rows)
		out = append(out, fmt.Sprintf(
			"values are not unique for (%s): rows %v",
			strings.Join(u.Fields, ", "), rows,
		))
	}
	return out
}

// appendCell writes a stable byte form of a coerced cell. Coerced columns
// only carry the types produced by field coercion.
func appendCell(b []byte, v any) []byte {
	switch t := v.(type) {
	case string:
		return append(b, t...)
	case int64:
		return fmt.Appendf(b, "%d", t)
	case float64:
		return fmt.Appendf(b, "%g", t)
	case bool:
		if t {
			return append(b, 't')
		}
		return append(b, 'f')
	case time.Time:
		return t.AppendFormat(b, time.RFC3339Nano)
	default:
		return fmt.Append(b, t)
	}
}
