// Package csv parses CSV input into the columnar frame the serializer
// validates. Cells stay strings; type coercion is the schema's job. Empty
// cells become nulls so nullability policy is decided by field declarations,
// not by the parser.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"tabular/internal/frame"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// Options configures the CSV parser. All fields are optional.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims surrounding ASCII space from every cell.
	TrimSpace bool

	// HeaderMap renames source headers to canonical column names
	// (e.g. localized headers to snake_case).
	HeaderMap map[string]string

	// LazyQuotes relaxes quote handling for real-world exports with stray
	// quotes inside fields.
	LazyQuotes bool
}

// Parser parses CSV input according to Options. A Parser is reusable across
// inputs but not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the whole input into a frame. The first row is the header;
// every data row must have the same width as the header. Input text is
// normalized to NFC so visually identical keys compare equal downstream.
func (p *Parser) Parse(r io.Reader) (*frame.Frame, error) {
	cr := csv.NewReader(norm.NFC.Reader(r))
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	names := p.headerNames(header)
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("csv: duplicate header %q", n)
		}
		seen[n] = struct{}{}
	}

	cells := make([][]any, len(names))
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", row+1, err)
		}
		if len(rec) != len(names) {
			return nil, fmt.Errorf("csv: row %d has %d fields, header has %d", row+1, len(rec), len(names))
		}
		for j, v := range rec {
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				cells[j] = append(cells[j], nil)
			} else {
				cells[j] = append(cells[j], v)
			}
		}
		row++
	}

	f := frame.New()
	for j, name := range names {
		if err := f.SetColumn(name, frame.ColumnOf(cells[j])); err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
	}
	return f, nil
}

// headerNames strips the BOM, trims, and applies the header map.
func (p *Parser) headerNames(header []string) []string {
	names := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if canonical, ok := p.opt.HeaderMap[h]; ok {
			h = canonical
		}
		names[i] = h
	}
	return names
}
