package csv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParse_Basic: the first row names columns, data cells stay strings, and
// empty cells become nulls so nullability is decided by field declarations.
func TestParse_Basic(t *testing.T) {
	t.Parallel()

	in := "id,name,price\n1,usb cable,9.99\n2,,\n"
	f, err := NewParser(Options{}).Parse(strings.NewReader(in))
	require.NoError(t, err)

	require.Equal(t, []string{"id", "name", "price"}, f.Names())
	require.Equal(t, 2, f.Len())

	name, ok := f.Column("name")
	require.True(t, ok)
	require.Equal(t, []any{"usb cable", nil}, name.Values())

	price, _ := f.Column("price")
	require.True(t, price.IsNull(1))
}

// TestParse_BOMAndHeaderMap: a UTF-8 BOM on the first header is stripped and
// the header map renames source headers to canonical column names.
func TestParse_BOMAndHeaderMap(t *testing.T) {
	t.Parallel()

	in := "\ufeffProduct ID, Name \n1,a\n"
	f, err := NewParser(Options{
		HeaderMap: map[string]string{"Product ID": "product_id", "Name": "name"},
	}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []string{"product_id", "name"}, f.Names())
}

// TestParse_Delimiter: a custom comma parses semicolon exports.
func TestParse_Delimiter(t *testing.T) {
	t.Parallel()

	in := "a;b\n1;2\n"
	f, err := NewParser(Options{Comma: ';'}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, f.Names())
}

// TestParse_TrimSpace: padded cells trim to values and whitespace-only cells
// trim all the way down to null.
func TestParse_TrimSpace(t *testing.T) {
	t.Parallel()

	in := "a,b\n x ,   \n"
	f, err := NewParser(Options{TrimSpace: true}).Parse(strings.NewReader(in))
	require.NoError(t, err)

	a, _ := f.Column("a")
	require.Equal(t, []any{"x"}, a.Values())
	b, _ := f.Column("b")
	require.True(t, b.IsNull(0))
}

// TestParse_Errors: empty input, ragged rows and duplicate headers all fail
// with descriptive errors instead of producing a skewed frame.
func TestParse_Errors(t *testing.T) {
	t.Parallel()

	p := NewParser(Options{})

	_, err := p.Parse(strings.NewReader(""))
	require.ErrorContains(t, err, "empty input")

	_, err = p.Parse(strings.NewReader("a,b\n1\n"))
	require.ErrorContains(t, err, "row 1")

	_, err = p.Parse(strings.NewReader("a,a\n1,2\n"))
	require.ErrorContains(t, err, `duplicate header "a"`)
}

// TestParse_NFCNormalization: decomposed characters in the input compare
// equal to their composed form after parsing, so header maps keyed on
// composed strings still match.
func TestParse_NFCNormalization(t *testing.T) {
	t.Parallel()

	// "é" as 'e' + combining acute accent in the header.
	in := "café\nx\n"
	f, err := NewParser(Options{}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	_, ok := f.Column("café")
	require.True(t, ok, "decomposed header should normalize to composed form")
}

// TestParse_HeaderOnly: a file with headers and no data rows yields an empty
// frame with the declared columns.
func TestParse_HeaderOnly(t *testing.T) {
	t.Parallel()

	f, err := NewParser(Options{}).Parse(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, f.Names())
	require.Equal(t, 0, f.Len())
}
