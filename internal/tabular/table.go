package tabular

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMissingColumn is returned when a required column is absent from a
// table's header. It aborts the run.
var ErrMissingColumn = eris.New("tabular: required column missing")

// Table is a header plus raw string rows.
type Table struct {
	Header []string
	Rows   [][]string
	// Skipped counts source lines that could not be parsed at all.
	Skipped int

	index map[string]int
}

// NewTable builds a table with a case-insensitive header index.
func NewTable(header []string) *Table {
	t := &Table{Header: header, index: make(map[string]int, len(header))}
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

// Col returns the index of the named column, or -1.
func (t *Table) Col(name string) int {
	if name == "" {
		return -1
	}
	if i, ok := t.index[normalizeHeader(name)]; ok {
		return i
	}
	return -1
}

// Require checks that every named column exists. The error names the first
// missing column and wraps ErrMissingColumn.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if n == "" {
			continue
		}
		if t.Col(n) < 0 {
			return eris.Wrapf(ErrMissingColumn, "column %q", n)
		}
	}
	return nil
}

// Value returns the trimmed cell at column idx of row, or "" when the row
// is too short or idx is negative.
func Value(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseFloat parses a numeric cell. Thousands separators, a trailing percent
// sign and surrounding whitespace are tolerated. Blank cells report false.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	return strings.ToLower(strings.TrimSpace(h))
}
