// Package report holds the per-neighbourhood score table and its sinks.
package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// CompositeColumn is the header of the composite score column.
const CompositeColumn = "composite_score"

// Row is one neighbourhood. Values align with Table.Metrics; a nil value
// has no data and is written as an empty cell.
type Row struct {
	ID        string
	Name      string
	Values    []*float64
	Composite int
}

// Table is the score table: one row per configured neighbourhood.
type Table struct {
	Metrics []string
	Rows    []Row
}

// Header returns id, name, the metric columns and composite_score.
func (t *Table) Header() []string {
	h := make([]string, 0, len(t.Metrics)+3)
	h = append(h, "id", "name")
	h = append(h, t.Metrics...)
	return append(h, CompositeColumn)
}

// Value returns the named metric of row, or nil.
func (t *Table) Value(row Row, metric string) *float64 {
	for i, m := range t.Metrics {
		if m == metric && i < len(row.Values) {
			return row.Values[i]
		}
	}
	return nil
}

// Print writes the table to w as aligned text. Missing values print as "-".
func Print(out io.Writer, t *Table, precision int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, h := range t.Header() {
		if i > 0 {
			_, _ = fmt.Fprint(w, "\t")
		}
		_, _ = fmt.Fprint(w, h)
	}
	_, _ = fmt.Fprintln(w)

	for _, r := range t.Rows {
		_, _ = fmt.Fprintf(w, "%s\t%s", r.ID, r.Name)
		for _, v := range r.Values {
			cell := formatValue(v, precision)
			if cell == "" {
				cell = "-"
			}
			_, _ = fmt.Fprintf(w, "\t%s", cell)
		}
		_, _ = fmt.Fprintf(w, "\t%d\n", r.Composite)
	}
	_ = w.Flush()
}

func formatValue(v *float64, precision int) string {
	if v == nil {
		return ""
	}
	if precision < 0 {
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}
	return strconv.FormatFloat(*v, 'f', precision, 64)
}
