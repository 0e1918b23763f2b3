package report

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/tabular"
)

// WriteCSV writes the table with metric values rounded to precision
// decimal places. A negative precision writes full precision.
func WriteCSV(w io.Writer, t *Table, precision int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}

	rec := make([]string, 0, len(t.Metrics)+3)
	for _, r := range t.Rows {
		rec = rec[:0]
		rec = append(rec, r.ID, r.Name)
		for i := range t.Metrics {
			var v *float64
			if i < len(r.Values) {
				v = r.Values[i]
			}
			rec = append(rec, formatValue(v, precision))
		}
		rec = append(rec, strconv.Itoa(r.Composite))
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "report: write row %s", r.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// ReadCSV parses a table written by WriteCSV. Columns between name and
// composite_score are metrics; empty cells read back as nil.
func ReadCSV(ctx context.Context, r io.Reader) (*Table, error) {
	raw, err := tabular.ReadCSV(ctx, r, tabular.CSVOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "report: read csv")
	}
	if err := raw.Require("id", "name", CompositeColumn); err != nil {
		return nil, eris.Wrap(err, "report: read csv")
	}

	idIdx, nameIdx, scoreIdx := raw.Col("id"), raw.Col("name"), raw.Col(CompositeColumn)
	t := &Table{}
	var metricIdx []int
	for i, h := range raw.Header {
		if i == idIdx || i == nameIdx || i == scoreIdx {
			continue
		}
		t.Metrics = append(t.Metrics, strings.TrimSpace(h))
		metricIdx = append(metricIdx, i)
	}

	for n, rec := range raw.Rows {
		row := Row{ID: tabular.Value(rec, idIdx), Name: tabular.Value(rec, nameIdx)}
		score, err := strconv.Atoi(tabular.Value(rec, scoreIdx))
		if err != nil {
			return nil, eris.Wrapf(err, "report: row %d composite score", n+1)
		}
		row.Composite = score

		row.Values = make([]*float64, len(metricIdx))
		for j, idx := range metricIdx {
			cell := tabular.Value(rec, idx)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "report: row %d column %s", n+1, t.Metrics[j])
			}
			row.Values[j] = &v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
