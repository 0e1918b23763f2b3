package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/sells-group/hoodscore-cli/internal/metric"
)

// Summary is the advisory view of a run: ranked extremes and the spread of
// each column.
type Summary struct {
	Top       []Row
	Bottom    []Row
	Composite metric.Stats
	Metrics   map[string]metric.Stats
}

// Summarize ranks rows by composite score (ties by id) and returns the top
// and bottom n with distribution stats for every column.
func Summarize(t *Table, n int) Summary {
	ranked := append([]Row(nil), t.Rows...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		return ranked[i].ID < ranked[j].ID
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	s := Summary{
		Top:     ranked[:n],
		Metrics: make(map[string]metric.Stats, len(t.Metrics)),
	}
	for i := len(ranked) - 1; i >= len(ranked)-n; i-- {
		s.Bottom = append(s.Bottom, ranked[i])
	}

	composite := make(metric.Distribution, 0, len(t.Rows))
	for _, r := range t.Rows {
		composite = append(composite, metric.Value{ID: r.ID, Raw: float64(r.Composite)})
	}
	s.Composite = metric.Summarize(composite)

	for i, m := range t.Metrics {
		var d metric.Distribution
		for _, r := range t.Rows {
			if i < len(r.Values) && r.Values[i] != nil {
				d = append(d, metric.Value{ID: r.ID, Raw: *r.Values[i]})
			}
		}
		s.Metrics[m] = metric.Summarize(d)
	}
	return s
}

// PrintSummary writes the top and bottom neighbourhoods and the composite
// spread to w.
func PrintSummary(w io.Writer, s Summary) {
	_, _ = fmt.Fprintf(w, "Composite: n=%d min=%.0f median=%.1f mean=%.1f max=%.0f\n",
		s.Composite.Count, s.Composite.Min, s.Composite.Median, s.Composite.Mean, s.Composite.Max)
	_, _ = fmt.Fprintln(w, "Top:")
	for i, r := range s.Top {
		_, _ = fmt.Fprintf(w, "  %2d. %-30s %3d\n", i+1, label(r), r.Composite)
	}
	_, _ = fmt.Fprintln(w, "Bottom:")
	for i, r := range s.Bottom {
		_, _ = fmt.Fprintf(w, "  %2d. %-30s %3d\n", i+1, label(r), r.Composite)
	}
}

func label(r Row) string {
	if r.Name == "" || r.Name == r.ID {
		return r.ID
	}
	return r.Name + " (" + r.ID + ")"
}
