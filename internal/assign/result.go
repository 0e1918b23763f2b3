package assign

import (
	"github.com/sells-group/hoodscore-cli/internal/feature"
)

// Result is the outcome of one Assign call. Every input feature appears in
// exactly one of ByNeighbourhood, Unassigned or the MissingGeometry count.
type Result struct {
	ByNeighbourhood map[string][]feature.RawFeature
	Unassigned      []feature.RawFeature
	MissingGeometry int
}

// Count returns the number of features assigned to id.
func (r *Result) Count(id string) int {
	return len(r.ByNeighbourhood[id])
}

// Sum returns the total magnitude of features assigned to id.
func (r *Result) Sum(id string) float64 {
	var total float64
	for _, f := range r.ByNeighbourhood[id] {
		total += f.Magnitude
	}
	return total
}

// CountWhere returns the number of features assigned to id that satisfy
// keep.
func (r *Result) CountWhere(id string, keep func(feature.RawFeature) bool) int {
	n := 0
	for _, f := range r.ByNeighbourhood[id] {
		if keep(f) {
			n++
		}
	}
	return n
}

// Assigned returns the number of features placed in some neighbourhood.
func (r *Result) Assigned() int {
	n := 0
	for _, fs := range r.ByNeighbourhood {
		n += len(fs)
	}
	return n
}

// Row is one line of an assignment summary.
type Row struct {
	ID    string
	Count int
	Sum   float64
}

// Summary returns per-neighbourhood counts for ids, in the given order,
// including neighbourhoods that received nothing.
func (r *Result) Summary(ids []string) []Row {
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, Row{ID: id, Count: r.Count(id), Sum: r.Sum(id)})
	}
	return rows
}
