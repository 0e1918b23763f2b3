package metric

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/assign"
	"github.com/sells-group/hoodscore-cli/internal/boundary"
)

// Kind names how a raw measure is derived.
type Kind string

// Measure kinds. Feature kinds read an assignment; Lookup reads an external
// id-to-score table; TractMean reads an area-weighted tract aggregate.
const (
	Count        Kind = "count"
	Sum          Kind = "sum"
	CountPerKM2  Kind = "count_per_km2"
	SumPerKM2    Kind = "sum_per_km2"
	CountPer1000 Kind = "count_per_1000"
	SumPer1000   Kind = "sum_per_1000"
	Lookup       Kind = "lookup"
	TractMean    Kind = "tract_mean"
)

// ParseKind validates a configured measure name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Count, Sum, CountPerKM2, SumPerKM2, CountPer1000, SumPer1000, Lookup, TractMean:
		return k, nil
	}
	return "", eris.Errorf("metric: unknown measure %q", s)
}

// FeatureBased reports whether the measure is computed from assigned
// features.
func (k Kind) FeatureBased() bool {
	switch k {
	case Count, Sum, CountPerKM2, SumPerKM2, CountPer1000, SumPer1000:
		return true
	}
	return false
}

// Column is one raw measure for every neighbourhood of a set. A nil value
// means no data and is kept distinct from zero.
type Column struct {
	Name   string
	Kind   Kind
	Values map[string]*float64
}

// Get returns the raw value for id.
func (c Column) Get(id string) *float64 {
	return c.Values[id]
}

// Distribution returns the present values in ids order.
func (c Column) Distribution(ids []string) Distribution {
	d := make(Distribution, 0, len(ids))
	for _, id := range ids {
		if v := c.Values[id]; v != nil {
			d = append(d, Value{ID: id, Raw: *v})
		}
	}
	return d
}

// FromAssignment computes a feature-based measure for every neighbourhood in
// set. A neighbourhood with no assigned features has no data. Rate measures
// also have no data when the area or population they divide by is unknown.
func FromAssignment(name string, kind Kind, set *boundary.Set, res *assign.Result) (Column, error) {
	if !kind.FeatureBased() {
		return Column{}, eris.Errorf("metric: %s is not computed from features", kind)
	}
	col := Column{Name: name, Kind: kind, Values: make(map[string]*float64, set.Len())}
	for _, n := range set.All() {
		if res.Count(n.ID) == 0 {
			col.Values[n.ID] = nil
			continue
		}

		var base float64
		switch kind {
		case Count, CountPerKM2, CountPer1000:
			base = float64(res.Count(n.ID))
		default:
			base = res.Sum(n.ID)
		}

		var v float64
		switch kind {
		case Count, Sum:
			v = base
		case CountPerKM2, SumPerKM2:
			if n.AreaKM2 <= 0 {
				col.Values[n.ID] = nil
				continue
			}
			v = base / n.AreaKM2
		case CountPer1000, SumPer1000:
			if n.Population == nil || *n.Population <= 0 {
				col.Values[n.ID] = nil
				continue
			}
			v = base * 1000 / *n.Population
		}
		col.Values[n.ID] = &v
	}
	return col, nil
}

// FromTable builds a column from an external id-to-value table. Ids in the
// set but not in the table have no data. It also returns the sorted table
// ids that match no neighbourhood.
func FromTable(name string, kind Kind, set *boundary.Set, table map[string]float64) (Column, []string) {
	col := Column{Name: name, Kind: kind, Values: make(map[string]*float64, set.Len())}
	for _, id := range set.IDs() {
		if v, ok := table[id]; ok {
			col.Values[id] = &v
		} else {
			col.Values[id] = nil
		}
	}

	var unknown []string
	for id := range table {
		if _, ok := set.Get(id); !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return col, unknown
}

// FromOptional builds a column from values that may already be missing,
// such as tract aggregates.
func FromOptional(name string, kind Kind, set *boundary.Set, values map[string]*float64) Column {
	col := Column{Name: name, Kind: kind, Values: make(map[string]*float64, set.Len())}
	for _, id := range set.IDs() {
		col.Values[id] = values[id]
	}
	return col
}

// Normalized saturates every present value against t. Missing values stay
// missing.
func (c Column) Normalized(t Threshold) map[string]*float64 {
	out := make(map[string]*float64, len(c.Values))
	for id, v := range c.Values {
		if v == nil {
			out[id] = nil
			continue
		}
		n := Normalize(*v, t.Value)
		out[id] = &n
	}
	return out
}
