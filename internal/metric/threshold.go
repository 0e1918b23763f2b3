// Package metric turns per-neighbourhood raw measures into saturating
// [0,1] scores against a percentile threshold.
package metric

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Value is one neighbourhood's raw measure.
type Value struct {
	ID  string
	Raw float64
}

// Distribution holds one measure across neighbourhoods. Neighbourhoods
// without data are absent rather than zero.
type Distribution []Value

// positives returns the finite positive raw values sorted ascending.
func (d Distribution) positives() []float64 {
	out := make([]float64, 0, len(d))
	for _, v := range d {
		if v.Raw > 0 && !math.IsInf(v.Raw, 0) && !math.IsNaN(v.Raw) {
			out = append(out, v.Raw)
		}
	}
	sort.Float64s(out)
	return out
}

// Threshold is the saturation point derived from a distribution.
type Threshold struct {
	Percentile float64
	Value      float64
	// N is the number of positive values the threshold was selected from.
	N int
	// Fallback is set when no positive value existed and Value is the
	// configured default.
	Fallback bool
}

// ThresholdAt selects the nearest-rank percentile of the positive values:
// the value at index floor(n*p) of the ascending sort, clamped to the last
// index. Non-positive values carry no data and are ignored. With nothing
// left, fallback is returned and Fallback is set.
func ThresholdAt(d Distribution, p, fallback float64) (Threshold, error) {
	if !(p > 0 && p < 1) {
		return Threshold{}, eris.Errorf("metric: percentile %v outside (0,1)", p)
	}
	vals := d.positives()
	if len(vals) == 0 {
		return Threshold{Percentile: p, Value: fallback, Fallback: true}, nil
	}
	idx := int(math.Floor(float64(len(vals)) * p))
	if idx > len(vals)-1 {
		idx = len(vals) - 1
	}
	return Threshold{Percentile: p, Value: vals[idx], N: len(vals)}, nil
}

// Normalize saturates v against t: min(1, v/t). Non-positive inputs give 0.
func Normalize(v, t float64) float64 {
	if v <= 0 || t <= 0 || math.IsNaN(v) {
		return 0
	}
	return math.Min(1, v/t)
}
