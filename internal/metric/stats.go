package metric

import (
	"math"
	"sort"
)

// Stats describes a distribution for the run summary.
type Stats struct {
	Count    int
	Positive int
	Min      float64
	Max      float64
	Mean     float64
	Median   float64
}

// Summarize computes Stats over every finite value in d.
func Summarize(d Distribution) Stats {
	xs := make([]float64, 0, len(d))
	for _, v := range d {
		if !math.IsNaN(v.Raw) && !math.IsInf(v.Raw, 0) {
			xs = append(xs, v.Raw)
		}
	}
	if len(xs) == 0 {
		return Stats{}
	}
	sort.Float64s(xs)

	s := Stats{Count: len(xs), Min: xs[0], Max: xs[len(xs)-1]}
	var sum float64
	for _, x := range xs {
		sum += x
		if x > 0 {
			s.Positive++
		}
	}
	s.Mean = sum / float64(len(xs))
	s.Median = median(xs)
	return s
}

// median expects xs sorted.
func median(xs []float64) float64 {
	mid := len(xs) / 2
	if len(xs)%2 == 1 {
		return xs[mid]
	}
	return 0.5 * (xs[mid-1] + xs[mid])
}
