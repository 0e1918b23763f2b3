package aggregate

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/assign"
	"github.com/sells-group/hoodscore-cli/internal/geometry"
)

// Result holds the area-weighted attribute means per neighbourhood.
type Result struct {
	// Means maps attribute -> neighbourhood id -> mean. A nil mean means
	// no matched tract carried the attribute.
	Means map[string]map[string]*float64
	// Members lists the tract ids matched to each neighbourhood.
	Members map[string][]string
	// Unmatched holds tracts whose centroid falls outside every boundary.
	Unmatched []string
	// NoCentroid counts tracts with empty geometry.
	NoCentroid int
}

// Mean returns the mean of attr for neighbourhood id, or nil.
func (r *Result) Mean(attr, id string) *float64 {
	return r.Means[attr][id]
}

type accumulator struct {
	weighted float64
	area     float64
}

// Aggregate assigns each tract to the neighbourhood containing its centroid
// and computes, per neighbourhood and attribute, sum(value*area)/sum(area)
// using each tract's own planar area. A tract is never split across
// neighbourhoods. Tracts missing an attribute are left out of both sums
// for that attribute.
func Aggregate(engine *assign.Engine, tracts []Tract, attrs []string) *Result {
	log := zap.L().With(zap.String("component", "aggregate"))
	ids := engine.Set().IDs()

	acc := make(map[string]map[string]*accumulator, len(attrs))
	for _, a := range attrs {
		acc[a] = make(map[string]*accumulator)
	}
	res := &Result{
		Means:   make(map[string]map[string]*float64, len(attrs)),
		Members: make(map[string][]string),
	}

	for _, t := range tracts {
		c, ok := geometry.MultiPolygonCentroid(t.Geometry)
		if !ok {
			res.NoCentroid++
			continue
		}
		id, ok := engine.Locate(c)
		if !ok {
			res.Unmatched = append(res.Unmatched, t.ID)
			continue
		}
		res.Members[id] = append(res.Members[id], t.ID)

		area := geometry.MultiPolygonArea(t.Geometry)
		for _, a := range attrs {
			v, ok := t.Attributes[a]
			if !ok {
				continue
			}
			bucket := acc[a][id]
			if bucket == nil {
				bucket = &accumulator{}
				acc[a][id] = bucket
			}
			bucket.weighted += v * area
			bucket.area += area
		}
	}

	for _, a := range attrs {
		means := make(map[string]*float64, len(ids))
		for _, id := range ids {
			bucket := acc[a][id]
			if bucket == nil || bucket.area <= 0 {
				means[id] = nil
				continue
			}
			m := bucket.weighted / bucket.area
			means[id] = &m
		}
		res.Means[a] = means
	}
	sort.Strings(res.Unmatched)

	if len(res.Unmatched) > 0 || res.NoCentroid > 0 {
		log.Warn("tracts not matched to a neighbourhood",
			zap.Int("unmatched", len(res.Unmatched)),
			zap.Int("no_centroid", res.NoCentroid),
			zap.Int("total", len(tracts)),
		)
	}
	return res
}
