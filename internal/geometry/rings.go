package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// AssembleRings groups rings stored with the shapefile/ArcGIS winding
// convention into polygons: clockwise rings are exteriors, counter-clockwise
// rings are holes. A hole is attached to the first exterior containing its
// first vertex; a counter-clockwise ring outside every exterior is kept as an
// exterior of its own. Rings with fewer than three vertices are dropped.
func AssembleRings(rings []orb.Ring) orb.MultiPolygon {
	var shells orb.MultiPolygon
	var holes []orb.Ring
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		if SignedArea(ring) <= 0 {
			shells = append(shells, orb.Polygon{ring})
		} else {
			holes = append(holes, ring)
		}
	}

	var orphans orb.MultiPolygon
	for _, hole := range holes {
		attached := false
		for i := range shells {
			if PointInRing(hole[0], shells[i][0]) {
				shells[i] = append(shells[i], hole)
				attached = true
				break
			}
		}
		if !attached {
			orphans = append(orphans, orb.Polygon{hole})
		}
	}
	return append(shells, orphans...)
}

// ApproxLengthKM returns the length of a lon/lat line string in kilometres,
// scaling each segment by the cosine of its mean latitude.
func ApproxLengthKM(ls orb.LineString) float64 {
	var total float64
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		lat := (a[1] + b[1]) / 2 * math.Pi / 180
		dx := (b[0] - a[0]) * math.Cos(lat)
		dy := b[1] - a[1]
		total += math.Hypot(dx, dy) * kmPerDegree
	}
	return total
}
