package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// kmPerDegree is the length of one degree of latitude in kilometres.
const kmPerDegree = 111.32

// SignedArea returns the shoelace area of ring in squared coordinate units.
// Counter-clockwise rings are positive. The value has no projection
// correction and is only comparable with areas from the same frame.
func SignedArea(ring orb.Ring) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range n {
		a := ring[i]
		b := ring[(i+1)%n]
		sum += a[0]*b[1] - b[0]*a[1]
	}
	return sum / 2
}

// PolygonArea returns |exterior| minus the hole areas, floored at zero.
func PolygonArea(poly orb.Polygon) float64 {
	if len(poly) == 0 {
		return 0
	}
	area := math.Abs(SignedArea(poly[0]))
	for _, hole := range poly[1:] {
		area -= math.Abs(SignedArea(hole))
	}
	return math.Max(area, 0)
}

// MultiPolygonArea sums PolygonArea over every part of mp.
func MultiPolygonArea(mp orb.MultiPolygon) float64 {
	var total float64
	for _, poly := range mp {
		total += PolygonArea(poly)
	}
	return total
}

// Centroid returns the arithmetic mean of the ring's vertices. A closing
// vertex equal to the first one is not counted twice. This is not the area
// centroid: it drifts toward densely digitised stretches of the outline.
func Centroid(ring orb.Ring) (orb.Point, bool) {
	pts := openRing(ring)
	if len(pts) == 0 {
		return orb.Point{}, false
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(pts))
	return orb.Point{sx / n, sy / n}, true
}

// MultiPolygonCentroid returns the vertex centroid of the largest exterior
// ring in mp.
func MultiPolygonCentroid(mp orb.MultiPolygon) (orb.Point, bool) {
	best := -1
	var bestArea float64
	for i, poly := range mp {
		if len(poly) == 0 || len(poly[0]) == 0 {
			continue
		}
		a := math.Abs(SignedArea(poly[0]))
		if best < 0 || a > bestArea {
			best, bestArea = i, a
		}
	}
	if best < 0 {
		return orb.Point{}, false
	}
	return Centroid(mp[best][0])
}

// ApproxAreaKM2 converts the planar area of a lon/lat multi-polygon into
// square kilometres with an equirectangular scale taken at its centroid.
func ApproxAreaKM2(mp orb.MultiPolygon) float64 {
	c, ok := MultiPolygonCentroid(mp)
	if !ok {
		return 0
	}
	scale := kmPerDegree * kmPerDegree * math.Cos(c[1]*math.Pi/180)
	return MultiPolygonArea(mp) * math.Abs(scale)
}

// Bound returns the bounding box of mp. Empty input yields an empty bound
// that contains no point.
func Bound(mp orb.MultiPolygon) orb.Bound {
	if len(mp) == 0 {
		return orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{-1, -1}}
	}
	return mp.Bound()
}

func openRing(ring orb.Ring) []orb.Point {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		return ring[:len(ring)-1]
	}
	return ring
}
