// Package geometry implements the planar primitives used to join features to
// neighbourhood boundaries: ray-casting containment, vertex centroids and
// shoelace areas. Coordinates are (lon, lat) pairs in one unprojected frame.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// PointInRing reports whether p lies inside ring using the even-odd rule.
//
// An edge is counted only when exactly one endpoint lies strictly above the
// ray (half-open treatment), so a point level with a shared vertex is counted
// once and points on adjacent boundaries resolve the same way on every run.
// Rings with fewer than three vertices contain nothing.
func PointInRing(p orb.Point, ring orb.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a[1] > p[1]) == (b[1] > p[1]) {
			continue
		}
		x := a[0] + (p[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
		if p[0] < x {
			inside = !inside
		}
	}
	return inside
}

// PointInPolygon reports whether p lies inside the exterior ring of poly and
// outside every hole ring.
func PointInPolygon(p orb.Point, poly orb.Polygon) bool {
	if len(poly) == 0 || !PointInRing(p, poly[0]) {
		return false
	}
	for _, hole := range poly[1:] {
		if PointInRing(p, hole) {
			return false
		}
	}
	return true
}

// PointInMultiPolygon reports whether any polygon of mp contains p. A
// neighbourhood made of disjoint zones is a single multi-polygon.
func PointInMultiPolygon(p orb.Point, mp orb.MultiPolygon) bool {
	for _, poly := range mp {
		if PointInPolygon(p, poly) {
			return true
		}
	}
	return false
}

// ValidPoint reports whether p is usable as a (lon, lat) coordinate.
func ValidPoint(p orb.Point) bool {
	lon, lat := p[0], p[1]
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}
