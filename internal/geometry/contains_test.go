package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func square(x0, y0, x1, y1 float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}, {x0, y0}}
}

func TestPointInPolygon_HoleScenario(t *testing.T) {
	poly := orb.Polygon{
		square(0, 0, 10, 10),
		square(4, 4, 6, 6),
	}

	tests := []struct {
		name string
		p    orb.Point
		want bool
	}{
		{"inside hole", orb.Point{5, 5}, false},
		{"inside outer ring", orb.Point{1, 1}, true},
		{"outside everything", orb.Point{20, 20}, false},
		{"between hole and edge", orb.Point{8, 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInPolygon(tt.p, poly))
		})
	}
}

func TestPointInRing_Degenerate(t *testing.T) {
	assert.False(t, PointInRing(orb.Point{0, 0}, nil))
	assert.False(t, PointInRing(orb.Point{0, 0}, orb.Ring{{0, 0}, {1, 1}}))
	assert.False(t, PointInPolygon(orb.Point{0, 0}, orb.Polygon{}))
	assert.False(t, PointInMultiPolygon(orb.Point{0, 0}, nil))
}

func TestPointInRing_OpenAndClosedRingsAgree(t *testing.T) {
	closed := square(0, 0, 4, 4)
	open := closed[:len(closed)-1]
	for _, p := range []orb.Point{{1, 1}, {3.9, 0.1}, {5, 5}, {-1, 2}} {
		assert.Equal(t, PointInRing(p, closed), PointInRing(p, open), "point %v", p)
	}
}

func TestPointInRing_HalfOpenEdges(t *testing.T) {
	left := square(0, 0, 1, 1)
	right := square(1, 0, 2, 1)

	// A point on the shared vertical edge belongs to exactly one of the two cells.
	p := orb.Point{1, 0.5}
	assert.NotEqual(t, PointInRing(p, left), PointInRing(p, right))

	// A ray passing exactly through a vertex is counted once.
	diamond := orb.Ring{{0, 1}, {1, 2}, {2, 1}, {1, 0}}
	assert.True(t, PointInRing(orb.Point{0.5, 1}, diamond))
	assert.False(t, PointInRing(orb.Point{-0.5, 1}, diamond))
}

func TestPointInRing_NonConvex(t *testing.T) {
	// U shape opening upward.
	u := orb.Ring{{0, 0}, {0, 3}, {1, 3}, {1, 1}, {2, 1}, {2, 3}, {3, 3}, {3, 0}}
	assert.True(t, PointInRing(orb.Point{0.5, 2}, u))
	assert.False(t, PointInRing(orb.Point{1.5, 2}, u))
	assert.True(t, PointInRing(orb.Point{1.5, 0.5}, u))
}

func TestPointInMultiPolygon_DisjointZones(t *testing.T) {
	mp := orb.MultiPolygon{
		{square(0, 0, 1, 1)},
		{square(10, 10, 11, 11)},
	}
	assert.True(t, PointInMultiPolygon(orb.Point{0.5, 0.5}, mp))
	assert.True(t, PointInMultiPolygon(orb.Point{10.5, 10.5}, mp))
	assert.False(t, PointInMultiPolygon(orb.Point{5, 5}, mp))
}

func TestValidPoint(t *testing.T) {
	assert.True(t, ValidPoint(orb.Point{-79.38, 43.65}))
	assert.True(t, ValidPoint(orb.Point{0, 0}))
	assert.False(t, ValidPoint(orb.Point{math.NaN(), 1}))
	assert.False(t, ValidPoint(orb.Point{1, math.Inf(1)}))
	assert.False(t, ValidPoint(orb.Point{200, 1}))
	assert.False(t, ValidPoint(orb.Point{1, -91}))
}
