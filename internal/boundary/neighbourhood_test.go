package boundary

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}, {x0, y0}}}
}

func ptr(v float64) *float64 { return &v }

func TestNewSet_SortsByID(t *testing.T) {
	set, err := NewSet([]*Neighbourhood{
		{ID: "c", Geometry: orb.MultiPolygon{square(0, 0, 1, 1)}},
		{ID: "a", Geometry: orb.MultiPolygon{square(1, 0, 2, 1)}},
		{ID: "b", Geometry: orb.MultiPolygon{square(2, 0, 3, 1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, set.IDs())
	assert.Equal(t, 3, set.Len())

	n, ok := set.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", n.Name, "name falls back to id")
}

func TestNewSet_Empty(t *testing.T) {
	_, err := NewSet(nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoBoundaries))

	_, err = NewSet([]*Neighbourhood{{ID: ""}})
	assert.True(t, eris.Is(err, ErrNoBoundaries))
}

func TestNewSet_MergesDuplicateIDs(t *testing.T) {
	set, err := NewSet([]*Neighbourhood{
		{ID: "x", Name: "Harbour", Geometry: orb.MultiPolygon{square(0, 0, 1, 1)}, Population: ptr(100), AreaKM2: 2},
		{ID: "x", Geometry: orb.MultiPolygon{square(5, 5, 6, 6)}, Population: ptr(50), AreaKM2: 3},
	})
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	n, _ := set.Get("x")
	assert.Len(t, n.Geometry, 2)
	assert.Equal(t, "Harbour", n.Name)
	require.NotNil(t, n.Population)
	assert.InDelta(t, 150, *n.Population, 1e-9)
	assert.InDelta(t, 5, n.AreaKM2, 1e-9)
	assert.True(t, n.Contains(orb.Point{0.5, 0.5}))
	assert.True(t, n.Contains(orb.Point{5.5, 5.5}))
	assert.False(t, n.Contains(orb.Point{3, 3}))
}

func TestNewSet_MergePartialPopulationIsUnknown(t *testing.T) {
	for _, pops := range [][2]*float64{{ptr(5000), nil}, {nil, ptr(5000)}} {
		set, err := NewSet([]*Neighbourhood{
			{ID: "x", Geometry: orb.MultiPolygon{square(0, 0, 1, 1)}, Population: pops[0], AreaKM2: 10},
			{ID: "x", Geometry: orb.MultiPolygon{square(5, 5, 6, 6)}, Population: pops[1], AreaKM2: 50},
			{ID: "x", Geometry: orb.MultiPolygon{square(8, 8, 9, 9)}, Population: ptr(10), AreaKM2: 1},
		})
		require.NoError(t, err)

		n, _ := set.Get("x")
		assert.Nil(t, n.Population)
		assert.InDelta(t, 61, n.AreaKM2, 1e-9)
		_, ok := n.Density()
		assert.False(t, ok)
	}
}

func TestNewSet_DoesNotAliasInput(t *testing.T) {
	in := &Neighbourhood{ID: "a", Geometry: orb.MultiPolygon{square(0, 0, 1, 1)}, Population: ptr(10)}
	set, err := NewSet([]*Neighbourhood{in})
	require.NoError(t, err)

	*in.Population = 99
	n, _ := set.Get("a")
	assert.InDelta(t, 10, *n.Population, 1e-9)
}

func TestNeighbourhood_Density(t *testing.T) {
	n := &Neighbourhood{ID: "a", Population: ptr(3000), AreaKM2: 60}
	d, ok := n.Density()
	assert.True(t, ok)
	assert.InDelta(t, 50, d, 1e-9)

	_, ok = (&Neighbourhood{ID: "b", AreaKM2: 10}).Density()
	assert.False(t, ok)
	_, ok = (&Neighbourhood{ID: "c", Population: ptr(10)}).Density()
	assert.False(t, ok)
}

func TestNewSet_ApproximatesMissingArea(t *testing.T) {
	set, err := NewSet([]*Neighbourhood{{ID: "a", Geometry: orb.MultiPolygon{square(0, 0, 0.1, 0.1)}}})
	require.NoError(t, err)
	n, _ := set.Get("a")
	assert.InDelta(t, 123.9, n.AreaKM2, 0.5)
	assert.InDelta(t, 0.01, n.Area(), 1e-12)
}
