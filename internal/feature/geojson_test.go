package feature

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const geojsonFixture = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "s-1", "properties": {"kind": "school", "students": 420},
     "geometry": {"type": "Point", "coordinates": [-79.4, 43.7]}},
    {"type": "Feature", "properties": {"kind": "trail"},
     "geometry": {"type": "MultiLineString", "coordinates": [[[0, 0], [1, 0]], [[1, 0], [2, 0]]]}},
    {"type": "Feature", "properties": {"kind": "park", "ref": "P9"},
     "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [2, 0], [2, 2], [0, 2], [0, 0]]]}},
    {"type": "Feature", "properties": {"kind": "school"},
     "geometry": {"type": "Point", "coordinates": [500, 95]}},
    {"type": "Feature", "properties": {"kind": "stop"},
     "geometry": {"type": "MultiPoint", "coordinates": [[5, 5], [6, 6]]}}
  ]
}`

func TestDecodeGeoJSON(t *testing.T) {
	b, err := DecodeGeoJSON(strings.NewReader(geojsonFixture), Spec{Source: "open", IDField: "ref", CategoryField: "kind"})
	require.NoError(t, err)

	require.Len(t, b.Features, 4)
	assert.Equal(t, 1, b.MissingGeometry)

	school := b.Features[0]
	assert.Equal(t, "s-1", school.ID, "falls back to the feature id")
	assert.Equal(t, "420", school.Attributes["students"])
	assert.Equal(t, orb.Point{-79.4, 43.7}, school.Point)

	trail := b.Features[1]
	assert.Equal(t, "2", trail.ID, "falls back to the feature position")
	assert.Equal(t, KindLine, trail.Kind)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 0}, {1, 0}, {2, 0}}, trail.Path)

	park := b.Features[2]
	assert.Equal(t, "P9", park.ID)
	assert.Equal(t, KindPolygon, park.Kind)
	p, ok := park.RepresentativePoint()
	require.True(t, ok)
	assert.Equal(t, orb.Point{1, 1}, p)

	assert.Equal(t, orb.Point{5, 5}, b.Features[3].Point)
}

func TestDecodeGeoJSON_CategoryFilterAndMagnitude(t *testing.T) {
	spec := Spec{CategoryField: "kind", MagnitudeField: "students", Categories: []string{"school"}}

	b, err := DecodeGeoJSON(strings.NewReader(geojsonFixture), spec)
	require.NoError(t, err)
	require.Len(t, b.Features, 1)
	assert.Equal(t, 420.0, b.Features[0].Magnitude)
	assert.Equal(t, 3, b.Filtered)
}

func TestDecodeGeoJSON_Invalid(t *testing.T) {
	_, err := DecodeGeoJSON(strings.NewReader(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":"x"}}]}`), Spec{})
	require.Error(t, err)
}
