package feature

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arcgisFixture = `{
  "geometryType": "esriGeometryPoint",
  "features": [
    {"attributes": {"OBJECTID": 101, "ASSET_TYPE": "Library", "VISITS": 12000},
     "geometry": {"x": -79.38, "y": 43.65}},
    {"attributes": {"OBJECTID": 102, "ASSET_TYPE": "Bike Lane", "VISITS": null},
     "geometry": {"paths": [[[0, 0], [0, 1]], [[0, 1], [0, 2]]]}},
    {"attributes": {"OBJECTID": 103, "ASSET_TYPE": "Park", "VISITS": 5},
     "geometry": {"rings": [[[0, 0], [0, 10], [10, 10], [10, 0], [0, 0]], [[4, 4], [6, 4], [6, 6], [4, 6], [4, 4]]]}},
    {"attributes": {"OBJECTID": 104, "ASSET_TYPE": "Park"}, "geometry": null},
    {"attributes": {"OBJECTID": 12345678901, "ASSET_TYPE": "Park", "VISITS": "n/a"},
     "geometry": {"x": 1, "y": 1}}
  ]
}`

func TestDecodeArcGIS(t *testing.T) {
	spec := Spec{Source: "city", IDField: "objectid", CategoryField: "ASSET_TYPE", MagnitudeField: "visits"}

	b, err := DecodeArcGIS(strings.NewReader(arcgisFixture), spec)
	require.NoError(t, err)

	require.Len(t, b.Features, 3)
	assert.Equal(t, 1, b.MissingGeometry)
	assert.Equal(t, 1, b.Malformed)

	lib := b.Features[0]
	assert.Equal(t, "101", lib.ID)
	assert.Equal(t, "Library", lib.Category)
	assert.Equal(t, orb.Point{-79.38, 43.65}, lib.Point)
	assert.Equal(t, 12000.0, lib.Magnitude)
	assert.Equal(t, "city", lib.Source)

	lane := b.Features[1]
	assert.Equal(t, KindLine, lane.Kind)
	assert.Len(t, lane.Path, 4)
	assert.Equal(t, 0.0, lane.Magnitude, "null magnitude is zero")

	park := b.Features[2]
	assert.Equal(t, KindPolygon, park.Kind)
	require.Len(t, park.Shape, 1)
	assert.Len(t, park.Shape[0], 2, "counter-clockwise ring is a hole")
}

func TestDecodeArcGIS_ServiceError(t *testing.T) {
	body := `{"error": {"code": 400, "message": "Invalid query parameters"}}`

	_, err := DecodeArcGIS(strings.NewReader(body), Spec{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid query parameters")
}

func TestDecodeArcGIS_InvalidJSON(t *testing.T) {
	_, err := DecodeArcGIS(strings.NewReader("{"), Spec{})
	require.Error(t, err)
}

func TestAttributeString_LargeIntegerKeepsDigits(t *testing.T) {
	b, err := DecodeArcGIS(strings.NewReader(arcgisFixture), Spec{IDField: "OBJECTID"})
	require.NoError(t, err)
	assert.Equal(t, "12345678901", b.Features[len(b.Features)-1].ID)
}

func TestDecodeArcGIS_SpatialReference(t *testing.T) {
	tests := []struct {
		name    string
		sr      string
		wantErr bool
	}{
		{"wgs84", `{"wkid": 4326}`, false},
		{"latest wins", `{"wkid": 4326, "latestWkid": 4326}`, false},
		{"no wkid", `{}`, false},
		{"web mercator", `{"wkid": 102100, "latestWkid": 3857}`, true},
		{"utm", `{"wkid": 26917}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"spatialReference": ` + tt.sr + `, "features": [{"attributes": {}, "geometry": {"x": 1, "y": 1}}]}`
			b, err := DecodeArcGIS(strings.NewReader(body), Spec{})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "not WGS84")
				return
			}
			require.NoError(t, err)
			assert.Len(t, b.Features, 1)
		})
	}
}

func TestLookupFold_CaseCollisionIsStable(t *testing.T) {
	attrs := map[string]string{"Type": "park", "TYPE": "school", "tYPE": "library"}
	for range 200 {
		assert.Equal(t, "school", lookupFold(attrs, "type"))
	}
	assert.Equal(t, "park", lookupFold(attrs, "Type"), "exact key wins")
	assert.Equal(t, "", lookupFold(attrs, "kind"))
}
