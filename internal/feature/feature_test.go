package feature

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestRepresentativePoint(t *testing.T) {
	tests := []struct {
		name   string
		f      RawFeature
		want   orb.Point
		wantOK bool
	}{
		{"point", RawFeature{Kind: KindPoint, Point: orb.Point{1, 2}}, orb.Point{1, 2}, true},
		{"odd line uses middle vertex", RawFeature{Kind: KindLine, Path: orb.LineString{{0, 0}, {1, 1}, {9, 9}}}, orb.Point{1, 1}, true},
		{"even line uses upper middle", RawFeature{Kind: KindLine, Path: orb.LineString{{0, 0}, {1, 1}, {2, 2}, {3, 3}}}, orb.Point{2, 2}, true},
		{"empty line", RawFeature{Kind: KindLine}, orb.Point{}, false},
		{"polygon centroid", RawFeature{Kind: KindPolygon, Shape: orb.MultiPolygon{{{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}}}}}, orb.Point{1, 1}, true},
		{"empty polygon", RawFeature{Kind: KindPolygon}, orb.Point{}, false},
		{"out of range point", RawFeature{Kind: KindPoint, Point: orb.Point{200, 0}}, orb.Point{}, false},
		{"unknown kind", RawFeature{}, orb.Point{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.f.RepresentativePoint()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpec_Accepts(t *testing.T) {
	s := Spec{Categories: []string{"Library", " park "}}
	assert.True(t, s.accepts("library"))
	assert.True(t, s.accepts("PARK"))
	assert.False(t, s.accepts("school"))
	assert.True(t, Spec{}.accepts("anything"))
}

func TestSpec_Magnitude(t *testing.T) {
	line := RawFeature{Kind: KindLine, Path: orb.LineString{{0, 0}, {0, 1}}}

	f := line
	assert.True(t, Spec{}.magnitude("", &f))
	assert.Equal(t, 1.0, f.Magnitude)

	f = line
	assert.True(t, Spec{LengthMagnitude: true}.magnitude("", &f))
	assert.InDelta(t, 111.32, f.Magnitude, 0.01)

	f = line
	assert.True(t, Spec{MagnitudeField: "m"}.magnitude("1,250.5", &f))
	assert.Equal(t, 1250.5, f.Magnitude)

	f = line
	assert.True(t, Spec{MagnitudeField: "m"}.magnitude("", &f))
	assert.Equal(t, 0.0, f.Magnitude)

	f = line
	assert.True(t, Spec{MagnitudeField: "m"}.magnitude("35%", &f))
	assert.Equal(t, 35.0, f.Magnitude)

	assert.False(t, Spec{MagnitudeField: "m"}.magnitude("lots", &f))
}
