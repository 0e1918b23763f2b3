package boundary

import (
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// LoadGeoJSON reads a FeatureCollection of Polygon/MultiPolygon features.
// The feature id is taken from the IDField property, falling back to the
// GeoJSON feature id.
func LoadGeoJSON(r io.Reader, opts Options) ([]*Neighbourhood, LoadStats, error) {
	opts = opts.withDefaults()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, LoadStats{}, eris.Wrap(err, "boundary: read geojson")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, LoadStats{}, eris.Wrap(err, "boundary: decode geojson")
	}

	var stats LoadStats
	var out []*Neighbourhood
	for _, f := range fc.Features {
		stats.Records++

		mp := PolygonalGeometry(f.Geometry)
		if len(mp) == 0 {
			stats.MissingGeometry++
			continue
		}

		id := PropertyString(f.Properties, opts.IDField)
		if id == "" && f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		if id == "" {
			stats.MissingID++
			continue
		}

		n := &Neighbourhood{
			ID:       id,
			Name:     PropertyString(f.Properties, opts.NameField),
			Geometry: mp,
		}
		if opts.PopulationField != "" {
			n.Population = parseOptionalFloat(PropertyString(f.Properties, opts.PopulationField))
		}
		if opts.AreaField != "" {
			if a := parseOptionalFloat(PropertyString(f.Properties, opts.AreaField)); a != nil {
				n.AreaKM2 = *a
			}
		}
		out = append(out, n)
	}
	return out, stats, nil
}

// PolygonalGeometry returns g as a multi-polygon, or nil when g has no
// polygonal part with a usable exterior ring.
func PolygonalGeometry(g orb.Geometry) orb.MultiPolygon {
	var mp orb.MultiPolygon
	switch v := g.(type) {
	case orb.Polygon:
		mp = orb.MultiPolygon{v}
	case orb.MultiPolygon:
		mp = v
	case orb.Collection:
		for _, part := range v {
			mp = append(mp, PolygonalGeometry(part)...)
		}
	default:
		return nil
	}

	out := mp[:0:0]
	for _, poly := range mp {
		if len(poly) > 0 && len(poly[0]) >= 3 {
			out = append(out, poly)
		}
	}
	return out
}

// PropertyString renders a GeoJSON property as a string. Numbers are written
// without exponent; missing keys give "".
func PropertyString(props geojson.Properties, key string) string {
	if key == "" || props == nil {
		return ""
	}
	switch v := props[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
