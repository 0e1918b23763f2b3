package feature

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/geometry"
)

// DecodeGeoJSON reads a FeatureCollection. Multi-point features use their
// first point and multi-line features concatenate their parts.
func DecodeGeoJSON(r io.Reader, spec Spec) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "feature: read geojson")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrap(err, "feature: decode geojson")
	}

	b := &Batch{Source: spec.Source}
	for i, gf := range fc.Features {
		attrs := make(map[string]string, len(gf.Properties))
		for k := range gf.Properties {
			attrs[k] = boundary.PropertyString(gf.Properties, k)
		}

		f := RawFeature{
			ID:         lookupFold(attrs, spec.IDField),
			Category:   lookupFold(attrs, spec.CategoryField),
			Attributes: attrs,
		}
		if f.ID == "" && gf.ID != nil {
			f.ID = boundary.PropertyString(geojson.Properties{"id": gf.ID}, "id")
		}
		if f.ID == "" {
			f.ID = fmt.Sprintf("%d", i+1)
		}
		if !geojsonShape(gf.Geometry, &f) {
			b.MissingGeometry++
			continue
		}
		b.add(spec, f, lookupFold(attrs, spec.MagnitudeField))
	}
	return b, nil
}

func geojsonShape(g orb.Geometry, f *RawFeature) bool {
	switch v := g.(type) {
	case orb.Point:
		f.Kind, f.Point = KindPoint, v
		return geometry.ValidPoint(v)
	case orb.MultiPoint:
		if len(v) == 0 {
			return false
		}
		f.Kind, f.Point = KindPoint, v[0]
		return geometry.ValidPoint(v[0])
	case orb.LineString:
		f.Kind, f.Path = KindLine, v
		return validPath(v)
	case orb.MultiLineString:
		var ls orb.LineString
		for _, part := range v {
			ls = append(ls, part...)
		}
		f.Kind, f.Path = KindLine, ls
		return validPath(ls)
	case orb.Polygon, orb.MultiPolygon:
		f.Kind, f.Shape = KindPolygon, boundary.PolygonalGeometry(v)
		return len(f.Shape) > 0
	}
	return false
}
