package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/geometry"
)

// arcgisFeatureSet is the body of an ArcGIS REST query response
// (f=json). Only the members the decoder reads are declared.
type arcgisFeatureSet struct {
	SpatialReference *arcgisSpatialReference `json:"spatialReference"`
	Features         []arcgisFeature         `json:"features"`
	Error    *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type arcgisSpatialReference struct {
	WKID       int `json:"wkid"`
	LatestWKID int `json:"latestWkid"`
}

// wkid returns the effective well-known id, latestWkid first. A reference
// without one is assumed to be WGS84.
func (sr *arcgisSpatialReference) wkid() int {
	switch {
	case sr == nil:
		return 4326
	case sr.LatestWKID != 0:
		return sr.LatestWKID
	case sr.WKID != 0:
		return sr.WKID
	}
	return 4326
}

type arcgisFeature struct {
	Attributes map[string]any  `json:"attributes"`
	Geometry   *arcgisGeometry `json:"geometry"`
}

type arcgisGeometry struct {
	X     *float64      `json:"x"`
	Y     *float64      `json:"y"`
	Paths [][][]float64 `json:"paths"`
	Rings [][][]float64 `json:"rings"`
}

// DecodeArcGIS reads an ArcGIS FeatureSet. Point geometries use x/y, lines
// concatenate their paths in order and polygons follow the clockwise
// exterior ring convention.
func DecodeArcGIS(r io.Reader, spec Spec) (*Batch, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var fs arcgisFeatureSet
	if err := dec.Decode(&fs); err != nil {
		return nil, eris.Wrap(err, "feature: decode arcgis feature set")
	}
	if fs.Error != nil {
		return nil, eris.Errorf("feature: arcgis error %d: %s", fs.Error.Code, fs.Error.Message)
	}
	if wkid := fs.SpatialReference.wkid(); wkid != 4326 {
		return nil, eris.Errorf("feature: arcgis spatial reference %d is not WGS84, query with outSR=4326", wkid)
	}

	b := &Batch{Source: spec.Source}
	for i, af := range fs.Features {
		attrs := make(map[string]string, len(af.Attributes))
		for k, v := range af.Attributes {
			attrs[k] = attributeString(v)
		}

		f := RawFeature{
			ID:         lookupFold(attrs, spec.IDField),
			Category:   lookupFold(attrs, spec.CategoryField),
			Attributes: attrs,
		}
		if f.ID == "" {
			f.ID = fmt.Sprintf("%d", i+1)
		}
		if !arcgisShape(af.Geometry, &f) {
			b.MissingGeometry++
			continue
		}
		b.add(spec, f, lookupFold(attrs, spec.MagnitudeField))
	}
	return b, nil
}

func arcgisShape(g *arcgisGeometry, f *RawFeature) bool {
	switch {
	case g == nil:
		return false
	case g.X != nil && g.Y != nil:
		f.Kind, f.Point = KindPoint, orb.Point{*g.X, *g.Y}
		return geometry.ValidPoint(f.Point)
	case len(g.Paths) > 0:
		var ls orb.LineString
		for _, path := range g.Paths {
			ls = append(ls, coordsToPoints(path)...)
		}
		f.Kind, f.Path = KindLine, ls
		return validPath(ls)
	case len(g.Rings) > 0:
		rings := make([]orb.Ring, 0, len(g.Rings))
		for _, ring := range g.Rings {
			rings = append(rings, orb.Ring(coordsToPoints(ring)))
		}
		f.Kind, f.Shape = KindPolygon, geometry.AssembleRings(rings)
		return len(f.Shape) > 0
	}
	return false
}

func coordsToPoints(coords [][]float64) []orb.Point {
	out := make([]orb.Point, 0, len(coords))
	for _, c := range coords {
		if len(c) >= 2 {
			out = append(out, orb.Point{c[0], c[1]})
		}
	}
	return out
}

// attributeString renders a decoded JSON attribute. Numbers keep their
// literal text so integer ids are not reformatted.
func attributeString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(t)
		return strings.TrimSpace(buf.String())
	}
}

// lookupFold finds key in attrs ignoring case. An exact match wins; among
// keys differing only by case the lexically smallest is used.
func lookupFold(attrs map[string]string, key string) string {
	if key == "" {
		return ""
	}
	if v, ok := attrs[key]; ok {
		return v
	}
	match, found := "", false
	for k := range attrs {
		if strings.EqualFold(k, key) && (!found || k < match) {
			match, found = k, true
		}
	}
	if !found {
		return ""
	}
	return attrs[match]
}
