// Package feature normalizes upstream open-data payloads (CSV tables, ArcGIS
// feature sets, GeoJSON, Overpass results) into RawFeature values.
package feature

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/sells-group/hoodscore-cli/internal/geometry"
)

// Kind is the geometric shape of a feature.
type Kind string

// Feature kinds.
const (
	KindPoint   Kind = "point"
	KindLine    Kind = "line"
	KindPolygon Kind = "polygon"
)

// RawFeature is one upstream record reduced to a geometry, a category and a
// magnitude. Only the field matching Kind carries geometry.
type RawFeature struct {
	ID         string
	Source     string
	Category   string
	Kind       Kind
	Point      orb.Point
	Path       orb.LineString
	Shape      orb.MultiPolygon
	Magnitude  float64
	Attributes map[string]string
}

// RepresentativePoint returns the point used for containment tests: the
// point itself, the middle vertex of a line, or the vertex centroid of a
// polygon's largest exterior ring.
func (f RawFeature) RepresentativePoint() (orb.Point, bool) {
	var p orb.Point
	switch f.Kind {
	case KindPoint:
		p = f.Point
	case KindLine:
		if len(f.Path) == 0 {
			return orb.Point{}, false
		}
		p = f.Path[len(f.Path)/2]
	case KindPolygon:
		c, ok := geometry.MultiPolygonCentroid(f.Shape)
		if !ok {
			return orb.Point{}, false
		}
		p = c
	default:
		return orb.Point{}, false
	}
	if !geometry.ValidPoint(p) {
		return orb.Point{}, false
	}
	return p, true
}

// Batch is the decoded content of one dataset. Rows that could not be
// parsed and records without usable geometry are counted, not returned.
type Batch struct {
	Source          string
	Features        []RawFeature
	Malformed       int
	MissingGeometry int
	Filtered        int
}

// Spec names the attributes shared by every source shape.
type Spec struct {
	Source         string   `yaml:"source" mapstructure:"source"`
	IDField        string   `yaml:"id_field" mapstructure:"id_field"`
	CategoryField  string   `yaml:"category_field" mapstructure:"category_field"`
	MagnitudeField string   `yaml:"magnitude_field" mapstructure:"magnitude_field"`
	Categories     []string `yaml:"categories" mapstructure:"categories"`
	// LengthMagnitude sets the magnitude of line features to their length in
	// kilometres when no magnitude field is configured.
	LengthMagnitude bool `yaml:"length_magnitude" mapstructure:"length_magnitude"`
}

// accepts reports whether a category passes the configured filter.
func (s Spec) accepts(category string) bool {
	if len(s.Categories) == 0 {
		return true
	}
	for _, c := range s.Categories {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(category)) {
			return true
		}
	}
	return false
}

// magnitude resolves a feature's magnitude from its raw attribute value.
// Without a magnitude field every feature counts once, or by length when
// LengthMagnitude is set. A blank value is zero; an unparsable one reports
// false.
func (s Spec) magnitude(raw string, f *RawFeature) bool {
	if s.MagnitudeField == "" {
		f.Magnitude = 1
		if s.LengthMagnitude && f.Kind == KindLine {
			f.Magnitude = geometry.ApproxLengthKM(f.Path)
		}
		return true
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if raw == "" {
		f.Magnitude = 0
		return true
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return false
	}
	f.Magnitude = v
	return true
}

// add applies the category filter and magnitude, then appends f to the
// batch. Rejected records are counted on the batch.
func (b *Batch) add(spec Spec, f RawFeature, rawMagnitude string) {
	if !spec.accepts(f.Category) {
		b.Filtered++
		return
	}
	if !spec.magnitude(rawMagnitude, &f) {
		b.Malformed++
		return
	}
	if _, ok := f.RepresentativePoint(); !ok {
		b.MissingGeometry++
		return
	}
	f.Source = b.Source
	b.Features = append(b.Features, f)
}

func validPath(ls orb.LineString) bool {
	if len(ls) == 0 {
		return false
	}
	for _, p := range ls {
		if !geometry.ValidPoint(p) {
			return false
		}
	}
	return true
}
