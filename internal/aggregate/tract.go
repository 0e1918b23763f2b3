// Package aggregate rolls finer polygons, such as census tracts, up to the
// neighbourhood whose boundary contains each polygon's centroid.
package aggregate

import (
	"context"
	"sort"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/tabular"
)

// Tract is one finer polygon and its numeric attributes. An attribute
// absent from the map has no data for this tract.
type Tract struct {
	ID         string
	Geometry   orb.MultiPolygon
	Attributes map[string]float64
}

// TractSpec names the join columns and the attributes to read.
type TractSpec struct {
	IDField           string
	AttributeIDColumn string
	Attributes        []string
}

// LoadStats counts tracts dropped while joining geometry and attributes.
type LoadStats struct {
	Geometries      int
	MissingGeometry int
	NoAttributes    int
	Malformed       int
}

// LoadTracts reads tract polygons from geometryPath (GeoJSON, shapefile or
// a zipped shapefile) and joins the attribute table at attributesPath on
// the tract id. Tracts without a row in the table keep an empty attribute
// map.
func LoadTracts(ctx context.Context, geometryPath, attributesPath string, spec TractSpec) ([]Tract, LoadStats, error) {
	items, bstats, err := boundary.Load(geometryPath, boundary.Options{IDField: spec.IDField})
	if err != nil {
		return nil, LoadStats{}, eris.Wrap(err, "aggregate: load tract geometry")
	}
	stats := LoadStats{Geometries: len(items), MissingGeometry: bstats.MissingGeometry + bstats.MissingID}

	byID := make(map[string]*Tract, len(items))
	order := make([]string, 0, len(items))
	for _, n := range items {
		if t, ok := byID[n.ID]; ok {
			t.Geometry = append(t.Geometry, n.Geometry...)
			continue
		}
		byID[n.ID] = &Tract{ID: n.ID, Geometry: n.Geometry, Attributes: map[string]float64{}}
		order = append(order, n.ID)
	}

	if attributesPath != "" && len(spec.Attributes) > 0 {
		table, err := tabular.ReadFile(ctx, attributesPath)
		if err != nil {
			return nil, stats, eris.Wrap(err, "aggregate: load tract attributes")
		}
		malformed, err := joinAttributes(table, spec, byID)
		if err != nil {
			return nil, stats, eris.Wrapf(err, "aggregate: tract attributes %s", attributesPath)
		}
		stats.Malformed = malformed + table.Skipped
	}

	sort.Strings(order)
	out := make([]Tract, 0, len(order))
	for _, id := range order {
		t := byID[id]
		if len(spec.Attributes) > 0 && len(t.Attributes) == 0 {
			stats.NoAttributes++
		}
		out = append(out, *t)
	}

	if stats.MissingGeometry > 0 || stats.NoAttributes > 0 || stats.Malformed > 0 {
		zap.L().Warn("aggregate: tracts skipped or incomplete",
			zap.String("geometry", geometryPath),
			zap.Int("missing_geometry", stats.MissingGeometry),
			zap.Int("no_attributes", stats.NoAttributes),
			zap.Int("malformed", stats.Malformed),
		)
	}
	return out, stats, nil
}

// joinAttributes copies every parsable attribute cell onto the matching
// tract. Blank cells stay missing; unparsable cells are counted.
func joinAttributes(table *tabular.Table, spec TractSpec, byID map[string]*Tract) (int, error) {
	idCol := spec.AttributeIDColumn
	if idCol == "" {
		idCol = spec.IDField
	}
	if err := table.Require(append([]string{idCol}, spec.Attributes...)...); err != nil {
		return 0, err
	}

	idIdx := table.Col(idCol)
	malformed := 0
	for _, row := range table.Rows {
		t, ok := byID[tabular.Value(row, idIdx)]
		if !ok {
			continue
		}
		for _, attr := range spec.Attributes {
			cell := tabular.Value(row, table.Col(attr))
			if cell == "" {
				continue
			}
			v, ok := tabular.ParseFloat(cell)
			if !ok {
				malformed++
				continue
			}
			t.Attributes[attr] = v
		}
	}
	return malformed, nil
}
