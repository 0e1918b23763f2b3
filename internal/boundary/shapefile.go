package boundary

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/geometry"
)

// LoadShapefile reads polygon records from a shapefile. Attribute names are
// matched case-insensitively.
func LoadShapefile(path string, opts Options) ([]*Neighbourhood, LoadStats, error) {
	opts = opts.withDefaults()

	reader, err := shp.Open(path)
	if err != nil {
		return nil, LoadStats{}, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, opts.IDField)
	if idIdx < 0 {
		return nil, LoadStats{}, eris.Errorf("boundary: shapefile %s has no %q field", path, opts.IDField)
	}
	nameIdx := fieldIndex(reader, opts.NameField)
	popIdx := fieldIndex(reader, opts.PopulationField)
	areaIdx := fieldIndex(reader, opts.AreaField)

	var stats LoadStats
	var out []*Neighbourhood
	for reader.Next() {
		stats.Records++
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			stats.MissingGeometry++
			continue
		}
		mp := ShapePolygon(poly)
		if len(mp) == 0 {
			stats.MissingGeometry++
			continue
		}

		id := attribute(reader, idIdx)
		if id == "" {
			stats.MissingID++
			continue
		}
		n := &Neighbourhood{ID: id, Name: attribute(reader, nameIdx), Geometry: mp}
		if popIdx >= 0 {
			n.Population = parseOptionalFloat(attribute(reader, popIdx))
		}
		if areaIdx >= 0 {
			if a := parseOptionalFloat(attribute(reader, areaIdx)); a != nil {
				n.AreaKM2 = *a
			}
		}
		out = append(out, n)
	}
	return out, stats, nil
}

// ShapePolygon converts a shapefile polygon record into polygons with holes.
// Shapefiles store exterior rings clockwise and holes counter-clockwise.
func ShapePolygon(p *shp.Polygon) orb.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	rings := make([]orb.Ring, 0, p.NumParts)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || end-start < 3 {
			continue
		}

		ring := make(orb.Ring, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{p.Points[j].X, p.Points[j].Y})
		}
		rings = append(rings, ring)
	}
	return geometry.AssembleRings(rings)
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	if name == "" {
		return -1
	}
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

func attribute(reader *shp.Reader, idx int) string {
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}
