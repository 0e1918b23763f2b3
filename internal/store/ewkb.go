package store

import (
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
)

// SRID of every stored boundary.
const SRID = 4326

// EncodeMultiPolygon converts a lon/lat multi-polygon to EWKB bytes with
// SRID 4326. Open rings are closed; rings with fewer than three distinct
// vertices are skipped, and so is a polygon whose exterior is. Returns nil,
// nil when nothing usable is left.
func EncodeMultiPolygon(mp orb.MultiPolygon) ([]byte, error) {
	out := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)

	for i, p := range mp {
		poly := geom.NewPolygon(geom.XY)
		for j, ring := range p {
			if len(ring) < 3 || len(closeRing(ring)) < 4 {
				zap.L().Debug("store: skipping short ring", zap.Int("polygon", i), zap.Int("ring", j))
				if j == 0 {
					break
				}
				continue
			}
			lr := geom.NewLinearRingFlat(geom.XY, flatCoords(closeRing(ring)))
			if err := poly.Push(lr); err != nil {
				zap.L().Debug("store: skipping malformed ring", zap.Int("polygon", i), zap.Error(err))
				continue
			}
		}
		if poly.NumLinearRings() == 0 {
			continue
		}
		if err := out.Push(poly); err != nil {
			zap.L().Debug("store: skipping malformed polygon", zap.Int("polygon", i), zap.Error(err))
			continue
		}
	}

	if out.NumPolygons() == 0 {
		return nil, nil
	}
	data, err := ewkb.Marshal(out, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode EWKB")
	}
	return data, nil
}

// DecodeMultiPolygon parses EWKB produced by EncodeMultiPolygon (or
// PostGIS) back into an orb multi-polygon. A single polygon is promoted.
func DecodeMultiPolygon(data []byte) (orb.MultiPolygon, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "store: decode EWKB")
	}

	var polys []*geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		polys = append(polys, t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			polys = append(polys, t.Polygon(i))
		}
	default:
		return nil, eris.Errorf("store: unexpected geometry %T", g)
	}

	out := make(orb.MultiPolygon, 0, len(polys))
	for _, p := range polys {
		var poly orb.Polygon
		for i := 0; i < p.NumLinearRings(); i++ {
			lr := p.LinearRing(i)
			ring := make(orb.Ring, 0, lr.NumCoords())
			for j := 0; j < lr.NumCoords(); j++ {
				c := lr.Coord(j)
				ring = append(ring, orb.Point{c.X(), c.Y()})
			}
			poly = append(poly, ring)
		}
		out = append(out, poly)
	}
	return out, nil
}

func closeRing(r orb.Ring) orb.Ring {
	if r[0] == r[len(r)-1] {
		return r
	}
	return append(append(orb.Ring(nil), r...), r[0])
}

func flatCoords(r orb.Ring) []float64 {
	flat := make([]float64, 0, len(r)*2)
	for _, p := range r {
		flat = append(flat, p[0], p[1])
	}
	return flat
}
