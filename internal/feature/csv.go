package feature

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/geometry"
	"github.com/sells-group/hoodscore-cli/internal/tabular"
)

// CSVSpec describes a category-tagged feature table. Either LatColumn and
// LonColumn or PathColumn must be set; when both are present a non-empty
// path wins.
type CSVSpec struct {
	Spec       `yaml:",inline" mapstructure:",squash"`
	LatColumn  string `yaml:"lat_column" mapstructure:"lat_column"`
	LonColumn  string `yaml:"lon_column" mapstructure:"lon_column"`
	PathColumn string `yaml:"path_column" mapstructure:"path_column"`
	Delimiter  string `yaml:"delimiter" mapstructure:"delimiter"`
}

func (s CSVSpec) required() []string {
	cols := []string{s.IDField, s.CategoryField, s.MagnitudeField}
	if s.PathColumn != "" {
		cols = append(cols, s.PathColumn)
	}
	if s.LatColumn != "" || s.LonColumn != "" {
		cols = append(cols, s.LatColumn, s.LonColumn)
	}
	return cols
}

// DecodeCSV reads a feature table. A missing configured column is fatal and
// wraps tabular.ErrMissingColumn.
func DecodeCSV(ctx context.Context, r io.Reader, spec CSVSpec) (*Batch, error) {
	if spec.PathColumn == "" && (spec.LatColumn == "" || spec.LonColumn == "") {
		return nil, eris.New("feature: csv spec needs lat_column and lon_column or path_column")
	}

	opts := tabular.CSVOptions{LazyQuotes: true, TrimSpace: true}
	if spec.Delimiter != "" {
		opts.Delimiter = []rune(spec.Delimiter)[0]
	}
	tbl, err := tabular.ReadCSV(ctx, r, opts)
	if err != nil {
		return nil, eris.Wrap(err, "feature: read csv")
	}
	if err := tbl.Require(spec.required()...); err != nil {
		return nil, err
	}

	var (
		idIdx   = tbl.Col(spec.IDField)
		catIdx  = tbl.Col(spec.CategoryField)
		magIdx  = tbl.Col(spec.MagnitudeField)
		latIdx  = tbl.Col(spec.LatColumn)
		lonIdx  = tbl.Col(spec.LonColumn)
		pathIdx = tbl.Col(spec.PathColumn)
	)

	b := &Batch{Source: spec.Source, Malformed: tbl.Skipped}
	for i, row := range tbl.Rows {
		if len(row) != len(tbl.Header) {
			b.Malformed++
			continue
		}

		f := RawFeature{
			ID:         tabular.Value(row, idIdx),
			Category:   tabular.Value(row, catIdx),
			Attributes: make(map[string]string, len(row)),
		}
		if f.ID == "" {
			f.ID = strconv.Itoa(i + 1)
		}
		for j, h := range tbl.Header {
			f.Attributes[h] = row[j]
		}

		ok, malformed := csvGeometry(row, latIdx, lonIdx, pathIdx, &f)
		if malformed {
			b.Malformed++
			continue
		}
		if !ok {
			b.MissingGeometry++
			continue
		}
		b.add(spec.Spec, f, tabular.Value(row, magIdx))
	}
	return b, nil
}

// csvGeometry fills the feature geometry from a row. Blank or out-of-range
// coordinates report ok=false; text that cannot be parsed reports malformed.
func csvGeometry(row []string, latIdx, lonIdx, pathIdx int, f *RawFeature) (ok, malformed bool) {
	if raw := tabular.Value(row, pathIdx); raw != "" {
		path, err := parsePath(raw)
		if err != nil {
			return false, true
		}
		if !validPath(path) {
			return false, false
		}
		if len(path) == 1 {
			f.Kind, f.Point = KindPoint, path[0]
		} else {
			f.Kind, f.Path = KindLine, path
		}
		return true, false
	}

	latRaw, lonRaw := tabular.Value(row, latIdx), tabular.Value(row, lonIdx)
	if latRaw == "" || lonRaw == "" {
		return false, false
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return false, true
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return false, true
	}
	p := orb.Point{lon, lat}
	if !geometry.ValidPoint(p) {
		return false, false
	}
	f.Kind, f.Point = KindPoint, p
	return true, false
}

// parsePath decodes a JSON vertex array of [lon, lat] pairs.
func parsePath(raw string) (orb.LineString, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(raw), &coords); err != nil {
		return nil, eris.Wrap(err, "feature: parse path")
	}
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil, eris.Errorf("feature: path vertex has %d ordinates", len(c))
		}
		ls = append(ls, orb.Point{c[0], c[1]})
	}
	return ls, nil
}

// NormalizedCSVSpec reads EncodeCSV output back into features.
func NormalizedCSVSpec(source string) CSVSpec {
	return CSVSpec{
		Spec: Spec{
			Source:         source,
			IDField:        "id",
			CategoryField:  "category",
			MagnitudeField: "magnitude",
		},
		LatColumn:  "lat",
		LonColumn:  "lon",
		PathColumn: "path",
	}
}

// EncodeCSV writes features in the normalized layout. Lines keep their
// vertex path; polygons are reduced to their representative point.
func EncodeCSV(w io.Writer, features []RawFeature) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "category", "kind", "lat", "lon", "path", "magnitude"}); err != nil {
		return eris.Wrap(err, "feature: write csv header")
	}
	for _, f := range features {
		p, ok := f.RepresentativePoint()
		if !ok {
			continue
		}
		path := ""
		if f.Kind == KindLine {
			coords := make([][2]float64, len(f.Path))
			for i, v := range f.Path {
				coords[i] = [2]float64{v[0], v[1]}
			}
			buf, err := json.Marshal(coords)
			if err != nil {
				return eris.Wrap(err, "feature: encode path")
			}
			path = string(buf)
		}
		err := cw.Write([]string{
			f.ID,
			f.Category,
			string(f.Kind),
			strconv.FormatFloat(p[1], 'f', -1, 64),
			strconv.FormatFloat(p[0], 'f', -1, 64),
			path,
			strconv.FormatFloat(f.Magnitude, 'f', -1, 64),
		})
		if err != nil {
			return eris.Wrap(err, "feature: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "feature: flush csv")
}
