package feature

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Format identifies the upstream payload shape of a dataset.
type Format string

// Supported formats.
const (
	FormatCSV      Format = "csv"
	FormatArcGIS   Format = "arcgis"
	FormatGeoJSON  Format = "geojson"
	FormatOverpass Format = "overpass"
)

// ParseFormat validates a configured format name. An empty name is inferred
// from the file extension by LoadFile.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV, FormatArcGIS, FormatGeoJSON, FormatOverpass:
		return f, nil
	}
	return "", eris.Errorf("feature: unknown format %q", s)
}

func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson":
		return FormatGeoJSON
	case ".json":
		return FormatArcGIS
	default:
		return FormatCSV
	}
}

// LoadFile decodes one dataset file. A missing file is an error naming the
// path. Recoverable record problems are counted on the batch and logged.
func LoadFile(ctx context.Context, path string, format Format, spec CSVSpec) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feature: dataset file %s", path)
	}
	defer f.Close() //nolint:errcheck

	if format == "" {
		format = formatFromPath(path)
	}

	var b *Batch
	switch format {
	case FormatCSV:
		b, err = DecodeCSV(ctx, f, spec)
	case FormatArcGIS:
		b, err = DecodeArcGIS(f, spec.Spec)
	case FormatGeoJSON:
		b, err = DecodeGeoJSON(f, spec.Spec)
	case FormatOverpass:
		res, derr := DecodeOverpassJSON(f)
		if derr != nil {
			return nil, eris.Wrapf(derr, "feature: dataset file %s", path)
		}
		b = FromOverpass(res, spec.Spec)
	default:
		return nil, eris.Errorf("feature: unknown format %q", format)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "feature: dataset file %s", path)
	}

	log := zap.L().With(zap.String("component", "feature"), zap.String("source", spec.Source))
	if b.Malformed > 0 || b.MissingGeometry > 0 {
		log.Warn("skipped unusable feature records",
			zap.String("path", path),
			zap.Int("malformed", b.Malformed),
			zap.Int("missing_geometry", b.MissingGeometry),
		)
	}
	log.Info("loaded features",
		zap.String("format", string(format)),
		zap.Int("features", len(b.Features)),
		zap.Int("filtered", b.Filtered),
	)
	return b, nil
}
