package boundary

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options names the source attributes that carry neighbourhood fields.
type Options struct {
	IDField         string `yaml:"id_field" mapstructure:"id_field"`
	NameField       string `yaml:"name_field" mapstructure:"name_field"`
	PopulationField string `yaml:"population_field" mapstructure:"population_field"`
	AreaField       string `yaml:"area_field" mapstructure:"area_field"`
}

func (o Options) withDefaults() Options {
	if o.IDField == "" {
		o.IDField = "id"
	}
	if o.NameField == "" {
		o.NameField = "name"
	}
	return o
}

// LoadStats counts source records that could not become boundaries.
type LoadStats struct {
	Records         int
	MissingGeometry int
	MissingID       int
}

// Load reads a boundary source from path. GeoJSON (.geojson, .json),
// shapefiles (.shp) and ZIP archives holding a shapefile are supported.
func Load(path string, opts Options) ([]*Neighbourhood, LoadStats, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, LoadStats{}, eris.Wrapf(err, "boundary: boundary file %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, LoadStats{}, eris.Wrapf(err, "boundary: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return LoadGeoJSON(f, opts)

	case ".shp":
		return LoadShapefile(path, opts)

	case ".zip":
		dir, err := os.MkdirTemp("", "hoodscore-boundary-*")
		if err != nil {
			return nil, LoadStats{}, eris.Wrap(err, "boundary: create extract dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		if err := extractZIP(path, dir); err != nil {
			return nil, LoadStats{}, eris.Wrapf(err, "boundary: extract %s", path)
		}
		shpPath, err := findFileByExt(dir, ".shp")
		if err != nil {
			return nil, LoadStats{}, eris.Wrapf(err, "boundary: no shapefile in %s", path)
		}
		return LoadShapefile(shpPath, opts)

	default:
		return nil, LoadStats{}, eris.Errorf("boundary: unsupported boundary format %q", filepath.Ext(path))
	}
}

// LoadSet loads path and builds the neighbourhood Set, logging skipped records.
func LoadSet(path string, opts Options) (*Set, error) {
	items, stats, err := Load(path, opts)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("component", "boundary"))
	if stats.MissingGeometry > 0 || stats.MissingID > 0 {
		log.Warn("skipped boundary records",
			zap.String("path", path),
			zap.Int("missing_geometry", stats.MissingGeometry),
			zap.Int("missing_id", stats.MissingID),
		)
	}

	set, err := NewSet(items)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: %s", path)
	}
	log.Info("boundaries loaded",
		zap.String("path", path),
		zap.Int("records", stats.Records),
		zap.Int("neighbourhoods", set.Len()),
	)
	return set, nil
}

// parseOptionalFloat returns nil for blank or unparsable attribute values.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// extractZIP extracts a ZIP archive to the destination directory.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}
		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}
		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
