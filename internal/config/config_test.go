package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.Boundaries.IDField)
	assert.Equal(t, "name", cfg.Boundaries.NameField)
	assert.Equal(t, "GEOID", cfg.Tracts.IDField)
	assert.Equal(t, "default", cfg.Scoring.Profile)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Output.Precision)
	assert.Equal(t, 5, cfg.Output.TopN)
	assert.Equal(t, "hoodscore.db", cfg.Store.SQLitePath)
	assert.Equal(t, "https://overpass-api.de/api/interpreter", cfg.Overpass.Endpoint)
	assert.Equal(t, 180, cfg.Overpass.TimeoutSecs)
	assert.InDelta(t, 0.5, cfg.Overpass.RequestsPerSecond, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Tracts.Enabled())
}

const sampleYAML = `
boundaries:
  path: hoods.geojson
  id_field: AREA_ID
  population_field: POP2021
datasets:
  - name: libraries
    path: libraries.csv
    lat_column: lat
    lon_column: lon
    categories: [branch, district]
  - name: bike
    path: bike.geojson
    format: geojson
    length_magnitude: true
tracts:
  geometry_path: tracts.shp
  attributes_path: canopy.xlsx
  attributes: [canopy_pct]
lookups:
  - name: walk
    path: walk.csv
    id_column: hood
    value_column: score
metrics:
  - name: library_density
    measure: count_per_1000
    source: libraries
  - name: bike_km
    measure: sum_per_km2
    source: bike
    percentile: 0.75
    fallback: 3
  - name: canopy
    measure: tract_mean
    source: canopy_pct
    threshold: 40
  - name: walkability
    measure: lookup
    source: walk
scoring:
  profile: livability
  components:
    - {metric: library_density, weight: 40}
    - {metric: bike_km, weight: 30}
    - {metric: canopy, weight: 30}
  bonuses:
    - {name: walk, metric: walkability, points_per_unit: 0.1, cap: 5}
  penalties:
    - {name: rural, min_area_km2: 50, max_density: 100, multiplier: 0.5}
log:
  level: debug
  format: console
`

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hoodscore.yaml"), []byte(sampleYAML), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hoods.geojson", cfg.Boundaries.Path)
	assert.Equal(t, "AREA_ID", cfg.Boundaries.IDField)
	assert.Equal(t, "name", cfg.Boundaries.NameField, "defaults still apply")
	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, []string{"branch", "district"}, cfg.Datasets[0].Categories)
	assert.True(t, cfg.Datasets[1].LengthMagnitude)
	assert.True(t, cfg.Tracts.Enabled())
	assert.Equal(t, "GEOID", cfg.Tracts.AttributeIDColumn)

	require.Len(t, cfg.Metrics, 4)
	assert.InDelta(t, DefaultPercentile, cfg.Metrics[0].Percentile, 1e-9)
	assert.InDelta(t, DefaultFallback, cfg.Metrics[0].Fallback, 1e-9)
	assert.InDelta(t, 0.75, cfg.Metrics[1].Percentile, 1e-9)
	assert.InDelta(t, 3, cfg.Metrics[1].Fallback, 1e-9)
	assert.InDelta(t, 40, cfg.Metrics[2].Threshold, 1e-9)

	assert.Equal(t, "livability", cfg.Scoring.Profile)
	require.Len(t, cfg.Scoring.Components, 3)
	assert.InDelta(t, 40, cfg.Scoring.Components[0].Weight, 1e-9)
	require.Len(t, cfg.Scoring.Penalties, 1)
	assert.InDelta(t, 0.5, cfg.Scoring.Penalties[0].Multiplier, 1e-9)
	assert.Equal(t, "console", cfg.Log.Format)

	require.NoError(t, cfg.Validate())
}

func TestLoadExplicitPath(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("boundaries:\n  path: b.shp\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "b.shp", cfg.Boundaries.Path)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hoodscore.yaml"), []byte(sampleYAML), 0o644))

	t.Setenv("HOODSCORE_LOG_LEVEL", "warn")
	t.Setenv("HOODSCORE_OUTPUT_FORMAT", "csv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "csv", cfg.Output.Format)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HOODSCORE_OUTPUT_TOP_N=12\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("HOODSCORE_OUTPUT_TOP_N") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Output.TopN)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
