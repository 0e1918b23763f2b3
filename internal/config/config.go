package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full run configuration. It is loaded once at startup and
// passed by reference; nothing mutates it afterwards.
type Config struct {
	Boundaries BoundaryConfig  `yaml:"boundaries" mapstructure:"boundaries"`
	Datasets   []DatasetConfig `yaml:"datasets" mapstructure:"datasets"`
	Tracts     TractConfig     `yaml:"tracts" mapstructure:"tracts"`
	Lookups    []LookupConfig  `yaml:"lookups" mapstructure:"lookups"`
	Aliases    string          `yaml:"aliases" mapstructure:"aliases"`
	Metrics    []MetricConfig  `yaml:"metrics" mapstructure:"metrics"`
	Scoring    ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Output     OutputConfig    `yaml:"output" mapstructure:"output"`
	Store      StoreConfig     `yaml:"store" mapstructure:"store"`
	Overpass   OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	Log        LogConfig       `yaml:"log" mapstructure:"log"`
}

// BoundaryConfig locates the neighbourhood boundary source.
type BoundaryConfig struct {
	Path            string `yaml:"path" mapstructure:"path"`
	IDField         string `yaml:"id_field" mapstructure:"id_field"`
	NameField       string `yaml:"name_field" mapstructure:"name_field"`
	PopulationField string `yaml:"population_field" mapstructure:"population_field"`
	AreaField       string `yaml:"area_field" mapstructure:"area_field"`
}

// DatasetConfig describes one feature dataset.
type DatasetConfig struct {
	Name            string   `yaml:"name" mapstructure:"name"`
	Path            string   `yaml:"path" mapstructure:"path"`
	Format          string   `yaml:"format" mapstructure:"format"`
	IDField         string   `yaml:"id_field" mapstructure:"id_field"`
	CategoryField   string   `yaml:"category_field" mapstructure:"category_field"`
	MagnitudeField  string   `yaml:"magnitude_field" mapstructure:"magnitude_field"`
	Categories      []string `yaml:"categories" mapstructure:"categories"`
	LengthMagnitude bool     `yaml:"length_magnitude" mapstructure:"length_magnitude"`
	LatColumn       string   `yaml:"lat_column" mapstructure:"lat_column"`
	LonColumn       string   `yaml:"lon_column" mapstructure:"lon_column"`
	PathColumn      string   `yaml:"path_column" mapstructure:"path_column"`
	Delimiter       string   `yaml:"delimiter" mapstructure:"delimiter"`
}

// TractConfig locates the finer polygons aggregated onto neighbourhoods.
// Geometry and attributes may live in separate files joined on the tract id.
type TractConfig struct {
	GeometryPath      string   `yaml:"geometry_path" mapstructure:"geometry_path"`
	IDField           string   `yaml:"id_field" mapstructure:"id_field"`
	AttributesPath    string   `yaml:"attributes_path" mapstructure:"attributes_path"`
	AttributeIDColumn string   `yaml:"attribute_id_column" mapstructure:"attribute_id_column"`
	Attributes        []string `yaml:"attributes" mapstructure:"attributes"`
}

// Enabled reports whether tract aggregation is configured.
func (t TractConfig) Enabled() bool {
	return t.GeometryPath != ""
}

// LookupConfig describes a precomputed id-to-score table.
type LookupConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Path        string `yaml:"path" mapstructure:"path"`
	IDColumn    string `yaml:"id_column" mapstructure:"id_column"`
	ValueColumn string `yaml:"value_column" mapstructure:"value_column"`
	// ByName keys the table by neighbourhood name, resolved through the
	// alias file.
	ByName bool `yaml:"by_name" mapstructure:"by_name"`
}

// MetricConfig defines one raw measure and how it is normalized.
type MetricConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Measure string `yaml:"measure" mapstructure:"measure"`
	// Source is the dataset, lookup or tract attribute the measure reads.
	Source     string  `yaml:"source" mapstructure:"source"`
	Percentile float64 `yaml:"percentile" mapstructure:"percentile"`
	Fallback   float64 `yaml:"fallback" mapstructure:"fallback"`
	// Threshold, when positive, replaces the percentile-derived threshold.
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// ScoringConfig is a composite scoring profile.
type ScoringConfig struct {
	Profile    string            `yaml:"profile" mapstructure:"profile"`
	Components []ComponentWeight `yaml:"components" mapstructure:"components"`
	Bonuses    []BonusRule       `yaml:"bonuses" mapstructure:"bonuses"`
	Penalties  []PenaltyRule     `yaml:"penalties" mapstructure:"penalties"`
	MinScore   float64           `yaml:"min_score" mapstructure:"min_score"`
}

// ComponentWeight weights one normalized metric. Weights sum to 100.
type ComponentWeight struct {
	Metric string  `yaml:"metric" mapstructure:"metric"`
	Weight float64 `yaml:"weight" mapstructure:"weight"`
}

// BonusRule adds points per unit of a raw metric, capped.
type BonusRule struct {
	Name          string  `yaml:"name" mapstructure:"name"`
	Metric        string  `yaml:"metric" mapstructure:"metric"`
	PointsPerUnit float64 `yaml:"points_per_unit" mapstructure:"points_per_unit"`
	Cap           float64 `yaml:"cap" mapstructure:"cap"`
}

// PenaltyRule multiplies the score of large, sparsely populated
// neighbourhoods.
type PenaltyRule struct {
	Name       string  `yaml:"name" mapstructure:"name"`
	MinAreaKM2 float64 `yaml:"min_area_km2" mapstructure:"min_area_km2"`
	MaxDensity float64 `yaml:"max_density" mapstructure:"max_density"`
	Multiplier float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// OutputConfig configures the score table sink.
type OutputConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	Format    string `yaml:"format" mapstructure:"format"`
	Precision int    `yaml:"precision" mapstructure:"precision"`
	TopN      int    `yaml:"top_n" mapstructure:"top_n"`
}

// StoreConfig configures where runs are saved.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OverpassConfig configures the fetch overpass command.
type OverpassConfig struct {
	Endpoint          string  `yaml:"endpoint" mapstructure:"endpoint"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from an optional .env file, the YAML file at
// path (or ./hoodscore.yaml when path is empty) and HOODSCORE_* environment
// variables, in increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hoodscore")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("HOODSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("boundaries.id_field", "id")
	v.SetDefault("boundaries.name_field", "name")
	v.SetDefault("tracts.id_field", "GEOID")
	v.SetDefault("tracts.attribute_id_column", "GEOID")
	v.SetDefault("scoring.profile", "default")
	v.SetDefault("output.format", "table")
	v.SetDefault("output.precision", 2)
	v.SetDefault("output.top_n", 5)
	v.SetDefault("store.driver", "")
	v.SetDefault("store.sqlite_path", "hoodscore.db")
	v.SetDefault("overpass.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 180)
	v.SetDefault("overpass.requests_per_second", 0.5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrapf(err, "config: read file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	for i := range cfg.Metrics {
		if cfg.Metrics[i].Percentile == 0 {
			cfg.Metrics[i].Percentile = DefaultPercentile
		}
		if cfg.Metrics[i].Fallback == 0 {
			cfg.Metrics[i].Fallback = DefaultFallback
		}
	}

	return &cfg, nil
}

// Defaults applied to metrics that leave them unset.
const (
	DefaultPercentile = 0.9
	DefaultFallback   = 1.0
)

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
