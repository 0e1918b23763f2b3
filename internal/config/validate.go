package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMissingInput is returned when a required input is not configured.
var ErrMissingInput = eris.New("config: required input not configured")

// measureSources maps each measure to the section its source refers to.
var measureSources = map[string]string{
	"count":          "dataset",
	"sum":            "dataset",
	"count_per_km2":  "dataset",
	"sum_per_km2":    "dataset",
	"count_per_1000": "dataset",
	"sum_per_1000":   "dataset",
	"lookup":         "lookup",
	"tract_mean":     "tract attribute",
}

// reservedColumns are the score table headers metric columns sit beside.
// Headers are matched case-insensitively when a table is read back.
var reservedColumns = map[string]bool{"id": true, "name": true, "composite_score": true}

// Validate checks that the configuration is structurally consistent: the
// boundary source is set, names are unique and every metric source
// resolves. Scoring weights are checked separately by the scorer.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Boundaries.Path) == "" {
		return eris.Wrap(ErrMissingInput, "boundaries.path")
	}

	var errs []string

	datasets := make(map[string]bool, len(c.Datasets))
	for i, d := range c.Datasets {
		switch {
		case d.Name == "":
			errs = append(errs, fmt.Sprintf("datasets[%d]: name is required", i))
		case datasets[d.Name]:
			errs = append(errs, fmt.Sprintf("datasets[%d]: duplicate name %q", i, d.Name))
		}
		if d.Path == "" {
			errs = append(errs, fmt.Sprintf("dataset %q: path is required", d.Name))
		}
		datasets[d.Name] = true
	}

	lookups := make(map[string]bool, len(c.Lookups))
	for i, l := range c.Lookups {
		switch {
		case l.Name == "":
			errs = append(errs, fmt.Sprintf("lookups[%d]: name is required", i))
		case lookups[l.Name]:
			errs = append(errs, fmt.Sprintf("lookups[%d]: duplicate name %q", i, l.Name))
		}
		if l.Path == "" || l.IDColumn == "" || l.ValueColumn == "" {
			errs = append(errs, fmt.Sprintf("lookup %q: path, id_column and value_column are required", l.Name))
		}
		if l.ByName && c.Aliases == "" {
			errs = append(errs, fmt.Sprintf("lookup %q: by_name needs an aliases file", l.Name))
		}
		lookups[l.Name] = true
	}

	attrs := make(map[string]bool, len(c.Tracts.Attributes))
	for _, a := range c.Tracts.Attributes {
		attrs[a] = true
	}
	if len(c.Tracts.Attributes) > 0 && !c.Tracts.Enabled() {
		errs = append(errs, "tracts: attributes configured without geometry_path")
	}

	metrics := make(map[string]bool, len(c.Metrics))
	headers := make(map[string]bool, len(c.Metrics))
	for i, m := range c.Metrics {
		header := strings.ToLower(strings.TrimSpace(m.Name))
		switch {
		case m.Name == "":
			errs = append(errs, fmt.Sprintf("metrics[%d]: name is required", i))
		case reservedColumns[header]:
			errs = append(errs, fmt.Sprintf("metrics[%d]: name %q is a reserved column", i, m.Name))
		case headers[header]:
			errs = append(errs, fmt.Sprintf("metrics[%d]: duplicate name %q", i, m.Name))
		}
		metrics[m.Name] = true
		headers[header] = true

		kind, ok := measureSources[strings.ToLower(m.Measure)]
		if !ok {
			errs = append(errs, fmt.Sprintf("metric %q: unknown measure %q", m.Name, m.Measure))
			continue
		}
		var known bool
		switch kind {
		case "dataset":
			known = datasets[m.Source]
		case "lookup":
			known = lookups[m.Source]
		default:
			known = attrs[m.Source]
		}
		if !known {
			errs = append(errs, fmt.Sprintf("metric %q: unknown %s %q", m.Name, kind, m.Source))
		}
		if !(m.Percentile > 0 && m.Percentile < 1) {
			errs = append(errs, fmt.Sprintf("metric %q: percentile must be in (0,1)", m.Name))
		}
		if m.Threshold < 0 {
			errs = append(errs, fmt.Sprintf("metric %q: threshold must be >= 0", m.Name))
		}
	}

	for _, comp := range c.Scoring.Components {
		if !metrics[comp.Metric] {
			errs = append(errs, fmt.Sprintf("scoring component: unknown metric %q", comp.Metric))
		}
	}
	for _, b := range c.Scoring.Bonuses {
		if !metrics[b.Metric] {
			errs = append(errs, fmt.Sprintf("bonus %q: unknown metric %q", b.Name, b.Metric))
		}
	}

	switch c.Output.Format {
	case "", "table", "csv", "xlsx":
	default:
		errs = append(errs, fmt.Sprintf("output.format %q must be table, csv or xlsx", c.Output.Format))
	}
	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Dataset returns the named dataset.
func (c *Config) Dataset(name string) (DatasetConfig, bool) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return DatasetConfig{}, false
}
