package pipeline

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/aggregate"
	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/config"
	"github.com/sells-group/hoodscore-cli/internal/metric"
	"github.com/sells-group/hoodscore-cli/internal/report"
	"github.com/sells-group/hoodscore-cli/internal/scorer"
)

// buildColumn computes one raw measure for every neighbourhood.
func (p *Pipeline) buildColumn(
	m config.MetricConfig,
	set *boundary.Set,
	datasets map[string]*DatasetResult,
	tracts *aggregate.Result,
	lookups map[string]map[string]float64,
) (metric.Column, error) {
	kind, err := metric.ParseKind(m.Measure)
	if err != nil {
		return metric.Column{}, eris.Wrapf(err, "pipeline: metric %s", m.Name)
	}

	switch {
	case kind.FeatureBased():
		ds, ok := datasets[m.Source]
		if !ok {
			return metric.Column{}, eris.Errorf("pipeline: metric %s: dataset %q not loaded", m.Name, m.Source)
		}
		col, err := metric.FromAssignment(m.Name, kind, set, ds.Assignment)
		if err != nil {
			return metric.Column{}, eris.Wrapf(err, "pipeline: metric %s", m.Name)
		}
		return col, nil

	case kind == metric.Lookup:
		table, ok := lookups[m.Source]
		if !ok {
			return metric.Column{}, eris.Errorf("pipeline: metric %s: lookup %q not loaded", m.Name, m.Source)
		}
		col, unknown := metric.FromTable(m.Name, kind, set, table)
		if len(unknown) > 0 {
			p.log.Warn("lookup ids without a neighbourhood",
				zap.String("metric", m.Name),
				zap.Strings("ids", unknown),
			)
		}
		return col, nil

	default:
		if tracts == nil {
			return metric.Column{}, eris.Errorf("pipeline: metric %s: tract aggregation not configured", m.Name)
		}
		return metric.FromOptional(m.Name, kind, set, tracts.Means[m.Source]), nil
	}
}

// threshold picks the saturation point for a metric: the configured fixed
// threshold, or the nearest-rank percentile of the positive values.
func (p *Pipeline) threshold(m config.MetricConfig, col metric.Column, ids []string) (metric.Threshold, error) {
	if m.Threshold > 0 {
		return metric.Threshold{Value: m.Threshold}, nil
	}
	t, err := metric.ThresholdAt(col.Distribution(ids), m.Percentile, m.Fallback)
	if err != nil {
		return metric.Threshold{}, eris.Wrapf(err, "pipeline: metric %s", m.Name)
	}
	if t.Fallback {
		p.log.Warn("no positive values for metric, using fallback threshold",
			zap.String("metric", m.Name),
			zap.Float64("fallback", t.Value),
		)
	}
	return t, nil
}

// score normalizes every column and computes the composite per
// neighbourhood, in id order.
func (p *Pipeline) score(set *boundary.Set, scoring config.ScoringConfig, cols map[string]metric.Column, thresholds map[string]metric.Threshold) []scorer.Result {
	normalized := make(map[string]map[string]*float64, len(cols))
	for name, col := range cols {
		normalized[name] = col.Normalized(thresholds[name])
	}

	out := make([]scorer.Result, 0, set.Len())
	noData := 0
	for _, n := range set.All() {
		in := scorer.Input{
			ID:         n.ID,
			Components: make(map[string]*float64, len(cols)),
			Raw:        make(map[string]*float64, len(cols)),
			AreaKM2:    n.AreaKM2,
		}
		in.Density, in.HasDensity = n.Density()
		for name, col := range cols {
			in.Components[name] = normalized[name][n.ID]
			in.Raw[name] = col.Get(n.ID)
		}
		r := scorer.Compute(in, scoring)
		if r.NoData {
			noData++
		}
		out = append(out, r)
	}
	if noData > 0 {
		p.log.Warn("neighbourhoods without data for any component", zap.Int("count", noData))
	}
	return out
}

// table lays the raw metrics and composite out in configuration order, one
// row per neighbourhood.
func (p *Pipeline) table(set *boundary.Set, cols map[string]metric.Column, scores []scorer.Result) *report.Table {
	t := &report.Table{Metrics: make([]string, 0, len(p.cfg.Metrics))}
	for _, m := range p.cfg.Metrics {
		t.Metrics = append(t.Metrics, m.Name)
	}

	for i, n := range set.All() {
		row := report.Row{
			ID:        n.ID,
			Name:      n.Name,
			Values:    make([]*float64, len(t.Metrics)),
			Composite: scores[i].Score,
		}
		for j, name := range t.Metrics {
			row.Values[j] = cols[name].Get(n.ID)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
