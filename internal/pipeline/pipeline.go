// Package pipeline drives one scoring run: boundaries, datasets, tract
// aggregation and lookups in, a per-neighbourhood score table out.
package pipeline

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/aggregate"
	"github.com/sells-group/hoodscore-cli/internal/assign"
	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/config"
	"github.com/sells-group/hoodscore-cli/internal/metric"
	"github.com/sells-group/hoodscore-cli/internal/report"
	"github.com/sells-group/hoodscore-cli/internal/scorer"
)

// Pipeline runs the batch transform for one configuration. The
// configuration is read, never modified.
type Pipeline struct {
	cfg *config.Config
	log *zap.Logger
}

// New creates a Pipeline over cfg.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		log: zap.L().With(zap.String("component", "pipeline")),
	}
}

// Result is everything a run produced.
type Result struct {
	Set         *boundary.Set
	Table       *report.Table
	Scores      []scorer.Result
	Thresholds  map[string]metric.Threshold
	Columns     map[string]metric.Column
	Datasets    map[string]*DatasetResult
	Tracts      *aggregate.Result
	Scoring     config.ScoringConfig
	ProfileHash string
	Summary     report.Summary
}

// Run executes the whole pipeline with cfg.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	return New(cfg).Run(ctx)
}

// Run loads every input, computes the metrics and scores and returns the
// score table in neighbourhood id order. Data problems are counted and
// logged; only a missing boundary set, file or column is fatal.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	scoring, err := p.scoringProfile()
	if err != nil {
		return nil, err
	}

	set, err := p.LoadBoundaries()
	if err != nil {
		return nil, err
	}
	engine := assign.New(set)

	res := &Result{
		Set:         set,
		Scoring:     scoring,
		ProfileHash: scorer.ProfileHash(scoring, p.cfg.Metrics),
		Thresholds:  make(map[string]metric.Threshold, len(p.cfg.Metrics)),
		Columns:     make(map[string]metric.Column, len(p.cfg.Metrics)),
	}

	res.Datasets, err = p.AssignDatasets(ctx, engine, p.cfg.Datasets)
	if err != nil {
		return nil, err
	}
	if p.cfg.Tracts.Enabled() {
		res.Tracts, err = p.AggregateTracts(ctx, engine)
		if err != nil {
			return nil, err
		}
	}
	lookups, err := p.LoadLookups(ctx, set)
	if err != nil {
		return nil, err
	}

	for _, m := range p.cfg.Metrics {
		col, err := p.buildColumn(m, set, res.Datasets, res.Tracts, lookups)
		if err != nil {
			return nil, err
		}
		res.Columns[m.Name] = col

		t, err := p.threshold(m, col, set.IDs())
		if err != nil {
			return nil, err
		}
		res.Thresholds[m.Name] = t
	}

	res.Scores = p.score(set, scoring, res.Columns, res.Thresholds)
	res.Table = p.table(set, res.Columns, res.Scores)
	res.Summary = report.Summarize(res.Table, p.cfg.Output.TopN)
	p.logSummary(res)
	return res, nil
}

// scoringProfile returns the configured profile, or equal weights over
// every metric when no component is configured.
func (p *Pipeline) scoringProfile() (config.ScoringConfig, error) {
	scoring := p.cfg.Scoring
	if len(scoring.Components) == 0 {
		names := make([]string, 0, len(p.cfg.Metrics))
		for _, m := range p.cfg.Metrics {
			names = append(names, m.Name)
		}
		def := scorer.DefaultScoringConfig(names)
		def.Bonuses = scoring.Bonuses
		if len(scoring.Penalties) > 0 {
			def.Penalties = scoring.Penalties
		}
		def.MinScore = scoring.MinScore
		if scoring.Profile != "" {
			def.Profile = scoring.Profile
		}
		scoring = def
	}
	if err := scorer.ValidateConfig(scoring); err != nil {
		return config.ScoringConfig{}, eris.Wrap(err, "pipeline: scoring profile")
	}
	return scoring, nil
}

// LoadBoundaries builds the neighbourhood set. An absent or empty boundary
// source aborts the run.
func (p *Pipeline) LoadBoundaries() (*boundary.Set, error) {
	b := p.cfg.Boundaries
	set, err := boundary.LoadSet(b.Path, boundary.Options{
		IDField:         b.IDField,
		NameField:       b.NameField,
		PopulationField: b.PopulationField,
		AreaField:       b.AreaField,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load boundaries")
	}
	return set, nil
}

func (p *Pipeline) logSummary(res *Result) {
	names := make([]string, 0, len(res.Thresholds))
	for name := range res.Thresholds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := res.Thresholds[name]
		p.log.Info("threshold",
			zap.String("metric", name),
			zap.Float64("percentile", t.Percentile),
			zap.Float64("value", t.Value),
			zap.Int("positive", t.N),
			zap.Bool("fallback", t.Fallback),
		)
	}

	top := make([]string, 0, len(res.Summary.Top))
	for _, r := range res.Summary.Top {
		top = append(top, r.ID)
	}
	bottom := make([]string, 0, len(res.Summary.Bottom))
	for _, r := range res.Summary.Bottom {
		bottom = append(bottom, r.ID)
	}
	p.log.Info("scored neighbourhoods",
		zap.String("profile", res.Scoring.Profile),
		zap.String("profile_hash", res.ProfileHash),
		zap.Int("neighbourhoods", res.Set.Len()),
		zap.Float64("median", res.Summary.Composite.Median),
		zap.Float64("mean", res.Summary.Composite.Mean),
		zap.Strings("top", top),
		zap.Strings("bottom", bottom),
	)
}
