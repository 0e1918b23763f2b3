package pipeline

import (
	"context"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/hoodscore-cli/internal/assign"
	"github.com/sells-group/hoodscore-cli/internal/config"
	"github.com/sells-group/hoodscore-cli/internal/feature"
)

// maxDatasetConcurrency bounds how many datasets are decoded at once.
const maxDatasetConcurrency = 4

// DatasetResult is one dataset after decoding and assignment.
type DatasetResult struct {
	Name       string
	Batch      *feature.Batch
	Assignment *assign.Result
}

// FeatureSpec maps a dataset configuration onto the decoder spec.
func FeatureSpec(d config.DatasetConfig) feature.CSVSpec {
	return feature.CSVSpec{
		Spec: feature.Spec{
			Source:          d.Name,
			IDField:         d.IDField,
			CategoryField:   d.CategoryField,
			MagnitudeField:  d.MagnitudeField,
			Categories:      d.Categories,
			LengthMagnitude: d.LengthMagnitude,
		},
		LatColumn:  d.LatColumn,
		LonColumn:  d.LonColumn,
		PathColumn: d.PathColumn,
		Delimiter:  d.Delimiter,
	}
}

// LoadDataset decodes one dataset file.
func LoadDataset(ctx context.Context, d config.DatasetConfig) (*feature.Batch, error) {
	format, err := feature.ParseFormat(d.Format)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: dataset %s", d.Name)
	}
	if d.Delimiter != "" && utf8.RuneCountInString(d.Delimiter) != 1 {
		return nil, eris.Errorf("pipeline: dataset %s: delimiter must be one character", d.Name)
	}
	b, err := feature.LoadFile(ctx, d.Path, format, FeatureSpec(d))
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: dataset %s", d.Name)
	}
	return b, nil
}

// AssignDatasets decodes and assigns every dataset. Datasets run in
// parallel; they share the engine, which is read-only.
func (p *Pipeline) AssignDatasets(ctx context.Context, engine *assign.Engine, datasets []config.DatasetConfig) (map[string]*DatasetResult, error) {
	results := make([]*DatasetResult, len(datasets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxDatasetConcurrency)
	for i, d := range datasets {
		g.Go(func() error {
			b, err := LoadDataset(gctx, d)
			if err != nil {
				return err
			}
			results[i] = &DatasetResult{
				Name:       d.Name,
				Batch:      b,
				Assignment: engine.Assign(b.Features),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*DatasetResult, len(results))
	for _, r := range results {
		out[r.Name] = r
		p.log.Info("assigned dataset",
			zap.String("dataset", r.Name),
			zap.Int("features", len(r.Batch.Features)),
			zap.Int("assigned", r.Assignment.Assigned()),
			zap.Int("unassigned", len(r.Assignment.Unassigned)),
			zap.Int("malformed", r.Batch.Malformed),
			zap.Int("missing_geometry", r.Batch.MissingGeometry+r.Assignment.MissingGeometry),
		)
	}
	return out, nil
}
