package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/config"
	"github.com/sells-group/hoodscore-cli/internal/pipeline"
	"github.com/sells-group/hoodscore-cli/internal/report"
	"github.com/sells-group/hoodscore-cli/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the per-neighbourhood score table",
	Long:  "Loads the boundary set and every configured dataset, tract file and lookup table, then writes one row per neighbourhood with its metrics and composite score.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "score"))

		runCfg := *cfg
		runCfg.Output = outputOverrides(cmd, cfg.Output)
		out := runCfg.Output
		save, _ := cmd.Flags().GetString("save")

		res, err := pipeline.Run(ctx, &runCfg)
		if err != nil {
			return eris.Wrap(err, "score")
		}

		if err := writeTable(os.Stdout, res.Table, out.Path, out.Format, out.Precision); err != nil {
			return err
		}
		if out.Path != "" {
			log.Info("score table written",
				zap.String("path", out.Path),
				zap.String("format", out.Format),
				zap.Int("rows", len(res.Table.Rows)),
			)
		}

		if out.TopN > 0 {
			_, _ = fmt.Fprintln(os.Stderr)
			report.PrintSummary(os.Stderr, res.Summary)
		}

		if save != "" {
			return saveRun(ctx, save, res)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().String("output", "", "write the score table to this file instead of stdout")
	scoreCmd.Flags().String("format", "table", "output format: table, csv or xlsx")
	scoreCmd.Flags().Int("top", 5, "number of top and bottom neighbourhoods in the summary (0 to skip)")
	scoreCmd.Flags().String("save", "", "save the run to a store: sqlite or postgres")
	rootCmd.AddCommand(scoreCmd)
}

// outputOverrides applies the flags the user set on top of the configured
// output section.
func outputOverrides(cmd *cobra.Command, out config.OutputConfig) config.OutputConfig {
	if cmd.Flags().Changed("output") {
		out.Path, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("format") {
		out.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("top") {
		out.TopN, _ = cmd.Flags().GetInt("top")
	}
	return out
}

// writeTable renders t in format, to path when set and to stdout otherwise.
// The xlsx format always needs a path.
func writeTable(stdout io.Writer, t *report.Table, path, format string, precision int) error {
	if format == "xlsx" {
		if path == "" {
			return eris.New("score: --output is required for xlsx")
		}
		return report.WriteXLSX(path, t)
	}

	out := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "score: create %s", path)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	switch format {
	case "csv":
		return report.WriteCSV(out, t, precision)
	case "table", "":
		report.Print(out, t, precision)
		return nil
	default:
		return eris.Errorf("score: unsupported format %q", format)
	}
}

// boundarySaver is implemented by stores that keep the boundary geometry
// next to the runs.
type boundarySaver interface {
	SaveBoundaries(ctx context.Context, set *boundary.Set) (int64, error)
}

func saveRun(ctx context.Context, driver string, res *pipeline.Result) error {
	st, err := initStore(ctx, driver)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	run, err := st.SaveRun(ctx, store.RunMeta{
		Profile:    res.Scoring.Profile,
		ConfigHash: res.ProfileHash,
	}, res.Table)
	if err != nil {
		return eris.Wrap(err, "score: save run")
	}

	if bs, ok := st.(boundarySaver); ok {
		n, err := bs.SaveBoundaries(ctx, res.Set)
		if err != nil {
			return eris.Wrap(err, "score: save boundaries")
		}
		zap.L().Info("boundaries saved", zap.Int64("rows", n))
	}

	_, _ = fmt.Fprintf(os.Stderr, "Saved run %s (%d neighbourhoods)\n", run.ID, run.Neighbourhoods)
	return nil
}
