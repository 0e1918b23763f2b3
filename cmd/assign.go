package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hoodscore-cli/internal/assign"
	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/config"
	"github.com/sells-group/hoodscore-cli/internal/pipeline"
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Show how a dataset's features fall into neighbourhoods",
	Long:  "Assigns every feature of one dataset to the first neighbourhood (in id order) containing its representative point and prints per-neighbourhood counts plus the unassigned bucket.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("dataset")
		d, ok := findDataset(cfg.Datasets, name)
		if !ok {
			return eris.Errorf("assign: dataset %q is not configured", name)
		}

		p := pipeline.New(cfg)
		set, err := p.LoadBoundaries()
		if err != nil {
			return err
		}
		results, err := p.AssignDatasets(ctx, assign.New(set), []config.DatasetConfig{d})
		if err != nil {
			return err
		}

		r := results[d.Name]
		formatAssignment(os.Stdout, set, r)
		return nil
	},
}

func init() {
	assignCmd.Flags().String("dataset", "", "configured dataset name")
	_ = assignCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(assignCmd)
}

func findDataset(datasets []config.DatasetConfig, name string) (config.DatasetConfig, bool) {
	for _, d := range datasets {
		if d.Name == name {
			return d, true
		}
	}
	return config.DatasetConfig{}, false
}

// formatAssignment writes per-neighbourhood counts followed by the
// unassigned and skipped totals.
func formatAssignment(out io.Writer, set *boundary.Set, r *pipeline.DatasetResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tFEATURES\tMAGNITUDE")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t---------")
	for _, row := range r.Assignment.Summary(set.IDs()) {
		name := ""
		if n, ok := set.Get(row.ID); ok {
			name = n.Name
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", row.ID, name, row.Count, strconv.FormatFloat(row.Sum, 'f', -1, 64))
	}
	_ = w.Flush()

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "\nAssigned:\t%d\n", r.Assignment.Assigned())
	_, _ = fmt.Fprintf(w, "Unassigned:\t%d\n", len(r.Assignment.Unassigned))
	_, _ = fmt.Fprintf(w, "Missing geometry:\t%d\n", r.Batch.MissingGeometry+r.Assignment.MissingGeometry)
	_, _ = fmt.Fprintf(w, "Malformed rows:\t%d\n", r.Batch.Malformed)
	_, _ = fmt.Fprintf(w, "Filtered:\t%d\n", r.Batch.Filtered)
	_ = w.Flush()
}
