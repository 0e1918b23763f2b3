package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hoodscore-cli/internal/aggregate"
	"github.com/sells-group/hoodscore-cli/internal/assign"
	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/pipeline"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Roll census tract attributes up onto neighbourhoods",
	Long:  "Matches each tract to the neighbourhood containing its centroid and prints the area-weighted mean of every configured attribute.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.Tracts.Enabled() {
			return eris.New("aggregate: tracts.geometry_path is not configured")
		}

		p := pipeline.New(cfg)
		set, err := p.LoadBoundaries()
		if err != nil {
			return err
		}
		res, err := p.AggregateTracts(cmd.Context(), assign.New(set))
		if err != nil {
			return err
		}

		precision, _ := cmd.Flags().GetInt("precision")
		formatAggregate(os.Stdout, set, cfg.Tracts.Attributes, res, precision)
		return nil
	},
}

func init() {
	aggregateCmd.Flags().Int("precision", 2, "decimal places for attribute means")
	rootCmd.AddCommand(aggregateCmd)
}

// formatAggregate writes one row per neighbourhood with its tract count and
// attribute means. Neighbourhoods without a matched tract show "-".
func formatAggregate(out io.Writer, set *boundary.Set, attrs []string, res *aggregate.Result, precision int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprint(w, "ID\tTRACTS")
	for _, a := range attrs {
		_, _ = fmt.Fprintf(w, "\t%s", a)
	}
	_, _ = fmt.Fprintln(w)

	for _, id := range set.IDs() {
		_, _ = fmt.Fprintf(w, "%s\t%d", id, len(res.Members[id]))
		for _, a := range attrs {
			v := "-"
			if m := res.Mean(a, id); m != nil {
				v = strconv.FormatFloat(*m, 'f', precision, 64)
			}
			_, _ = fmt.Fprintf(w, "\t%s", v)
		}
		_, _ = fmt.Fprintln(w)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nUnmatched tracts: %d\n", len(res.Unmatched))
	if res.NoCentroid > 0 {
		_, _ = fmt.Fprintf(out, "Tracts without geometry: %d\n", res.NoCentroid)
	}
}
