package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/serjvanilla/go-overpass"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/feature"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download feature datasets",
}

// -- fetch overpass --

var fetchOverpassCmd = &cobra.Command{
	Use:   "overpass",
	Short: "Run an Overpass QL query and save the features as CSV",
	Long:  "Runs an Overpass QL query (or reads a saved [out:json] response with --input) and writes the features in the normalized CSV layout datasets can read back.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		queryPath, _ := cmd.Flags().GetString("query")
		inputPath, _ := cmd.Flags().GetString("input")
		outPath, _ := cmd.Flags().GetString("out")
		spec := overpassSpec(cmd)

		var res overpass.Result
		switch {
		case inputPath != "":
			f, err := os.Open(inputPath)
			if err != nil {
				return eris.Wrapf(err, "fetch: open %s", inputPath)
			}
			defer f.Close() //nolint:errcheck
			res, err = feature.DecodeOverpassJSON(f)
			if err != nil {
				return err
			}
		case queryPath != "":
			query, err := os.ReadFile(queryPath)
			if err != nil {
				return eris.Wrapf(err, "fetch: read query %s", queryPath)
			}
			src := feature.NewOverpassSource(
				cfg.Overpass.Endpoint,
				time.Duration(cfg.Overpass.TimeoutSecs)*time.Second,
				cfg.Overpass.RequestsPerSecond,
			)
			res, err = src.Fetch(ctx, string(query))
			if err != nil {
				return err
			}
		default:
			return eris.New("fetch: one of --query or --input is required")
		}

		f, err := os.Create(outPath)
		if err != nil {
			return eris.Wrapf(err, "fetch: create %s", outPath)
		}
		defer f.Close() //nolint:errcheck

		b, err := writeOverpassCSV(f, res, spec)
		if err != nil {
			return err
		}
		zap.L().Info("overpass features written",
			zap.String("path", outPath),
			zap.Int("features", len(b.Features)),
			zap.Int("missing_geometry", b.MissingGeometry),
			zap.Int("filtered", b.Filtered),
			zap.Int("malformed", b.Malformed),
		)
		return nil
	},
}

func init() {
	fetchOverpassCmd.Flags().String("query", "", "file holding the Overpass QL query")
	fetchOverpassCmd.Flags().String("input", "", "saved Overpass JSON response to convert instead of querying")
	fetchOverpassCmd.Flags().String("out", "", "CSV file to write")
	fetchOverpassCmd.Flags().String("source", "osm", "dataset name recorded on each feature")
	fetchOverpassCmd.Flags().String("category-tag", "leisure", "OSM tag used as the feature category")
	fetchOverpassCmd.Flags().String("magnitude-tag", "", "OSM tag holding a numeric magnitude (default: count once)")
	fetchOverpassCmd.Flags().String("categories", "", "comma-separated category values to keep (default: all)")
	fetchOverpassCmd.Flags().Bool("length-magnitude", false, "use line length in km as the magnitude")
	_ = fetchOverpassCmd.MarkFlagRequired("out")

	fetchCmd.AddCommand(fetchOverpassCmd)
	rootCmd.AddCommand(fetchCmd)
}

func overpassSpec(cmd *cobra.Command) feature.Spec {
	source, _ := cmd.Flags().GetString("source")
	category, _ := cmd.Flags().GetString("category-tag")
	magnitude, _ := cmd.Flags().GetString("magnitude-tag")
	categories, _ := cmd.Flags().GetString("categories")
	length, _ := cmd.Flags().GetBool("length-magnitude")

	spec := feature.Spec{
		Source:          source,
		CategoryField:   category,
		MagnitudeField:  magnitude,
		LengthMagnitude: length,
	}
	for _, c := range strings.Split(categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			spec.Categories = append(spec.Categories, c)
		}
	}
	return spec
}

// writeOverpassCSV converts res with spec and writes the features to w.
func writeOverpassCSV(w io.Writer, res overpass.Result, spec feature.Spec) (*feature.Batch, error) {
	b := feature.FromOverpass(res, spec)
	if err := feature.EncodeCSV(w, b.Features); err != nil {
		return nil, err
	}
	return b, nil
}
