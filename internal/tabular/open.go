package tabular

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadFile reads a CSV (.csv, .txt, .tsv) or XLSX (.xlsx) file into a Table.
// A missing file is an error naming the path.
func ReadFile(ctx context.Context, path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		if _, err := os.Stat(path); err != nil {
			return nil, eris.Wrapf(err, "tabular: input file %s", path)
		}
		return ReadXLSX(path, XLSXOptions{})
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: input file %s", path)
		}
		defer f.Close() //nolint:errcheck

		opts := CSVOptions{TrimSpace: true, LazyQuotes: true}
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			opts.Delimiter = '\t'
		}
		t, err := ReadCSV(ctx, f, opts)
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: read %s", path)
		}
		return t, nil
	}
}
