// Package tabular reads delimited and spreadsheet inputs into header-indexed
// tables for the feature, lookup and tract loaders.
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// Record is one line of a CSV stream. Err is set, and Fields empty, when the
// line could not be parsed; the stream continues after it.
type Record struct {
	Line   int
	Fields []string
	Err    error
}

// StreamCSV parses r and sends one Record per line. Rows may be ragged; the
// table layer decides what a short row means. Only I/O failures and
// cancellation end the stream early, on the error channel. Both channels
// are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Record, <-chan error) {
	recCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.Comment = opts.Comment
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			fields, err := reader.Read()
			if err == io.EOF {
				return
			}

			var (
				rec  Record
				perr *csv.ParseError
			)
			switch {
			case err == nil:
				line, _ := reader.FieldPos(0)
				rec = Record{Line: line, Fields: fields}
			case errors.As(err, &perr):
				rec = Record{Line: perr.StartLine, Err: perr}
			default:
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range rec.Fields {
					rec.Fields[i] = strings.TrimSpace(field)
				}
			}

			select {
			case recCh <- rec:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return recCh, errCh
}

// ReadCSV reads a whole CSV document whose first parsable row is the
// header. Unparsable lines are counted in Table.Skipped.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*Table, error) {
	recCh, errCh := StreamCSV(ctx, r, opts)

	var (
		t       *Table
		skipped int
	)
	for rec := range recCh {
		switch {
		case rec.Err != nil:
			skipped++
		case t == nil:
			t = NewTable(rec.Fields)
		default:
			t.Rows = append(t.Rows, rec.Fields)
		}
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	if t == nil {
		return nil, eris.New("csv: empty input, no header row")
	}
	t.Skipped = skipped
	return t, nil
}
