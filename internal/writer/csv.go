package writer

import (
	"context"
	"encoding/csv"
	"fmt"

	"github.com/JonMunkholm/synthedata/internal/core"
)

// CSVWriter writes <domain>__<table>.csv with a header row. Nulls are empty
// cells, timestamps RFC 3339 in UTC and dates YYYY-MM-DD.
type CSVWriter struct {
	Layout Layout
}

// Write implements Writer.
func (w *CSVWriter) Write(ctx context.Context, rs *core.RecordSet) error {
	f, path, err := w.Layout.create(rs.Table(), "csv")
	if err != nil {
		return err
	}
	defer f.Close()

	cols := Columns(rs)
	cw := csv.NewWriter(f)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	line := make([]string, len(cols))
	for i := range rs.Records {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for j, v := range rs.Records[i].Values(rs.Schema) {
			line[j] = formatCell(v, cols[j].Type)
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
