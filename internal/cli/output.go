package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/writer"
)

// maxCellWidth truncates wide cells in table output.
const maxCellWidth = 32

func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func cellText(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		s = "NULL"
	case time.Time:
		s = x.UTC().Format(time.RFC3339)
	case float64:
		s = fmt.Sprintf("%.2f", x)
	default:
		s = fmt.Sprint(x)
	}
	if len(s) > maxCellWidth {
		s = s[:maxCellWidth-3] + "..."
	}
	return s
}

// printRecords prints the schema fields plus a few envelope columns of rs.
func printRecords(w io.Writer, rs *core.RecordSet) error {
	header := append(rs.Schema.FieldNames(), "natural_key", "is_active", "processing_status")
	rows := make([][]string, rs.Len())
	for i := range rs.Records {
		r := &rs.Records[i]
		row := make([]string, 0, len(header))
		for _, f := range rs.Schema.Fields {
			row = append(row, cellText(r.Fields[f.Name]))
		}
		row = append(row, r.NaturalKey, cellText(r.IsActive), r.ProcessingStatus)
		rows[i] = row
	}
	return printTable(w, header, rows)
}

// printReport prints the DQ metrics of a report, columns in fields order.
func printReport(w io.Writer, rep writer.Report, fields []string) error {
	m := rep.Metrics
	fmt.Fprintf(w, "%s: %d rows, completeness %.2f%%, validity %.2f%%, uniqueness %.2f%%, duplicates %.2f%%\n",
		rep.Table, rep.Rows, m.CompletenessPct, m.ValidityPct, m.UniquenessPct, m.DuplicatesPct)
	if rep.Injection.Profile != "" {
		in := rep.Injection
		fmt.Fprintf(w, "injected (%s): %d nulls, %d duplicates, %d typos, %d out of range, %d rows touched\n",
			in.Profile, in.Nulls, in.Duplicates, in.Typos, in.OutOfRange, in.RowsTouched)
	}

	rows := make([][]string, 0, len(fields))
	for _, name := range fields {
		c := m.Columns[name]
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%.2f", c.CompletenessPct),
			fmt.Sprintf("%.2f", c.ValidityPct),
			fmt.Sprintf("%.2f", c.UniquenessPct),
			fmt.Sprintf("%.2f", c.DuplicatesPct),
		})
	}
	return printTable(w, []string{"COLUMN", "COMPLETE%", "VALID%", "UNIQUE%", "DUP%"}, rows)
}
