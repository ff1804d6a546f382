package writer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/synthedata/internal/core"
)

// Report is the content of a <domain>__<table>.dq.json file.
type Report struct {
	Table     string               `json:"table"`
	Rows      int                  `json:"rows"`
	Injection core.InjectionReport `json:"injection"`
	Metrics   core.DQMetrics       `json:"metrics"`
}

// NewReport profiles rs.
func NewReport(rs *core.RecordSet) Report {
	return Report{
		Table:     rs.Table().String(),
		Rows:      rs.Len(),
		Injection: rs.Injection,
		Metrics:   core.Profile(rs),
	}
}

// ReportWriter writes the DQ profile of each set next to its data files.
type ReportWriter struct {
	Layout Layout
}

// Write implements Writer.
func (w *ReportWriter) Write(_ context.Context, rs *core.RecordSet) error {
	f, path, err := w.Layout.create(rs.Table(), "dq.json")
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewReport(rs)); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
