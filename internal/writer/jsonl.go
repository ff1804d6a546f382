package writer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/synthedata/internal/core"
)

// JSONLWriter writes one JSON object per record to <domain>__<table>.jsonl.
type JSONLWriter struct {
	Layout Layout
}

// Write implements Writer.
func (w *JSONLWriter) Write(ctx context.Context, rs *core.RecordSet) error {
	f, _, err := w.Layout.create(rs.Table(), "jsonl")
	if err != nil {
		return err
	}
	defer f.Close()

	cols := Columns(rs)
	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)

	obj := make(map[string]any, len(cols))
	for i := range rs.Records {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for j, v := range rs.Records[i].Values(rs.Schema) {
			obj[cols[j].Name] = jsonValue(v, cols[j].Type)
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush jsonl: %w", err)
	}
	return f.Close()
}

func jsonValue(v any, t ColumnType) any {
	if x, ok := v.(time.Time); ok {
		return formatCell(x, t)
	}
	return v
}
