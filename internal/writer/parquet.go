package writer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/JonMunkholm/synthedata/internal/core"
)

// parquetBatchRows is the number of rows per Arrow record batch.
const parquetBatchRows = 64 * 1024

// ParquetWriter writes <domain>__<table>.parquet through Arrow.
type ParquetWriter struct {
	Layout Layout
}

func arrowType(t ColumnType) arrow.DataType {
	switch t {
	case TypeInt:
		return arrow.PrimitiveTypes.Int64
	case TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case TypeBool:
		return arrow.FixedWidthTypes.Boolean
	case TypeDate:
		return arrow.FixedWidthTypes.Date32
	case TypeTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	}
	return arrow.BinaryTypes.String
}

// ArrowSchema derives the Arrow schema of rs. Every column is nullable since
// injected nulls can land in any non-key field.
func ArrowSchema(cols []Column, rs *core.RecordSet) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	md := arrow.NewMetadata(
		[]string{"domain", "table", "natural_key"},
		[]string{rs.Table().Domain, rs.Table().Table, strings.Join(rs.Schema.NaturalKey, ",")},
	)
	return arrow.NewSchema(fields, &md)
}

// Write implements Writer.
func (w *ParquetWriter) Write(ctx context.Context, rs *core.RecordSet) error {
	f, path, err := w.Layout.create(rs.Table(), "parquet")
	if err != nil {
		return err
	}
	defer f.Close()

	cols := Columns(rs)
	sc := ArrowSchema(cols, rs)
	mem := memory.NewGoAllocator()

	pw, err := pqarrow.NewFileWriter(sc, f, nil, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem)))
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}

	b := array.NewRecordBuilder(mem, sc)
	defer b.Release()

	flush := func() error {
		rec := b.NewRecord()
		defer rec.Release()
		if rec.NumRows() == 0 {
			return nil
		}
		return pw.Write(rec)
	}

	for i := range rs.Records {
		for j, v := range rs.Records[i].Values(rs.Schema) {
			if err := appendArrow(b.Field(j), v); err != nil {
				pw.Close()
				return fmt.Errorf("row %d column %s: %w", i, cols[j].Name, err)
			}
		}
		if (i+1)%parquetBatchRows == 0 {
			if err := ctx.Err(); err != nil {
				pw.Close()
				return err
			}
			if err := flush(); err != nil {
				pw.Close()
				return fmt.Errorf("write parquet batch: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		pw.Close()
		return fmt.Errorf("write parquet batch: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func appendArrow(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch bb := b.(type) {
	case *array.Int64Builder:
		x, ok := v.(int64)
		if !ok {
			return fmt.Errorf("want int64, got %T", v)
		}
		bb.Append(x)
	case *array.Float64Builder:
		x, ok := v.(float64)
		if !ok {
			return fmt.Errorf("want float64, got %T", v)
		}
		bb.Append(x)
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", v)
		}
		bb.Append(x)
	case *array.Date32Builder:
		x, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("want time, got %T", v)
		}
		bb.Append(arrow.Date32FromTime(x))
	case *array.TimestampBuilder:
		x, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("want time, got %T", v)
		}
		bb.Append(arrow.Timestamp(x.UnixMicro()))
	case *array.StringBuilder:
		bb.Append(formatCell(v, TypeString))
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}
