package writer

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

// ColumnType is the storage type of an output column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeDate
	TypeTimestamp
)

// Column is one flattened output column.
type Column struct {
	Name string
	Type ColumnType
}

var envelopeTypes = map[string]ColumnType{
	"id":                  TypeInt,
	"tenant_id":           TypeInt,
	"batch_time_utc":      TypeTimestamp,
	"is_active":           TypeBool,
	"valid_from_utc":      TypeTimestamp,
	"valid_to_utc":        TypeTimestamp,
	"created_at_utc":      TypeTimestamp,
	"updated_at_utc":      TypeTimestamp,
	"geo_lat":             TypeFloat,
	"geo_lon":             TypeFloat,
	"fx_rate_to_usd":      TypeFloat,
	"dq_completeness_pct": TypeFloat,
	"dq_validity_pct":     TypeFloat,
}

// Columns returns the typed output columns of rs: schema fields in
// declaration order, then the envelope. A foreign key takes the type of the
// first non-null value bound to it, string when there is none.
func Columns(rs *core.RecordSet) []Column {
	out := make([]Column, 0, len(rs.Schema.Fields)+len(core.EnvelopeColumns))
	for _, f := range rs.Schema.Fields {
		out = append(out, Column{Name: f.Name, Type: fieldType(rs, f)})
	}
	for _, name := range core.EnvelopeColumns {
		out = append(out, Column{Name: name, Type: envelopeTypes[name]})
	}
	return out
}

func fieldType(rs *core.RecordSet, f schema.FieldSpec) ColumnType {
	switch f.Kind {
	case schema.KindInteger:
		return TypeInt
	case schema.KindDecimal:
		return TypeFloat
	case schema.KindBoolean:
		return TypeBool
	case schema.KindDate:
		return TypeDate
	case schema.KindDateTime:
		return TypeTimestamp
	case schema.KindForeignKey:
		for i := range rs.Records {
			switch rs.Records[i].Fields[f.Name].(type) {
			case nil:
				continue
			case int64:
				return TypeInt
			case float64:
				return TypeFloat
			case bool:
				return TypeBool
			case time.Time:
				return TypeTimestamp
			}
			return TypeString
		}
	}
	return TypeString
}

// formatCell renders a value for text formats. Null is the empty string.
func formatCell(v any, t ColumnType) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if t == TypeDate {
			return x.UTC().Format(time.DateOnly)
		}
		return x.UTC().Format(time.RFC3339)
	}
	return ""
}
