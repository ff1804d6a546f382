package core

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

// ColumnMetrics are the DQ measurements of one schema field. Percentages are
// in [0, 100].
type ColumnMetrics struct {
	NonNull         int     `json:"non_null"`
	Distinct        int     `json:"distinct"`
	DuplicatesCount int     `json:"duplicates_count"`
	Invalid         int     `json:"invalid"`
	CompletenessPct float64 `json:"completeness_pct"`
	DuplicatesPct   float64 `json:"duplicates_pct"`
	UniquenessPct   float64 `json:"uniqueness_pct"`
	ValidityPct     float64 `json:"validity_pct"`
}

// DQMetrics summarize a record set. Aggregates are the mean of the column
// percentages, rounded to two decimals.
type DQMetrics struct {
	Table           string                   `json:"table"`
	RowCount        int                      `json:"row_count"`
	CompletenessPct float64                  `json:"completeness_pct"`
	DuplicatesPct   float64                  `json:"duplicates_pct"`
	UniquenessPct   float64                  `json:"uniqueness_pct"`
	ValidityPct     float64                  `json:"validity_pct"`
	Columns         map[string]ColumnMetrics `json:"columns"`
}

// Profile computes DQ metrics over the schema fields of rs. It does not
// modify rs.
func Profile(rs *RecordSet) DQMetrics {
	m := DQMetrics{
		Table:    rs.Table().String(),
		RowCount: len(rs.Records),
		Columns:  make(map[string]ColumnMetrics, len(rs.Schema.Fields)),
	}
	if len(rs.Schema.Fields) == 0 {
		return m
	}

	var sumC, sumD, sumU, sumV float64
	for _, f := range rs.Schema.Fields {
		c := profileColumn(rs, f)
		m.Columns[f.Name] = c
		sumC += c.CompletenessPct
		sumD += c.DuplicatesPct
		sumU += c.UniquenessPct
		sumV += c.ValidityPct
	}
	n := float64(len(rs.Schema.Fields))
	m.CompletenessPct = roundTo(sumC/n, 2)
	m.DuplicatesPct = roundTo(sumD/n, 2)
	m.UniquenessPct = roundTo(sumU/n, 2)
	m.ValidityPct = roundTo(sumV/n, 2)
	return m
}

func profileColumn(rs *RecordSet, f schema.FieldSpec) ColumnMetrics {
	var c ColumnMetrics
	counts := make(map[any]int)
	for i := range rs.Records {
		v := rs.Records[i].Fields[f.Name]
		if v == nil {
			continue
		}
		c.NonNull++
		counts[profileKey(v)]++
		if !Conforms(f, v) {
			c.Invalid++
		}
	}
	c.Distinct = len(counts)
	var once int
	for _, k := range counts {
		if k == 1 {
			once++
		}
	}
	c.DuplicatesCount = c.NonNull - c.Distinct

	if rows := len(rs.Records); rows > 0 {
		c.CompletenessPct = pct(c.NonNull, rows)
	}
	if c.NonNull > 0 {
		c.DuplicatesPct = pct(c.DuplicatesCount, c.NonNull)
		c.UniquenessPct = pct(once, c.NonNull)
		c.ValidityPct = pct(c.NonNull-c.Invalid, c.NonNull)
	}
	return c
}

// profileKey normalizes values used as map keys; time.Time carries a
// location pointer so equal instants may compare unequal.
func profileKey(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UnixNano()
	}
	return v
}

func pct(part, whole int) float64 {
	return roundTo(float64(part)*100/float64(whole), 2)
}

// Conforms reports whether a non-null value fits the declared domain of f.
func Conforms(f schema.FieldSpec, v any) bool {
	d := f.Domain
	switch f.Kind {
	case schema.KindInteger:
		x, ok := v.(int64)
		if !ok {
			return false
		}
		lo, hi := intBounds(d)
		return x >= lo && x <= hi
	case schema.KindDecimal:
		x, ok := v.(float64)
		if !ok || math.IsNaN(x) {
			return false
		}
		lo, hi := d.Bounds(DefaultDecimalMin, DefaultDecimalMax)
		return x >= lo && x <= hi
	case schema.KindBoolean:
		_, ok := v.(bool)
		return ok
	case schema.KindCategorical:
		s, ok := v.(string)
		if !ok {
			return false
		}
		for _, l := range d.Labels {
			if l == s {
				return true
			}
		}
		return false
	case schema.KindDate, schema.KindDateTime:
		_, ok := v.(time.Time)
		return ok
	case schema.KindString:
		s, ok := v.(string)
		return ok && stringConforms(d, s)
	case schema.KindForeignKey:
		return true
	}
	return false
}

func stringConforms(d schema.Domain, s string) bool {
	switch d.Pattern {
	case schema.PatternEmail:
		at := strings.IndexByte(s, '@')
		return at > 0 && strings.Contains(s[at+1:], ".")
	case schema.PatternUUID:
		_, err := uuid.Parse(s)
		return err == nil
	case schema.PatternPhone:
		return strings.HasPrefix(s, "+") && len(s) > 4
	case schema.PatternCode, schema.PatternText, "":
		n := utf8.RuneCountInString(s)
		return n >= d.MinLength && n <= d.MaxLength
	}
	return s != ""
}
