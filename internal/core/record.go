package core

import (
	"strings"
	"time"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

// Processing status values carried on every record.
const (
	StatusOK   = "ok"
	StatusWarn = "warn"
)

// Envelope holds the columns every generated record carries regardless of
// its schema.
type Envelope struct {
	ID           int64
	NaturalKey   string
	TenantID     int64
	SourceSystem string
	SourceTable  string
	BatchID      string
	BatchTime    time.Time
	RecordHash   string

	IsActive  bool
	ValidFrom time.Time
	ValidTo   *time.Time

	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time
	UpdatedBy string

	PIISensitivity string

	GeoCountry   string
	GeoRegion    string
	GeoCity      string
	GeoLat       float64
	GeoLon       float64
	CurrencyCode string
	FXRateToUSD  float64

	ProcessingStatus  string
	DQCompletenessPct float64
	DQValidityPct     float64

	Tags  []string
	Notes string
}

// EnvelopeColumns are the flattened envelope column names, in output order.
var EnvelopeColumns = schema.ReservedColumns

// Values flattens the envelope in EnvelopeColumns order. ValidTo is nil for
// open versions; Tags is joined with "|".
func (e *Envelope) Values() []any {
	var validTo any
	if e.ValidTo != nil {
		validTo = *e.ValidTo
	}
	return []any{
		e.ID, e.NaturalKey, e.TenantID, e.SourceSystem, e.SourceTable,
		e.BatchID, e.BatchTime, e.RecordHash,
		e.IsActive, e.ValidFrom, validTo,
		e.CreatedAt, e.CreatedBy, e.UpdatedAt, e.UpdatedBy,
		e.PIISensitivity,
		e.GeoCountry, e.GeoRegion, e.GeoCity, e.GeoLat, e.GeoLon,
		e.CurrencyCode, e.FXRateToUSD,
		e.ProcessingStatus, e.DQCompletenessPct, e.DQValidityPct,
		strings.Join(e.Tags, "|"), e.Notes,
	}
}

// Record is one generated row. Field values are int64, float64, string,
// bool, time.Time or nil.
type Record struct {
	Fields map[string]any
	Envelope
}

// Warn marks the record as touched by error injection.
func (r *Record) Warn() {
	r.ProcessingStatus = StatusWarn
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	out := Record{Fields: fields, Envelope: r.Envelope}
	if r.ValidTo != nil {
		t := *r.ValidTo
		out.ValidTo = &t
	}
	if r.Tags != nil {
		out.Tags = append(make([]string, 0, len(r.Tags)), r.Tags...)
	}
	return out
}

// Values flattens the record: schema fields in declaration order, then the
// envelope.
func (r *Record) Values(desc *schema.Descriptor) []any {
	out := make([]any, 0, len(desc.Fields)+len(EnvelopeColumns))
	for _, f := range desc.Fields {
		out = append(out, r.Fields[f.Name])
	}
	return append(out, r.Envelope.Values()...)
}

// RecordSet is the ordered output of one generation call for one table.
type RecordSet struct {
	Schema  *schema.Descriptor
	Records []Record

	// Injection reports what the error injector did, if it ran.
	Injection InjectionReport
}

// Len returns the number of records.
func (rs *RecordSet) Len() int {
	return len(rs.Records)
}

// Table returns the id of the table the set was generated for.
func (rs *RecordSet) Table() schema.TableID {
	return rs.Schema.ID
}

// Columns returns schema field names followed by EnvelopeColumns.
func (rs *RecordSet) Columns() []string {
	out := rs.Schema.FieldNames()
	return append(out, EnvelopeColumns...)
}

// Rows flattens every record in order.
func (rs *RecordSet) Rows() [][]any {
	out := make([][]any, len(rs.Records))
	for i := range rs.Records {
		out[i] = rs.Records[i].Values(rs.Schema)
	}
	return out
}

// Clone returns a deep copy of the set. The schema is shared.
func (rs *RecordSet) Clone() *RecordSet {
	out := &RecordSet{Schema: rs.Schema, Records: make([]Record, len(rs.Records)), Injection: rs.Injection}
	for i := range rs.Records {
		out.Records[i] = rs.Records[i].Clone()
	}
	return out
}

// KeyValue returns the natural-key value used for linking and grouping:
// the typed field value for a single-field natural key, otherwise the
// envelope's textual natural key.
func (rs *RecordSet) KeyValue(r *Record) any {
	d := rs.Schema
	if len(d.NaturalKey) == 1 && !d.UsesSurrogateKey() {
		return r.Fields[d.NaturalKey[0]]
	}
	return r.NaturalKey
}
