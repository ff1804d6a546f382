package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/synthedata/internal/geo"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

// DefaultActor is written to created_by / updated_by.
const DefaultActor = "synthedata"

// DefaultTenantID is the tenant every record belongs to.
const DefaultTenantID = 1

// BatchContext carries the per-call constants of the envelope.
type BatchContext struct {
	BatchID   string
	BatchTime time.Time
	TenantID  int64
	Actor     string

	// Geo is the geographic context of the call. When PerRowGeo is set the
	// city is drawn for every row; otherwise City is used for all rows.
	Geo       geo.Context
	PerRowGeo bool
	City      geo.City
	FXRate    float64
}

// NewBatchContext draws the batch id (two values) and, unless the caller
// supplied a geographic context, one constant city from the default context.
func NewBatchContext(rng *Rand, now time.Time, g *geo.Context, actor string) (*BatchContext, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return nil, fmt.Errorf("batch id: %w", err)
	}
	if actor == "" {
		actor = DefaultActor
	}
	bc := &BatchContext{
		BatchID:   id.String(),
		BatchTime: now.UTC().Truncate(time.Second),
		TenantID:  DefaultTenantID,
		Actor:     actor,
	}

	if g != nil {
		bc.Geo = *g
		bc.PerRowGeo = true
	} else {
		def, err := geo.Lookup(geo.DefaultContext)
		if err != nil {
			return nil, err
		}
		bc.Geo = def
		bc.City = def.Cities[rng.IntN(len(def.Cities))]
	}

	rate, err := geo.RateToUSD(bc.Geo.Currency)
	if err != nil {
		return nil, fmt.Errorf("batch context: %w", err)
	}
	bc.FXRate = rate
	return bc, nil
}

// Assembler builds full records for one table within one call.
type Assembler struct {
	schema *schema.Descriptor
	synth  *Synthesizer
	batch  *BatchContext
	pii    string
	nextID int64
}

// NewAssembler binds an assembler to a schema and batch.
func NewAssembler(desc *schema.Descriptor, synth *Synthesizer, batch *BatchContext) *Assembler {
	return &Assembler{
		schema: desc,
		synth:  synth,
		batch:  batch,
		pii:    Sensitivity(desc),
	}
}

// NextID returns the next surrogate id of the call.
func (a *Assembler) NextID() int64 {
	a.nextID++
	return a.nextID
}

// Synthesizer returns the synthesizer the assembler draws fields with.
func (a *Assembler) Synthesizer() *Synthesizer {
	return a.synth
}

// AssembleRow synthesizes schema fields in declaration order and fills the
// envelope.
func (a *Assembler) AssembleRow(rng *Rand) Record {
	fields := make(map[string]any, len(a.schema.Fields))
	for _, f := range a.schema.Fields {
		fields[f.Name] = a.synth.Synthesize(f, rng)
	}

	b := a.batch
	city := b.City
	if b.PerRowGeo && len(b.Geo.Cities) > 0 {
		city = b.Geo.Cities[rng.IntN(len(b.Geo.Cities))]
	}

	rec := Record{
		Fields: fields,
		Envelope: Envelope{
			ID:               a.NextID(),
			TenantID:         b.TenantID,
			SourceSystem:     a.schema.ID.Domain,
			SourceTable:      a.schema.ID.Table,
			BatchID:          b.BatchID,
			BatchTime:        b.BatchTime,
			IsActive:         true,
			ValidFrom:        b.BatchTime,
			CreatedAt:        b.BatchTime,
			CreatedBy:        b.Actor,
			UpdatedAt:        b.BatchTime,
			UpdatedBy:        b.Actor,
			PIISensitivity:   a.pii,
			GeoCountry:       b.Geo.CountryOf(city),
			GeoRegion:        city.Region,
			GeoCity:          city.Name,
			GeoLat:           city.Lat,
			GeoLon:           city.Lon,
			CurrencyCode:     b.Geo.Currency,
			FXRateToUSD:      b.FXRate,
			ProcessingStatus: StatusOK,
			Tags:             []string{},
		},
	}
	rec.NaturalKey = naturalKeyOf(a.schema, &rec)
	rec.RecordHash = RecordHash(a.schema, rec.Fields)
	return rec
}

// Assemble produces n records in order.
func (a *Assembler) Assemble(n int, rng *Rand) *RecordSet {
	rs := &RecordSet{Schema: a.schema, Records: make([]Record, 0, n)}
	for i := 0; i < n; i++ {
		rs.Records = append(rs.Records, a.AssembleRow(rng))
	}
	return rs
}

func naturalKeyOf(desc *schema.Descriptor, r *Record) string {
	if desc.UsesSurrogateKey() {
		return strconv.FormatInt(r.ID, 10)
	}
	parts := make([]string, len(desc.NaturalKey))
	for i, k := range desc.NaturalKey {
		parts[i] = formatValue(r.Fields[k])
	}
	return strings.Join(parts, "|")
}

// RecordHash is the SHA-256 over schema field values in declaration order.
// Envelope columns never contribute.
func RecordHash(desc *schema.Descriptor, fields map[string]any) string {
	h := sha256.New()
	for _, f := range desc.Fields {
		h.Write([]byte(f.Name))
		h.Write([]byte{'='})
		h.Write([]byte(formatValue(fields[f.Name])))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

// Finalize recomputes the record hash and the per-row DQ percentages after
// every mutating stage has run.
func Finalize(rs *RecordSet) {
	n := len(rs.Schema.Fields)
	for i := range rs.Records {
		r := &rs.Records[i]
		r.RecordHash = RecordHash(rs.Schema, r.Fields)
		if n == 0 {
			r.DQCompletenessPct, r.DQValidityPct = 100, 100
			continue
		}
		var present, valid int
		for _, f := range rs.Schema.Fields {
			v := r.Fields[f.Name]
			if v == nil {
				continue
			}
			present++
			if Conforms(f, v) {
				valid++
			}
		}
		r.DQCompletenessPct = roundTo(float64(present)*100/float64(n), 2)
		r.DQValidityPct = roundTo(float64(valid)*100/float64(n), 2)
	}
}
