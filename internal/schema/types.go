// Package schema holds the table declarations the generator works from.
//
// A table is declared once as a raw [Definition] (from Go code or a YAML
// catalog file) and resolved into an immutable [Descriptor] the first time it
// is looked up. Resolution validates domain parameters and fixes the natural
// key, so nothing downstream re-derives it per row.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaNotFound is returned when a domain/table pair is unknown.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrSchemaInvalid is returned when a declaration is malformed.
	ErrSchemaInvalid = errors.New("schema invalid")
)

// SurrogateKeyField names the envelope surrogate id used as the natural key
// when a table declares none and inference finds no candidate.
const SurrogateKeyField = "id"

// ReservedColumns are the envelope columns every generated record carries,
// in output order. Schema fields may not reuse these names.
var ReservedColumns = []string{
	SurrogateKeyField, "natural_key", "tenant_id", "source_system", "source_table",
	"batch_id", "batch_time_utc", "record_hash",
	"is_active", "valid_from_utc", "valid_to_utc",
	"created_at_utc", "created_by", "updated_at_utc", "updated_by",
	"pii_sensitivity",
	"geo_country", "geo_region", "geo_city", "geo_lat", "geo_lon",
	"currency_code", "fx_rate_to_usd",
	"processing_status", "dq_completeness_pct", "dq_validity_pct",
	"tags", "notes",
}

var reserved = func() map[string]bool {
	m := make(map[string]bool, len(ReservedColumns))
	for _, c := range ReservedColumns {
		m[c] = true
	}
	return m
}()

// IsReserved reports whether name is an envelope column.
func IsReserved(name string) bool {
	return reserved[name]
}

// Bounds used when a numeric field declares none.
const (
	DefaultIntMin     = 1
	DefaultIntMax     = 100000
	DefaultDecimalMin = 0
	DefaultDecimalMax = 10000
)

// Kind is the declared type of a field.
type Kind int

const (
	KindInteger Kind = iota
	KindDecimal
	KindString
	KindCategorical
	KindDate
	KindDateTime
	KindBoolean
	KindForeignKey
)

var kindNames = map[Kind]string{
	KindInteger:     "integer",
	KindDecimal:     "decimal",
	KindString:      "string",
	KindCategorical: "categorical",
	KindDate:        "date",
	KindDateTime:    "datetime",
	KindBoolean:     "boolean",
	KindForeignKey:  "foreign_key",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a declared type name into a Kind.
// A few aliases seen in hand-written catalogs are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integer", "int", "bigint":
		return KindInteger, nil
	case "decimal", "numeric", "float", "number":
		return KindDecimal, nil
	case "string", "text":
		return KindString, nil
	case "categorical", "enum":
		return KindCategorical, nil
	case "date":
		return KindDate, nil
	case "datetime", "timestamp":
		return KindDateTime, nil
	case "boolean", "bool":
		return KindBoolean, nil
	case "foreign_key", "fk":
		return KindForeignKey, nil
	}
	return 0, fmt.Errorf("unknown field type %q", s)
}

// IsNumeric reports whether values of this kind are int64 or float64.
func (k Kind) IsNumeric() bool {
	return k == KindInteger || k == KindDecimal
}

// Domain holds kind-specific bounds for a field.
type Domain struct {
	Min       *float64  // numeric lower bound (inclusive)
	Max       *float64  // numeric upper bound (inclusive)
	Labels    []string  // categorical label set
	Weights   []float64 // optional, parallel to Labels
	MinLength int       // string length model
	MaxLength int
	Pattern   string // string model: word, text, first_name, email, ...
	Decimals  int    // decimal places for KindDecimal
	// WindowDays overrides the historical window for date/datetime fields.
	WindowDays int
	// Target is the referenced table for KindForeignKey.
	Target TableID
}

// Bounds returns the numeric bounds, falling back to the given defaults.
func (d Domain) Bounds(defMin, defMax float64) (float64, float64) {
	lo, hi := defMin, defMax
	if d.Min != nil {
		lo = *d.Min
	}
	if d.Max != nil {
		hi = *d.Max
	}
	return lo, hi
}

// FieldSpec is a resolved field declaration.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Nullable bool
	Domain   Domain
}

// TableID identifies a table inside a domain.
type TableID struct {
	Domain string
	Table  string
}

func (id TableID) String() string {
	if id.Domain == "" {
		return id.Table
	}
	return id.Domain + "." + id.Table
}

// IsZero reports whether the id is unset.
func (id TableID) IsZero() bool {
	return id.Domain == "" && id.Table == ""
}

// ParseTableID parses "domain.table". A bare table name resolves against
// defaultDomain.
func ParseTableID(s, defaultDomain string) (TableID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TableID{}, fmt.Errorf("empty table id")
	}
	domain, table, found := strings.Cut(s, ".")
	if !found {
		if defaultDomain == "" {
			return TableID{}, fmt.Errorf("table id %q has no domain", s)
		}
		return TableID{Domain: defaultDomain, Table: s}, nil
	}
	if domain == "" || table == "" || strings.Contains(table, ".") {
		return TableID{}, fmt.Errorf("malformed table id %q", s)
	}
	return TableID{Domain: domain, Table: table}, nil
}

// KeySource records how a descriptor's natural key was obtained.
type KeySource string

const (
	KeyDeclared  KeySource = "declared"
	KeyInferred  KeySource = "inferred"
	KeySurrogate KeySource = "surrogate"
)

// Descriptor is the validated, immutable representation of a table.
type Descriptor struct {
	ID             TableID
	Label          string
	Fields         []FieldSpec
	NaturalKey     []string
	KeySource      KeySource
	DuplicateProne []string

	index map[string]int
	keys  map[string]bool
}

// Field returns the spec for name.
func (d *Descriptor) Field(name string) (FieldSpec, bool) {
	i, ok := d.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return d.Fields[i], true
}

// FieldNames returns field names in declaration order.
func (d *Descriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// IsKeyField reports whether name is part of the natural key.
func (d *Descriptor) IsKeyField(name string) bool {
	return d.keys[name]
}

// UsesSurrogateKey reports whether the natural key is the envelope id.
func (d *Descriptor) UsesSurrogateKey() bool {
	return d.KeySource == KeySurrogate
}

// ForeignKeys returns the foreign key fields in declaration order.
func (d *Descriptor) ForeignKeys() []FieldSpec {
	var out []FieldSpec
	for _, f := range d.Fields {
		if f.Kind == KindForeignKey {
			out = append(out, f)
		}
	}
	return out
}

// ReferencesTable reports whether any foreign key targets id.
func (d *Descriptor) ReferencesTable(id TableID) bool {
	for _, f := range d.Fields {
		if f.Kind == KindForeignKey && f.Domain.Target == id {
			return true
		}
	}
	return false
}
