package schema

// definition.go turns raw declarations into descriptors.
//
// Resolution is deterministic and side-effect free: the same Definition
// always yields the same Descriptor (or the same error). Every problem found
// is reported at once, joined under ErrSchemaInvalid.

import (
	"fmt"
	"math"
	"strings"
)

// Definition is the raw declaration of a table as written in Go code or a
// YAML catalog file.
type Definition struct {
	Domain         string     `yaml:"-"`
	Table          string     `yaml:"-"`
	Label          string     `yaml:"label"`
	Fields         []FieldDef `yaml:"fields"`
	NaturalKey     []string   `yaml:"natural_key"`
	DuplicateProne []string   `yaml:"duplicate_prone"`
}

// ID returns the table id of the definition.
func (d Definition) ID() TableID {
	return TableID{Domain: d.Domain, Table: d.Table}
}

// FieldDef is the raw declaration of one field.
type FieldDef struct {
	Name       string             `yaml:"name"`
	Type       string             `yaml:"type"`
	Nullable   bool               `yaml:"nullable"`
	Min        *float64           `yaml:"min"`
	Max        *float64           `yaml:"max"`
	Labels     []string           `yaml:"labels"`
	Weights    map[string]float64 `yaml:"weights"`
	MinLength  int                `yaml:"min_length"`
	MaxLength  int                `yaml:"max_length"`
	Pattern    string             `yaml:"pattern"`
	Decimals   *int               `yaml:"decimals"`
	WindowDays int                `yaml:"window_days"`
	References string             `yaml:"references"`
}

// Defaults applied when a declaration leaves a bound open.
const (
	DefaultMinLength = 3
	DefaultMaxLength = 12
	DefaultDecimals  = 2
)

// keyPreference lists natural-key candidates in priority order; "%s" is the
// singular entity name derived from the table.
var keyPreference = []string{"%s_id", "transaction_id", "ticket_id", "id"}

// Resolve validates the definition and produces a Descriptor.
func (d Definition) Resolve() (*Descriptor, error) {
	if d.Domain == "" || d.Table == "" {
		return nil, fmt.Errorf("%w: definition needs both domain and table", ErrSchemaInvalid)
	}

	var problems []string
	desc := &Descriptor{
		ID:     d.ID(),
		Label:  d.Label,
		Fields: make([]FieldSpec, 0, len(d.Fields)),
		index:  make(map[string]int, len(d.Fields)),
		keys:   make(map[string]bool),
	}
	if len(d.Fields) == 0 {
		problems = append(problems, "no fields declared")
	}

	for _, fd := range d.Fields {
		spec, err := fd.resolve(d.Domain)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if _, dup := desc.index[spec.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate field %q", spec.Name))
			continue
		}
		desc.index[spec.Name] = len(desc.Fields)
		desc.Fields = append(desc.Fields, spec)
	}

	for _, name := range d.NaturalKey {
		if _, ok := desc.index[name]; !ok {
			problems = append(problems, fmt.Sprintf("natural key references unknown field %q", name))
		}
	}
	for _, name := range d.DuplicateProne {
		spec, ok := desc.Field(name)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("duplicate_prone references unknown field %q", name))
		case spec.Kind == KindForeignKey:
			problems = append(problems, fmt.Sprintf("duplicate_prone field %q is a foreign key", name))
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrSchemaInvalid, desc.ID, strings.Join(problems, "; "))
	}

	switch {
	case len(d.NaturalKey) > 0:
		desc.NaturalKey = append([]string(nil), d.NaturalKey...)
		desc.KeySource = KeyDeclared
	default:
		if name, ok := InferNaturalKey(d.Table, desc.FieldNames()); ok {
			desc.NaturalKey = []string{name}
			desc.KeySource = KeyInferred
		} else {
			desc.NaturalKey = []string{SurrogateKeyField}
			desc.KeySource = KeySurrogate
		}
	}
	if desc.KeySource != KeySurrogate {
		for _, k := range desc.NaturalKey {
			desc.keys[k] = true
		}
	}

	for _, name := range d.DuplicateProne {
		if desc.keys[name] {
			continue
		}
		desc.DuplicateProne = append(desc.DuplicateProne, name)
	}

	return desc, nil
}

// InferNaturalKey picks a natural key from field names using the preference
// list [<entity>_id, transaction_id, ticket_id, id]. The first candidate in
// preference order that exists wins.
func InferNaturalKey(table string, fields []string) (string, bool) {
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f] = true
	}
	entity := Singular(table)
	for _, pattern := range keyPreference {
		candidate := pattern
		if strings.Contains(pattern, "%s") {
			candidate = fmt.Sprintf(pattern, entity)
		}
		if present[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// Singular derives an entity name from a plural table name.
func Singular(table string) string {
	t := strings.ToLower(table)
	switch {
	case strings.HasSuffix(t, "ies") && len(t) > 3:
		return t[:len(t)-3] + "y"
	case strings.HasSuffix(t, "sses"), strings.HasSuffix(t, "xes"), strings.HasSuffix(t, "ches"), strings.HasSuffix(t, "shes"):
		return t[:len(t)-2]
	case strings.HasSuffix(t, "ss"):
		return t
	case strings.HasSuffix(t, "s") && len(t) > 1:
		return t[:len(t)-1]
	}
	return t
}

func (fd FieldDef) resolve(domain string) (FieldSpec, error) {
	name := strings.TrimSpace(fd.Name)
	if name == "" {
		return FieldSpec{}, fmt.Errorf("field with empty name")
	}
	if IsReserved(name) {
		return FieldSpec{}, fmt.Errorf("field %q collides with an envelope column", name)
	}
	kind, err := ParseKind(fd.Type)
	if err != nil {
		return FieldSpec{}, fmt.Errorf("field %q: %v", name, err)
	}

	spec := FieldSpec{
		Name:     name,
		Kind:     kind,
		Nullable: fd.Nullable,
		Domain: Domain{
			Min:        fd.Min,
			Max:        fd.Max,
			MinLength:  fd.MinLength,
			MaxLength:  fd.MaxLength,
			Pattern:    strings.ToLower(strings.TrimSpace(fd.Pattern)),
			WindowDays: fd.WindowDays,
		},
	}

	if fd.Min != nil && fd.Max != nil && *fd.Min > *fd.Max {
		return FieldSpec{}, fmt.Errorf("field %q: min %v > max %v", name, *fd.Min, *fd.Max)
	}
	if fd.WindowDays < 0 {
		return FieldSpec{}, fmt.Errorf("field %q: negative window_days", name)
	}

	switch kind {
	case KindInteger:
		spec.Domain.Min, spec.Domain.Max = completeBounds(fd.Min, fd.Max, DefaultIntMin, DefaultIntMax)
		if math.Ceil(*spec.Domain.Min) > math.Floor(*spec.Domain.Max) {
			return FieldSpec{}, fmt.Errorf("field %q: no integer between min %v and max %v", name, *spec.Domain.Min, *spec.Domain.Max)
		}
	case KindCategorical:
		if len(fd.Labels) == 0 {
			return FieldSpec{}, fmt.Errorf("field %q: categorical with empty label set", name)
		}
		spec.Domain.Labels = append([]string(nil), fd.Labels...)
		if len(fd.Weights) > 0 {
			weights, err := resolveWeights(fd.Labels, fd.Weights)
			if err != nil {
				return FieldSpec{}, fmt.Errorf("field %q: %v", name, err)
			}
			spec.Domain.Weights = weights
		}
	case KindString:
		if spec.Domain.MinLength < 0 || spec.Domain.MaxLength < 0 {
			return FieldSpec{}, fmt.Errorf("field %q: negative length bound", name)
		}
		if spec.Domain.MinLength == 0 && spec.Domain.MaxLength == 0 {
			spec.Domain.MinLength, spec.Domain.MaxLength = DefaultMinLength, DefaultMaxLength
		}
		if spec.Domain.MaxLength == 0 {
			spec.Domain.MaxLength = spec.Domain.MinLength
		}
		if spec.Domain.MinLength > spec.Domain.MaxLength {
			return FieldSpec{}, fmt.Errorf("field %q: min_length %d > max_length %d",
				name, spec.Domain.MinLength, spec.Domain.MaxLength)
		}
		if spec.Domain.Pattern != "" && !knownPatterns[spec.Domain.Pattern] {
			return FieldSpec{}, fmt.Errorf("field %q: unknown pattern %q", name, spec.Domain.Pattern)
		}
	case KindDecimal:
		spec.Domain.Min, spec.Domain.Max = completeBounds(fd.Min, fd.Max, DefaultDecimalMin, DefaultDecimalMax)
		spec.Domain.Decimals = DefaultDecimals
		if fd.Decimals != nil {
			if *fd.Decimals < 0 || *fd.Decimals > 9 {
				return FieldSpec{}, fmt.Errorf("field %q: decimals must be 0-9", name)
			}
			spec.Domain.Decimals = *fd.Decimals
		}
	case KindForeignKey:
		if strings.TrimSpace(fd.References) == "" {
			return FieldSpec{}, fmt.Errorf("field %q: foreign key without target table", name)
		}
		target, err := ParseTableID(fd.References, domain)
		if err != nil {
			return FieldSpec{}, fmt.Errorf("field %q: %v", name, err)
		}
		spec.Domain.Target = target
	}

	return spec, nil
}

// completeBounds fills an undeclared bound from the kind default. When the
// declared bound lies beyond the default on the other side, the missing one
// is placed a default span away so lo <= hi always holds.
func completeBounds(minV, maxV *float64, defMin, defMax float64) (*float64, *float64) {
	span := defMax - defMin
	lo, hi := defMin, defMax
	switch {
	case minV != nil && maxV != nil:
		lo, hi = *minV, *maxV
	case minV != nil:
		lo = *minV
		if lo > hi {
			hi = lo + span
		}
	case maxV != nil:
		hi = *maxV
		if hi < lo {
			lo = hi - span
		}
	}
	return &lo, &hi
}

func resolveWeights(labels []string, weights map[string]float64) ([]float64, error) {
	known := make(map[string]bool, len(labels))
	for _, l := range labels {
		known[l] = true
	}
	for l := range weights {
		if !known[l] {
			return nil, fmt.Errorf("weight for unknown label %q", l)
		}
	}
	out := make([]float64, len(labels))
	var sum float64
	for i, l := range labels {
		w := weights[l]
		if w < 0 {
			return nil, fmt.Errorf("negative weight for label %q", l)
		}
		out[i] = w
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("weights must have a positive sum")
	}
	return out, nil
}

// String patterns understood by the field synthesizer.
const (
	PatternWord      = "word"
	PatternText      = "text"
	PatternFirstName = "first_name"
	PatternLastName  = "last_name"
	PatternFullName  = "full_name"
	PatternEmail     = "email"
	PatternPhone     = "phone"
	PatternCity      = "city"
	PatternCode      = "code"
	PatternUUID      = "uuid"
)

var knownPatterns = map[string]bool{
	PatternWord: true, PatternText: true, PatternFirstName: true,
	PatternLastName: true, PatternFullName: true, PatternEmail: true,
	PatternPhone: true, PatternCity: true, PatternCode: true, PatternUUID: true,
}
