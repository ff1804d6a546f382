package core

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

// SCD2 defaults. DefaultChangeProbability applies wherever a CLI flag or API
// body leaves the change probability out.
const (
	DefaultMaxVersionsPerKey = 5
	DefaultChangeProbability = 0.3
	DefaultMinStep           = time.Hour
	DefaultMaxStep           = 30 * 24 * time.Hour
)

// VersionerOptions bound the change model.
type VersionerOptions struct {
	// MaxVersionsPerKey caps the versions of one natural key; a key gets at
	// most MaxVersionsPerKey-1 change ticks.
	MaxVersionsPerKey int
	ChangeProbability float64
	MinStep           time.Duration
	MaxStep           time.Duration
}

func (o VersionerOptions) withDefaults() VersionerOptions {
	if o.MaxVersionsPerKey <= 0 {
		o.MaxVersionsPerKey = DefaultMaxVersionsPerKey
	}
	if o.MinStep < time.Second {
		o.MinStep = DefaultMinStep
	}
	if o.MaxStep < o.MinStep {
		o.MaxStep = o.MinStep
	}
	return o
}

// Versioner expands a record set into an SCD2 history.
type Versioner struct {
	opts VersionerOptions
	asm  *Assembler
}

// NewVersioner creates a versioner that re-synthesizes fields and assigns
// surrogate ids through asm.
func NewVersioner(asm *Assembler, opts VersionerOptions) *Versioner {
	return &Versioner{opts: opts.withDefaults(), asm: asm}
}

// Versionize groups rows by natural key in first-appearance order. Rows that
// share a key are successive versions of it; each key then gets change
// ticks up to the version cap. The terminal version of every key starts at
// the batch time and earlier versions are laid out backwards from it.
func (v *Versioner) Versionize(rs *RecordSet, rng *Rand) (*RecordSet, error) {
	if p := v.opts.ChangeProbability; p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: change probability %v outside [0,1]", ErrInvalidRequest, p)
	}

	var order []string
	groups := make(map[string][]Record)
	for _, r := range rs.Records {
		if _, seen := groups[r.NaturalKey]; !seen {
			order = append(order, r.NaturalKey)
		}
		groups[r.NaturalKey] = append(groups[r.NaturalKey], r.Clone())
	}

	mutable := mutableFields(rs.Schema)
	out := &RecordSet{Schema: rs.Schema, Records: make([]Record, 0, len(rs.Records))}
	for _, key := range order {
		versions := groups[key]
		for tick := len(versions); tick < v.opts.MaxVersionsPerKey; tick++ {
			if !rng.Chance(v.opts.ChangeProbability) || len(mutable) == 0 {
				continue
			}
			versions = append(versions, v.change(versions[len(versions)-1], mutable, rng))
		}
		v.layout(versions, rng)
		out.Records = append(out.Records, versions...)
	}

	if err := ValidateHistory(out); err != nil {
		return nil, err
	}
	return out, nil
}

func mutableFields(desc *schema.Descriptor) []schema.FieldSpec {
	var out []schema.FieldSpec
	for _, f := range desc.Fields {
		if eligible(desc, f) {
			out = append(out, f)
		}
	}
	return out
}

// change clones prev and re-synthesizes a non-empty subset of mutable fields.
func (v *Versioner) change(prev Record, mutable []schema.FieldSpec, rng *Rand) Record {
	next := prev.Clone()
	next.ID = v.asm.NextID()

	picked := make([]bool, len(mutable))
	var chosen bool
	for i := range mutable {
		if rng.Chance(0.5) {
			picked[i] = true
			chosen = true
		}
	}
	if !chosen {
		picked[rng.IntN(len(mutable))] = true
	}

	synth := v.asm.Synthesizer()
	for i, f := range mutable {
		if picked[i] {
			next.Fields[f.Name] = synth.Synthesize(f, rng)
		}
	}
	next.RecordHash = RecordHash(v.asm.schema, next.Fields)
	return next
}

// layout assigns validity intervals. The last version opens at the batch
// time; each earlier one ends where its successor starts.
func (v *Versioner) layout(versions []Record, rng *Rand) {
	last := len(versions) - 1
	minS, maxS := int64(v.opts.MinStep/time.Second), int64(v.opts.MaxStep/time.Second)

	start := versions[last].BatchTime
	for i := last; i >= 0; i-- {
		r := &versions[i]
		r.ValidFrom = start
		r.CreatedAt = start
		r.UpdatedAt = start
		if i == last {
			r.ValidTo = nil
			r.IsActive = true
		} else {
			end := versions[i+1].ValidFrom
			r.ValidTo = &end
			r.IsActive = false
		}
		if i > 0 {
			start = start.Add(-time.Duration(rng.Int64Range(minS, maxS)) * time.Second)
		}
	}
}

// History is the ordered version list of one natural key.
type History struct {
	NaturalKey string
	Versions   []Record
}

// Histories groups an SCD2 record set by natural key in first-appearance
// order. Versions keep their order in the set.
func Histories(rs *RecordSet) []History {
	idx := make(map[string]int)
	var out []History
	for _, r := range rs.Records {
		i, ok := idx[r.NaturalKey]
		if !ok {
			i = len(out)
			idx[r.NaturalKey] = i
			out = append(out, History{NaturalKey: r.NaturalKey})
		}
		out[i].Versions = append(out[i].Versions, r)
	}
	return out
}

// Validate checks the versions are ordered by valid_from, contiguous and
// non-overlapping, with exactly one open version which is the last and
// active.
func (h History) Validate() error {
	n := len(h.Versions)
	if n == 0 {
		return fmt.Errorf("%w: key %q has no versions", ErrInvalidVersioningState, h.NaturalKey)
	}
	for i, r := range h.Versions {
		if i == n-1 {
			if r.ValidTo != nil || !r.IsActive {
				return fmt.Errorf("%w: key %q terminal version is not open and active", ErrInvalidVersioningState, h.NaturalKey)
			}
			break
		}
		next := h.Versions[i+1]
		switch {
		case r.ValidTo == nil:
			return fmt.Errorf("%w: key %q has more than one open version", ErrInvalidVersioningState, h.NaturalKey)
		case r.IsActive:
			return fmt.Errorf("%w: key %q has a closed version marked active", ErrInvalidVersioningState, h.NaturalKey)
		case !r.ValidTo.After(r.ValidFrom):
			return fmt.Errorf("%w: key %q version %d has an empty interval", ErrInvalidVersioningState, h.NaturalKey, r.ID)
		case !next.ValidFrom.After(r.ValidFrom):
			return fmt.Errorf("%w: key %q versions not ordered by valid_from", ErrInvalidVersioningState, h.NaturalKey)
		case !r.ValidTo.Equal(next.ValidFrom):
			return fmt.Errorf("%w: key %q versions %d and %d overlap or leave a gap", ErrInvalidVersioningState, h.NaturalKey, r.ID, next.ID)
		}
	}
	return nil
}

// ValidateHistory validates every key of an SCD2 record set.
func ValidateHistory(rs *RecordSet) error {
	for _, h := range Histories(rs) {
		if err := h.Validate(); err != nil {
			return err
		}
	}
	return nil
}
