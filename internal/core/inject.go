package core

import (
	"unicode/utf8"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

// DefaultOutOfRangeFactors are the multipliers used by the out-of-range pass.
var DefaultOutOfRangeFactors = []float64{10, 100, -1, -10}

// InjectionReport counts the cells each pass rewrote.
type InjectionReport struct {
	Profile     string `json:"profile"`
	Nulls       int    `json:"nulls"`
	Duplicates  int    `json:"duplicates"`
	Typos       int    `json:"typos"`
	OutOfRange  int    `json:"out_of_range"`
	RowsTouched int    `json:"rows_touched"`
}

// Total returns the number of cells rewritten by all passes.
func (r InjectionReport) Total() int {
	return r.Nulls + r.Duplicates + r.Typos + r.OutOfRange
}

// Injector applies an error profile to a record set in place.
//
// Passes run in a fixed order: null, duplicate, typo, out-of-range.
// Natural-key fields, foreign keys and the envelope are never touched.
type Injector struct {
	profile ErrorProfile
	factors []float64
}

// NewInjector creates an injector. Empty factors use DefaultOutOfRangeFactors.
func NewInjector(p ErrorProfile, factors []float64) *Injector {
	if len(factors) == 0 {
		factors = DefaultOutOfRangeFactors
	}
	return &Injector{profile: p, factors: factors}
}

// Inject corrupts rs and marks every touched record as warn.
func (in *Injector) Inject(rs *RecordSet, rng *Rand) InjectionReport {
	report := InjectionReport{Profile: in.profile.Name}
	if in.profile.IsZero() || len(rs.Records) == 0 {
		return report
	}

	touched := make([]bool, len(rs.Records))
	mark := func(i int) {
		touched[i] = true
		rs.Records[i].Warn()
	}

	var nullable, strs, nums []schema.FieldSpec
	for _, f := range rs.Schema.Fields {
		if !eligible(rs.Schema, f) {
			continue
		}
		if f.Nullable {
			nullable = append(nullable, f)
		}
		switch {
		case f.Kind == schema.KindString:
			strs = append(strs, f)
		case f.Kind.IsNumeric():
			nums = append(nums, f)
		}
	}

	report.Nulls = in.nullPass(rs, nullable, rng, mark)
	report.Duplicates = in.duplicatePass(rs, rng, mark)
	report.Typos = in.typoPass(rs, strs, rng, mark)
	report.OutOfRange = in.outOfRangePass(rs, nums, rng, mark)

	for _, t := range touched {
		if t {
			report.RowsTouched++
		}
	}
	return report
}

func eligible(desc *schema.Descriptor, f schema.FieldSpec) bool {
	return !desc.IsKeyField(f.Name) && f.Kind != schema.KindForeignKey
}

func (in *Injector) nullPass(rs *RecordSet, fields []schema.FieldSpec, rng *Rand, mark func(int)) int {
	rate := in.profile.NullRate
	if rate == 0 || len(fields) == 0 {
		return 0
	}
	var n int
	for i := range rs.Records {
		for _, f := range fields {
			if !rng.Chance(rate) {
				continue
			}
			if rs.Records[i].Fields[f.Name] == nil {
				continue
			}
			rs.Records[i].Fields[f.Name] = nil
			mark(i)
			n++
		}
	}
	return n
}

// duplicatePass picks floor(rate*n) distinct target rows (row 0 excluded)
// and copies each duplicate-prone field from a uniformly chosen earlier row.
func (in *Injector) duplicatePass(rs *RecordSet, rng *Rand, mark func(int)) int {
	rate := in.profile.DuplicateRate
	rows := len(rs.Records)
	prone := rs.Schema.DuplicateProne
	if rate == 0 || rows < 2 || len(prone) == 0 {
		return 0
	}
	k := int(rate * float64(rows))
	if k > rows-1 {
		k = rows - 1
	}

	// Partial Fisher-Yates over rows 1..n-1.
	candidates := make([]int, rows-1)
	for i := range candidates {
		candidates[i] = i + 1
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	var n int
	for _, target := range candidates[:k] {
		for _, name := range prone {
			src := rng.IntN(target)
			dst := rs.Records[target].Fields[name]
			val := rs.Records[src].Fields[name]
			if dst == nil || val == nil {
				continue
			}
			rs.Records[target].Fields[name] = val
			mark(target)
			n++
		}
	}
	return n
}

// Typo operations.
const (
	typoSwap = iota
	typoDelete
	typoInsert
	typoReplace
)

func (in *Injector) typoPass(rs *RecordSet, fields []schema.FieldSpec, rng *Rand, mark func(int)) int {
	rate := in.profile.TypoRate
	if rate == 0 || len(fields) == 0 {
		return 0
	}
	var n int
	for i := range rs.Records {
		for _, f := range fields {
			if !rng.Chance(rate) {
				continue
			}
			s, ok := rs.Records[i].Fields[f.Name].(string)
			if !ok || utf8.RuneCountInString(s) < 2 {
				continue
			}
			rs.Records[i].Fields[f.Name] = typo(s, rng)
			mark(i)
			n++
		}
	}
	return n
}

// typo applies one random edit to s (at least two runes). It draws three
// values: the operation, the position and the letter.
func typo(s string, rng *Rand) string {
	r := []rune(s)
	op := rng.IntN(4)
	pos := rng.IntN(len(r))
	ch := rune(lowerLetters[rng.IntN(len(lowerLetters))])

	switch op {
	case typoSwap:
		if pos == len(r)-1 {
			pos--
		}
		r[pos], r[pos+1] = r[pos+1], r[pos]
	case typoDelete:
		r = append(r[:pos], r[pos+1:]...)
	case typoInsert:
		r = append(r[:pos], append([]rune{ch}, r[pos:]...)...)
	case typoReplace:
		r[pos] = ch
	}
	return string(r)
}

func (in *Injector) outOfRangePass(rs *RecordSet, fields []schema.FieldSpec, rng *Rand, mark func(int)) int {
	rate := in.profile.OutOfRangeRate
	if rate == 0 || len(fields) == 0 {
		return 0
	}
	var n int
	for i := range rs.Records {
		for _, f := range fields {
			if !rng.Chance(rate) {
				continue
			}
			v := rs.Records[i].Fields[f.Name]
			if v == nil {
				continue
			}
			factor := in.factors[rng.IntN(len(in.factors))]
			out, ok := outOfRange(f, v, factor)
			if !ok {
				continue
			}
			rs.Records[i].Fields[f.Name] = out
			mark(i)
			n++
		}
	}
	return n
}

// outOfRange scales v by factor. A product still inside the declared bounds
// is pushed to max + (max - min) + 1.
func outOfRange(f schema.FieldSpec, v any, factor float64) (any, bool) {
	switch x := v.(type) {
	case int64:
		lo, hi := intBounds(f.Domain)
		out := int64(float64(x) * factor)
		if out >= lo && out <= hi {
			out = hi + (hi - lo) + 1
		}
		return out, true
	case float64:
		lo, hi := f.Domain.Bounds(DefaultDecimalMin, DefaultDecimalMax)
		out := roundTo(x*factor, f.Domain.Decimals)
		if out >= lo && out <= hi {
			out = hi + (hi - lo) + 1
		}
		return out, true
	}
	return nil, false
}
