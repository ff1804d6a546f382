package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/synthedata/internal/geo"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

// Bounds used when a numeric field declares none. Resolved descriptors
// always carry both bounds; these cover hand-built specs.
const (
	DefaultIntMin     = schema.DefaultIntMin
	DefaultIntMax     = schema.DefaultIntMax
	DefaultDecimalMin = schema.DefaultDecimalMin
	DefaultDecimalMax = schema.DefaultDecimalMax
)

// DefaultWindowDays is the historical window for date fields.
const DefaultWindowDays = 365

// Synthesizer produces single field values from a field spec and the call's
// random stream. Dates are drawn in [now - window, now].
type Synthesizer struct {
	now        time.Time
	windowDays int
	geo        geo.Context
}

// NewSynthesizer creates a synthesizer anchored at now. A non-positive
// windowDays falls back to DefaultWindowDays.
func NewSynthesizer(now time.Time, windowDays int, g geo.Context) *Synthesizer {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Synthesizer{now: now.UTC(), windowDays: windowDays, geo: g}
}

// Now returns the anchor time.
func (s *Synthesizer) Now() time.Time {
	return s.now
}

// Synthesize returns a value for spec. Foreign keys return nil without
// drawing; the linker binds them later.
func (s *Synthesizer) Synthesize(spec schema.FieldSpec, rng *Rand) any {
	d := spec.Domain
	switch spec.Kind {
	case schema.KindInteger:
		lo, hi := intBounds(d)
		return rng.Int64Range(lo, hi)
	case schema.KindDecimal:
		lo, hi := d.Bounds(DefaultDecimalMin, DefaultDecimalMax)
		v := roundTo(rng.FloatRange(lo, hi), d.Decimals)
		return math.Min(math.Max(v, lo), hi)
	case schema.KindBoolean:
		return rng.Chance(0.5)
	case schema.KindCategorical:
		if len(d.Weights) > 0 {
			return d.Labels[rng.Weighted(d.Weights)]
		}
		return d.Labels[rng.IntN(len(d.Labels))]
	case schema.KindDate:
		days := rng.IntN(s.window(d))
		day := time.Date(s.now.Year(), s.now.Month(), s.now.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -days)
	case schema.KindDateTime:
		secs := rng.Int64Range(0, int64(s.window(d))*86400)
		return s.now.Add(-time.Duration(secs) * time.Second).Truncate(time.Second)
	case schema.KindString:
		return s.synthString(spec, rng)
	case schema.KindForeignKey:
		return nil
	}
	return nil
}

func (s *Synthesizer) window(d schema.Domain) int {
	if d.WindowDays > 0 {
		return d.WindowDays
	}
	return s.windowDays
}

func intBounds(d schema.Domain) (int64, int64) {
	lo, hi := d.Bounds(DefaultIntMin, DefaultIntMax)
	return int64(math.Ceil(lo)), int64(math.Floor(hi))
}

func (s *Synthesizer) synthString(spec schema.FieldSpec, rng *Rand) string {
	d := spec.Domain
	switch d.Pattern {
	case schema.PatternWord:
		return loremWords[rng.IntN(len(loremWords))]
	case schema.PatternFirstName:
		return firstNames[rng.IntN(len(firstNames))]
	case schema.PatternLastName:
		return lastNames[rng.IntN(len(lastNames))]
	case schema.PatternFullName:
		first := firstNames[rng.IntN(len(firstNames))]
		return first + " " + lastNames[rng.IntN(len(lastNames))]
	case schema.PatternEmail:
		first := strings.ToLower(firstNames[rng.IntN(len(firstNames))])
		last := strings.ToLower(lastNames[rng.IntN(len(lastNames))])
		domain := emailDomains[rng.IntN(len(emailDomains))]
		return fmt.Sprintf("%s.%s%d@%s", first, last, rng.IntN(100), domain)
	case schema.PatternPhone:
		return fmt.Sprintf("%s %09d", s.geo.PhonePrefix, rng.IntN(1_000_000_000))
	case schema.PatternCity:
		cities := s.geo.Cities
		if len(cities) == 0 {
			return loremWords[rng.IntN(len(loremWords))]
		}
		return cities[rng.IntN(len(cities))].Name
	case schema.PatternUUID:
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return ""
		}
		return id.String()
	case schema.PatternCode:
		return fixedLength(rng, d.MinLength, d.MaxLength, func(u uint64) byte {
			return codeAlphabet[u%uint64(len(codeAlphabet))]
		})
	case schema.PatternText:
		return freeText(rng, d.MinLength, d.MaxLength)
	}
	return fixedLength(rng, d.MinLength, d.MaxLength, func(u uint64) byte {
		return lowerLetters[u%uint64(len(lowerLetters))]
	})
}

// fixedLength draws a length in [minLen, maxLen] and then always draws
// maxLen characters, keeping the first length of them.
func fixedLength(rng *Rand, minLen, maxLen int, char func(uint64) byte) string {
	n := minLen + rng.IntN(maxLen-minLen+1)
	buf := make([]byte, maxLen)
	for i := range buf {
		buf[i] = char(rng.Uint64())
	}
	return string(buf[:n])
}

// freeText joins lorem words and cuts the result to a drawn length. It
// always draws 1 + maxLen values.
func freeText(rng *Rand, minLen, maxLen int) string {
	n := minLen + rng.IntN(maxLen-minLen+1)
	var b strings.Builder
	for i := 0; i < maxLen; i++ {
		w := loremWords[rng.IntN(len(loremWords))]
		if b.Len() >= n {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	out := b.String()
	if len(out) > n {
		out = out[:n]
	}
	if n > 0 && out[n-1] == ' ' {
		out = out[:n-1] + "."
	}
	if n > 0 {
		out = strings.ToUpper(out[:1]) + out[1:]
	}
	return out
}

// Draws reports how many values Synthesize consumes for spec.
func Draws(spec schema.FieldSpec) int {
	switch spec.Kind {
	case schema.KindForeignKey:
		return 0
	case schema.KindString:
		switch spec.Domain.Pattern {
		case schema.PatternFullName, schema.PatternUUID:
			return 2
		case schema.PatternEmail:
			return 4
		case schema.PatternWord, schema.PatternFirstName, schema.PatternLastName,
			schema.PatternPhone, schema.PatternCity:
			return 1
		}
		return 1 + spec.Domain.MaxLength
	}
	return 1
}
