package core

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorProfile is a named bundle of corruption rates, each in [0, 1].
type ErrorProfile struct {
	Name           string  `json:"name" yaml:"name"`
	NullRate       float64 `json:"null_rate" yaml:"null_rate"`
	DuplicateRate  float64 `json:"duplicate_rate" yaml:"duplicate_rate"`
	TypoRate       float64 `json:"typo_rate" yaml:"typo_rate"`
	OutOfRangeRate float64 `json:"out_of_range_rate" yaml:"out_of_range_rate"`
}

// Predefined profiles.
var (
	ProfileNone     = ErrorProfile{Name: "none"}
	ProfileLight    = ErrorProfile{Name: "light", NullRate: 0.05, DuplicateRate: 0.02, TypoRate: 0.03, OutOfRangeRate: 0.01}
	ProfileModerate = ErrorProfile{Name: "moderate", NullRate: 0.10, DuplicateRate: 0.05, TypoRate: 0.07, OutOfRangeRate: 0.03}
	ProfileHeavy    = ErrorProfile{Name: "heavy", NullRate: 0.20, DuplicateRate: 0.10, TypoRate: 0.15, OutOfRangeRate: 0.08}
)

var profiles = map[string]ErrorProfile{
	ProfileNone.Name:     ProfileNone,
	ProfileLight.Name:    ProfileLight,
	ProfileModerate.Name: ProfileModerate,
	ProfileHeavy.Name:    ProfileHeavy,
}

// LookupProfile returns a predefined profile. An empty name is "none".
func LookupProfile(name string) (ErrorProfile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ProfileNone, nil
	}
	p, ok := profiles[name]
	if !ok {
		return ErrorProfile{}, fmt.Errorf("%w: %q", ErrUnknownErrorProfile, name)
	}
	return p, nil
}

// ProfileNames returns the predefined profile names, sorted.
func ProfileNames() []string {
	out := make([]string, 0, len(profiles))
	for n := range profiles {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// IsZero reports whether the profile injects nothing.
func (p ErrorProfile) IsZero() bool {
	return p.NullRate == 0 && p.DuplicateRate == 0 && p.TypoRate == 0 && p.OutOfRangeRate == 0
}

// Validate checks every rate lies in [0, 1].
func (p ErrorProfile) Validate() error {
	rates := []struct {
		name string
		v    float64
	}{
		{"null_rate", p.NullRate},
		{"duplicate_rate", p.DuplicateRate},
		{"typo_rate", p.TypoRate},
		{"out_of_range_rate", p.OutOfRangeRate},
	}
	var bad []string
	for _, r := range rates {
		if r.v < 0 || r.v > 1 {
			bad = append(bad, fmt.Sprintf("%s %v outside [0,1]", r.name, r.v))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: profile %q: %s", ErrInvalidRequest, p.Name, strings.Join(bad, "; "))
	}
	return nil
}
