package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Ecosystem is a named bundle of tables generated together: a primary table
// and secondaries linked to it, each sized relative to a base row count.
type Ecosystem struct {
	Key          string
	Name         string
	Description  string
	BusinessType string
	Primary      TableID
	Secondaries  []TableID
	// Ratios scale the base row count per table. Tables without a ratio
	// get the base count.
	Ratios map[TableID]float64
}

// Tables returns the primary followed by the secondaries.
func (e Ecosystem) Tables() []TableID {
	return append([]TableID{e.Primary}, e.Secondaries...)
}

// EcosystemMember describes one table of an ecosystem.
type EcosystemMember struct {
	Table string  `json:"table"`
	Role  string  `json:"role"`
	Ratio float64 `json:"ratio"`
}

// Members lists the tables in generation order with their row ratios.
func (e Ecosystem) Members() []EcosystemMember {
	out := make([]EcosystemMember, 0, 1+len(e.Secondaries))
	for i, id := range e.Tables() {
		role := "secondary"
		if i == 0 {
			role = "primary"
		}
		ratio, ok := e.Ratios[id]
		if !ok {
			ratio = 1
		}
		out = append(out, EcosystemMember{Table: id.String(), Role: role, Ratio: ratio})
	}
	return out
}

// RowsFor returns the row count of every table for a base volume. Each table
// gets at least one row.
func (e Ecosystem) RowsFor(base int) map[TableID]int {
	out := make(map[TableID]int, 1+len(e.Secondaries))
	for _, id := range e.Tables() {
		ratio, ok := e.Ratios[id]
		if !ok {
			ratio = 1
		}
		out[id] = max(1, int(float64(base)*ratio))
	}
	return out
}

// Validate checks the declaration without resolving tables.
func (e Ecosystem) Validate() error {
	if e.Key == "" {
		return fmt.Errorf("%w: ecosystem without key", ErrSchemaInvalid)
	}
	if e.Primary.IsZero() {
		return fmt.Errorf("%w: ecosystem %q has no primary table", ErrSchemaInvalid, e.Key)
	}
	member := map[TableID]bool{e.Primary: true}
	for _, id := range e.Secondaries {
		if member[id] {
			return fmt.Errorf("%w: ecosystem %q lists %s twice", ErrSchemaInvalid, e.Key, id)
		}
		member[id] = true
	}
	for id, r := range e.Ratios {
		if !member[id] {
			return fmt.Errorf("%w: ecosystem %q has a ratio for non-member %s", ErrSchemaInvalid, e.Key, id)
		}
		if r <= 0 {
			return fmt.Errorf("%w: ecosystem %q ratio for %s must be positive", ErrSchemaInvalid, e.Key, id)
		}
	}
	return nil
}

// EcosystemSource is implemented by catalog sources that also declare
// ecosystems.
type EcosystemSource interface {
	Ecosystems() ([]Ecosystem, error)
}

var (
	ecosystems   = make(map[string]Ecosystem)
	ecosystemsMu sync.RWMutex
)

// RegisterEcosystem adds a built-in ecosystem.
// Panics on a duplicate key or an invalid declaration.
func RegisterEcosystem(e Ecosystem) {
	if err := e.Validate(); err != nil {
		panic(err.Error())
	}
	ecosystemsMu.Lock()
	defer ecosystemsMu.Unlock()
	if _, exists := ecosystems[e.Key]; exists {
		panic(fmt.Sprintf("ecosystem already registered: %s", e.Key))
	}
	ecosystems[e.Key] = e
}

// RegisteredEcosystems returns the built-in ecosystems sorted by key.
func RegisteredEcosystems() []Ecosystem {
	ecosystemsMu.RLock()
	defer ecosystemsMu.RUnlock()
	out := make([]Ecosystem, 0, len(ecosystems))
	for _, e := range ecosystems {
		out = append(out, e)
	}
	sortEcosystems(out)
	return out
}

// ClearEcosystems removes all built-in ecosystems.
func ClearEcosystems() {
	ecosystemsMu.Lock()
	defer ecosystemsMu.Unlock()
	ecosystems = make(map[string]Ecosystem)
}

func sortEcosystems(list []Ecosystem) {
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
}

// Ecosystems implements EcosystemSource.
func (RegistrySource) Ecosystems() ([]Ecosystem, error) {
	return RegisteredEcosystems(), nil
}

// StaticEcosystems serves a fixed list of ecosystems and no tables.
type StaticEcosystems []Ecosystem

// Definitions implements Source.
func (StaticEcosystems) Definitions() ([]Definition, error) {
	return nil, nil
}

// Ecosystems implements EcosystemSource.
func (s StaticEcosystems) Ecosystems() ([]Ecosystem, error) {
	for _, e := range s {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return append([]Ecosystem(nil), s...), nil
}
