package core

import (
	"fmt"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

// KeyPool is the set of realized natural-key values of one generated table,
// in first-appearance order.
type KeyPool struct {
	Table  schema.TableID
	Values []any
}

// BuildKeyPool collects the distinct natural-key values of rs. A single-field
// natural key contributes its typed value; composite and surrogate keys
// contribute the envelope key.
func BuildKeyPool(rs *RecordSet) KeyPool {
	pool := KeyPool{Table: rs.Table()}
	seen := make(map[any]bool, len(rs.Records))
	for i := range rs.Records {
		v := rs.KeyValue(&rs.Records[i])
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		pool.Values = append(pool.Values, v)
	}
	return pool
}

// Len returns the number of distinct keys.
func (p KeyPool) Len() int {
	return len(p.Values)
}

// Contains reports whether v is in the pool.
func (p KeyPool) Contains(v any) bool {
	for _, x := range p.Values {
		if x == v {
			return true
		}
	}
	return false
}

// Linker binds foreign keys of secondary tables to the key pools of tables
// generated earlier in the same call.
type Linker struct {
	pools map[schema.TableID]KeyPool
}

// NewLinker creates an empty linker.
func NewLinker() *Linker {
	return &Linker{pools: make(map[schema.TableID]KeyPool)}
}

// AddParent registers the realized keys of rs.
func (l *Linker) AddParent(rs *RecordSet) KeyPool {
	pool := BuildKeyPool(rs)
	l.pools[pool.Table] = pool
	return pool
}

// Pool returns the registered pool of a table.
func (l *Linker) Pool(id schema.TableID) (KeyPool, bool) {
	p, ok := l.pools[id]
	return p, ok
}

// CheckParents fails with ErrEmptyParentPool when desc has a foreign key to a
// registered table that produced no keys. It draws nothing, so a secondary
// can be rejected before any of its rows are generated.
func (l *Linker) CheckParents(desc *schema.Descriptor) error {
	for _, f := range desc.ForeignKeys() {
		pool, ok := l.pools[f.Domain.Target]
		if ok && pool.Len() == 0 {
			return fmt.Errorf("%w: %s.%s references %s", ErrEmptyParentPool, desc.ID, f.Name, f.Domain.Target)
		}
	}
	return nil
}

// Bind fills every foreign key of rs whose target has a registered pool by
// sampling that pool uniformly with replacement, one draw per cell, in row
// then field declaration order. Foreign keys to tables outside the call stay
// nil. It returns the number of cells bound.
func (l *Linker) Bind(rs *RecordSet, rng *Rand) (int, error) {
	if err := l.CheckParents(rs.Schema); err != nil {
		return 0, err
	}
	var fks []schema.FieldSpec
	for _, f := range rs.Schema.ForeignKeys() {
		if _, ok := l.pools[f.Domain.Target]; ok {
			fks = append(fks, f)
		}
	}
	if len(fks) == 0 {
		return 0, nil
	}

	var bound int
	for i := range rs.Records {
		for _, f := range fks {
			pool := l.pools[f.Domain.Target]
			rs.Records[i].Fields[f.Name] = pool.Values[rng.IntN(pool.Len())]
			bound++
		}
	}
	return bound, nil
}
