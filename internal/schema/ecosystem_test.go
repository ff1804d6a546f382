package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shopEcosystem() Ecosystem {
	return Ecosystem{
		Key:         "shop",
		Primary:     TableID{"hr", "employees"},
		Secondaries: []TableID{{"hr", "teams"}, {"ops", "tickets"}},
		Ratios: map[TableID]float64{
			{"hr", "teams"}:   0.1,
			{"ops", "tickets"}: 2.5,
		},
	}
}

func TestEcosystem_RowsFor(t *testing.T) {
	e := shopEcosystem()
	tests := []struct {
		base int
		want map[TableID]int
	}{
		{100, map[TableID]int{{"hr", "employees"}: 100, {"hr", "teams"}: 10, {"ops", "tickets"}: 250}},
		{5, map[TableID]int{{"hr", "employees"}: 5, {"hr", "teams"}: 1, {"ops", "tickets"}: 12}},
		{0, map[TableID]int{{"hr", "employees"}: 1, {"hr", "teams"}: 1, {"ops", "tickets"}: 1}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.RowsFor(tt.base), "base %d", tt.base)
	}
}

func TestEcosystem_Members(t *testing.T) {
	assert.Equal(t, []EcosystemMember{
		{Table: "hr.employees", Role: "primary", Ratio: 1},
		{Table: "hr.teams", Role: "secondary", Ratio: 0.1},
		{Table: "ops.tickets", Role: "secondary", Ratio: 2.5},
	}, shopEcosystem().Members())
}

func TestEcosystem_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Ecosystem)
	}{
		{"no key", func(e *Ecosystem) { e.Key = "" }},
		{"no primary", func(e *Ecosystem) { e.Primary = TableID{} }},
		{"repeated table", func(e *Ecosystem) { e.Secondaries = append(e.Secondaries, e.Primary) }},
		{"ratio for outsider", func(e *Ecosystem) { e.Ratios[TableID{"ops", "audits"}] = 1 }},
		{"zero ratio", func(e *Ecosystem) { e.Ratios[TableID{"hr", "teams"}] = 0 }},
	}
	require.NoError(t, shopEcosystem().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := shopEcosystem()
			tt.mutate(&e)
			assert.ErrorIs(t, e.Validate(), ErrSchemaInvalid)
		})
	}
}

func TestEcosystemRegistry(t *testing.T) {
	ClearEcosystems()
	t.Cleanup(ClearEcosystems)

	b := shopEcosystem()
	a := shopEcosystem()
	a.Key = "atelier"
	RegisterEcosystem(b)
	RegisterEcosystem(a)

	got := RegisteredEcosystems()
	require.Len(t, got, 2)
	assert.Equal(t, "atelier", got[0].Key)
	assert.Equal(t, "shop", got[1].Key)

	assert.Panics(t, func() { RegisterEcosystem(shopEcosystem()) })
	assert.Panics(t, func() { RegisterEcosystem(Ecosystem{Key: "empty"}) })
}

func TestCatalog_Ecosystem(t *testing.T) {
	broken := shopEcosystem()
	broken.Key = "broken"
	broken.Secondaries = append(broken.Secondaries, TableID{"ops", "audits"})

	cat := NewCatalog(
		StaticSource{simpleDef("hr", "employees"), simpleDef("hr", "teams"), simpleDef("ops", "tickets")},
		StaticEcosystems{shopEcosystem(), broken},
	)

	e, err := cat.Ecosystem("shop")
	require.NoError(t, err)
	assert.Equal(t, TableID{"hr", "employees"}, e.Primary)

	_, err = cat.Ecosystem("bakery")
	assert.ErrorIs(t, err, ErrSchemaNotFound)

	_, err = cat.Ecosystem("broken")
	assert.ErrorIs(t, err, ErrSchemaInvalid)
	assert.Contains(t, err.Error(), "ops.audits")

	list, err := cat.Ecosystems()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "broken", list[0].Key)

	// Ecosystems are not tables.
	domains, err := cat.Domains()
	require.NoError(t, err)
	assert.Equal(t, []string{"hr", "ops"}, domains)
}

func TestCatalog_InvalidEcosystemSource(t *testing.T) {
	cat := NewCatalog(StaticEcosystems{{Key: "nothing"}})
	_, err := cat.Ecosystems()
	assert.ErrorIs(t, err, ErrSchemaInvalid)
}
