package core

import (
	"testing"
	"time"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

var fixedNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func num(v float64) *float64 { return &v }

// fixtureDefinitions are small tables shaped for the engine tests.
func fixtureDefinitions() schema.StaticSource {
	return schema.StaticSource{
		{
			Domain: "hr_core",
			Table:  "employees",
			Fields: []schema.FieldDef{
				{Name: "employee_id", Type: "integer", Min: num(1), Max: num(9999)},
				{Name: "name", Type: "string", Pattern: "full_name"},
				{Name: "active", Type: "boolean"},
			},
		},
		{
			Domain: "test",
			Table:  "people",
			Fields: []schema.FieldDef{
				{Name: "person_id", Type: "integer", Min: num(1), Max: num(1_000_000)},
				{Name: "email", Type: "string", Pattern: "email", Nullable: true},
				{Name: "nickname", Type: "string", MinLength: 4, MaxLength: 10, Nullable: true},
				{Name: "score", Type: "decimal", Min: num(0), Max: num(100), Nullable: true},
				{Name: "tier", Type: "categorical", Labels: []string{"a", "b", "c"}, Nullable: true},
				{Name: "joined", Type: "date", Nullable: true},
				{Name: "age", Type: "integer", Min: num(18), Max: num(90)},
			},
			NaturalKey:     []string{"person_id"},
			DuplicateProne: []string{"email", "nickname"},
		},
		{
			Domain: "test",
			Table:  "orders",
			Fields: []schema.FieldDef{
				{Name: "order_id", Type: "string", Pattern: "uuid"},
				{Name: "person_id", Type: "foreign_key", References: "people"},
				{Name: "amount", Type: "decimal", Min: num(1), Max: num(500)},
			},
		},
		{
			Domain: "test",
			Table:  "events",
			Fields: []schema.FieldDef{
				{Name: "kind", Type: "categorical", Labels: []string{"click", "view"}},
				{Name: "at", Type: "datetime", WindowDays: 7},
			},
		},
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	catalog := schema.NewCatalog(fixtureDefinitions())
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewEngine(catalog, opts...)
}

func loadFixture(t *testing.T, e *Engine, domain, table string) *schema.Descriptor {
	t.Helper()
	desc, err := e.Catalog().Load(schema.TableID{Domain: domain, Table: table})
	if err != nil {
		t.Fatalf("load %s.%s: %v", domain, table, err)
	}
	return desc
}

func seed(v int64) *int64 { return &v }
