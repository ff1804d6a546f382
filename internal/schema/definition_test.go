package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fnum(v float64) *float64 { return &v }

func TestSingular(t *testing.T) {
	tests := map[string]string{
		"employees":    "employee",
		"categories":   "category",
		"addresses":    "address",
		"boxes":        "box",
		"class":        "class",
		"staff":        "staff",
		"Transactions": "transaction",
	}
	for in, want := range tests {
		assert.Equal(t, want, Singular(in), in)
	}
}

func TestInferNaturalKey(t *testing.T) {
	tests := []struct {
		table  string
		fields []string
		want   string
		ok     bool
	}{
		{"employees", []string{"id", "employee_id", "name"}, "employee_id", true},
		{"orders", []string{"transaction_id", "id"}, "transaction_id", true},
		{"tickets", []string{"subject", "ticket_id"}, "ticket_id", true},
		{"notes", []string{"id", "body"}, "id", true},
		{"notes", []string{"body"}, "", false},
	}
	for _, tt := range tests {
		got, ok := InferNaturalKey(tt.table, tt.fields)
		assert.Equal(t, tt.ok, ok, tt.table)
		assert.Equal(t, tt.want, got, tt.table)
	}
}

func TestResolve_KeySources(t *testing.T) {
	declared := Definition{
		Domain: "hr_core", Table: "employees",
		Fields: []FieldDef{
			{Name: "employee_id", Type: "integer"},
			{Name: "badge", Type: "string"},
		},
		NaturalKey:     []string{"badge"},
		DuplicateProne: []string{"badge", "employee_id"},
	}
	desc, err := declared.Resolve()
	require.NoError(t, err)
	assert.Equal(t, KeyDeclared, desc.KeySource)
	assert.Equal(t, []string{"badge"}, desc.NaturalKey)
	assert.True(t, desc.IsKeyField("badge"))
	// key fields are never duplicate-prone
	assert.Equal(t, []string{"employee_id"}, desc.DuplicateProne)

	declared.NaturalKey = nil
	desc, err = declared.Resolve()
	require.NoError(t, err)
	assert.Equal(t, KeyInferred, desc.KeySource)
	assert.Equal(t, []string{"employee_id"}, desc.NaturalKey)

	surrogate := Definition{
		Domain: "misc", Table: "notes",
		Fields: []FieldDef{{Name: "body", Type: "string"}},
	}
	desc, err = surrogate.Resolve()
	require.NoError(t, err)
	assert.True(t, desc.UsesSurrogateKey())
	assert.Equal(t, []string{SurrogateKeyField}, desc.NaturalKey)
	assert.False(t, desc.IsKeyField(SurrogateKeyField))
}

func TestResolve_Defaults(t *testing.T) {
	def := Definition{
		Domain: "retail", Table: "orders",
		Fields: []FieldDef{
			{Name: "note", Type: "string"},
			{Name: "code", Type: "string", MinLength: 4},
			{Name: "amount", Type: "decimal"},
			{Name: "status", Type: "categorical", Labels: []string{"a", "b"}, Weights: map[string]float64{"a": 3}},
			{Name: "customer_id", Type: "foreign_key", References: "customers"},
		},
	}
	desc, err := def.Resolve()
	require.NoError(t, err)

	note, _ := desc.Field("note")
	assert.Equal(t, DefaultMinLength, note.Domain.MinLength)
	assert.Equal(t, DefaultMaxLength, note.Domain.MaxLength)

	code, _ := desc.Field("code")
	assert.Equal(t, 4, code.Domain.MaxLength)

	amount, _ := desc.Field("amount")
	assert.Equal(t, DefaultDecimals, amount.Domain.Decimals)

	status, _ := desc.Field("status")
	assert.Equal(t, []float64{3, 0}, status.Domain.Weights)

	fks := desc.ForeignKeys()
	require.Len(t, fks, 1)
	assert.Equal(t, TableID{"retail", "customers"}, fks[0].Domain.Target)
	assert.True(t, desc.ReferencesTable(TableID{"retail", "customers"}))
	assert.Equal(t, []string{"note", "code", "amount", "status", "customer_id"}, desc.FieldNames())
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		fields []FieldDef
		key    []string
		dup    []string
	}{
		{"no fields", nil, nil, nil},
		{"empty name", []FieldDef{{Type: "integer"}}, nil, nil},
		{"unknown type", []FieldDef{{Name: "x", Type: "blob"}}, nil, nil},
		{"duplicate field", []FieldDef{{Name: "x", Type: "integer"}, {Name: "x", Type: "string"}}, nil, nil},
		{"min above max", []FieldDef{{Name: "x", Type: "integer", Min: fnum(5), Max: fnum(1)}}, nil, nil},
		{"empty labels", []FieldDef{{Name: "x", Type: "categorical"}}, nil, nil},
		{"unknown weight label", []FieldDef{{Name: "x", Type: "categorical", Labels: []string{"a"}, Weights: map[string]float64{"b": 1}}}, nil, nil},
		{"zero weights", []FieldDef{{Name: "x", Type: "categorical", Labels: []string{"a"}, Weights: map[string]float64{"a": 0}}}, nil, nil},
		{"length bounds", []FieldDef{{Name: "x", Type: "string", MinLength: 9, MaxLength: 2}}, nil, nil},
		{"unknown pattern", []FieldDef{{Name: "x", Type: "string", Pattern: "iban"}}, nil, nil},
		{"fk without target", []FieldDef{{Name: "x", Type: "foreign_key"}}, nil, nil},
		{"unknown key", []FieldDef{{Name: "x", Type: "integer"}}, []string{"y"}, nil},
		{"unknown duplicate field", []FieldDef{{Name: "x", Type: "integer"}}, nil, []string{"y"}},
		{"duplicate-prone fk", []FieldDef{{Name: "x", Type: "fk", References: "a.b"}}, nil, []string{"x"}},
		{"envelope column", []FieldDef{{Name: "notes", Type: "string"}}, nil, nil},
		{"surrogate id column", []FieldDef{{Name: "id", Type: "integer"}}, nil, nil},
		{"no integer in bounds", []FieldDef{{Name: "x", Type: "integer", Min: fnum(1.2), Max: fnum(1.8)}}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := Definition{Domain: "d", Table: "t", Fields: tt.fields, NaturalKey: tt.key, DuplicateProne: tt.dup}
			_, err := def.Resolve()
			assert.ErrorIs(t, err, ErrSchemaInvalid)
		})
	}

	_, err := Definition{Table: "t"}.Resolve()
	assert.ErrorIs(t, err, ErrSchemaInvalid)
}

func TestResolve_ReportsAllProblems(t *testing.T) {
	def := Definition{
		Domain: "d", Table: "t",
		Fields: []FieldDef{
			{Name: "a", Type: "blob"},
			{Name: "b", Type: "categorical"},
		},
	}
	_, err := def.Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestResolve_RejectsEveryReservedColumn(t *testing.T) {
	for _, name := range ReservedColumns {
		def := Definition{Domain: "d", Table: "t", Fields: []FieldDef{{Name: name, Type: "string"}}}
		_, err := def.Resolve()
		assert.ErrorIs(t, err, ErrSchemaInvalid, name)
	}
}

func TestResolve_CompletesNumericBounds(t *testing.T) {
	tests := []struct {
		name     string
		fd       FieldDef
		min, max float64
	}{
		{"int defaults", FieldDef{Type: "integer"}, DefaultIntMin, DefaultIntMax},
		{"decimal defaults", FieldDef{Type: "decimal"}, DefaultDecimalMin, DefaultDecimalMax},
		{"int min inside default", FieldDef{Type: "integer", Min: fnum(50)}, 50, DefaultIntMax},
		{"int min above default max", FieldDef{Type: "integer", Min: fnum(500000)}, 500000, 500000 + DefaultIntMax - DefaultIntMin},
		{"decimal min above default max", FieldDef{Type: "decimal", Min: fnum(20000)}, 20000, 20000 + DefaultDecimalMax - DefaultDecimalMin},
		{"decimal max below default min", FieldDef{Type: "decimal", Max: fnum(-50)}, -50 - DefaultDecimalMax + DefaultDecimalMin, -50},
		{"int max below default min", FieldDef{Type: "integer", Max: fnum(-10)}, -10 - DefaultIntMax + DefaultIntMin, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fd.Name = "v"
			desc, err := Definition{Domain: "d", Table: "t", Fields: []FieldDef{tt.fd}}.Resolve()
			require.NoError(t, err)
			f, _ := desc.Field("v")
			require.NotNil(t, f.Domain.Min)
			require.NotNil(t, f.Domain.Max)
			assert.Equal(t, tt.min, *f.Domain.Min)
			assert.Equal(t, tt.max, *f.Domain.Max)
			assert.LessOrEqual(t, *f.Domain.Min, *f.Domain.Max)
		})
	}
}
