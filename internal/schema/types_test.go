package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"integer", KindInteger},
		{"BIGINT", KindInteger},
		{" numeric ", KindDecimal},
		{"text", KindString},
		{"enum", KindCategorical},
		{"date", KindDate},
		{"timestamp", KindDateTime},
		{"bool", KindBoolean},
		{"fk", KindForeignKey},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseKind("blob")
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "foreign_key", KindForeignKey.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestParseTableID(t *testing.T) {
	tests := []struct {
		in, def string
		want    TableID
		wantErr bool
	}{
		{in: "hr_core.employees", want: TableID{"hr_core", "employees"}},
		{in: "employees", def: "hr_core", want: TableID{"hr_core", "employees"}},
		{in: "employees", wantErr: true},
		{in: "", def: "hr_core", wantErr: true},
		{in: ".employees", wantErr: true},
		{in: "a.b.c", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTableID(tt.in, tt.def)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want.Domain+"."+tt.want.Table, got.String())
	}
}

func TestDomainBounds(t *testing.T) {
	lo, hi := Domain{}.Bounds(0, 10)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 10.0, hi)

	five := 5.0
	lo, hi = Domain{Min: &five}.Bounds(0, 10)
	assert.Equal(t, 5.0, lo)
	assert.Equal(t, 10.0, hi)
}
