package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

func TestIsPII(t *testing.T) {
	tests := []struct {
		spec schema.FieldSpec
		want bool
	}{
		{schema.FieldSpec{Name: "contact", Kind: schema.KindString, Domain: schema.Domain{Pattern: schema.PatternEmail}}, true},
		{schema.FieldSpec{Name: "home_phone", Kind: schema.KindString}, true},
		{schema.FieldSpec{Name: "ssn_last4", Kind: schema.KindString}, true},
		{schema.FieldSpec{Name: "nickname", Kind: schema.KindString}, false},
		{schema.FieldSpec{Name: "birth_year", Kind: schema.KindInteger}, false},
	}
	for _, tt := range tests {
		if got := IsPII(tt.spec); got != tt.want {
			t.Errorf("IsPII(%s) = %v, want %v", tt.spec.Name, got, tt.want)
		}
	}
}

func TestSensitivity(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, PIIHigh, Sensitivity(loadFixture(t, e, "test", "people")))
	assert.Equal(t, PIILow, Sensitivity(loadFixture(t, e, "test", "events")))
	assert.Equal(t, []string{"email"}, PIIFields(loadFixture(t, e, "test", "people")))
}

func TestTagValue(t *testing.T) {
	assert.Equal(t, "email", TagValue("ana@example.com"))
	assert.Equal(t, "phone", TagValue("+593 912345678"))
	assert.Equal(t, "", TagValue("hello"))
	assert.Equal(t, "", TagValue(int64(12345678)))
}

func TestHashValue(t *testing.T) {
	a := HashValue("s1", "ana@example.com")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashValue("s1", "ana@example.com"))
	assert.NotEqual(t, a, HashValue("s2", "ana@example.com"))
}

func TestMaskPII_SkipsNullsAndKeys(t *testing.T) {
	e := newTestEngine(t)
	rs, _ := assemble(t, e, "test", "people", 10, 1)
	rs.Records[3].Fields["email"] = nil

	masked := MaskPII(rs, "")
	require.Equal(t, 9, masked)
	assert.Nil(t, rs.Records[3].Fields["email"])
	for _, r := range rs.Records {
		assert.IsType(t, int64(0), r.Fields["person_id"])
	}
}
