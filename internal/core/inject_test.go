package core

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/synthedata/internal/geo"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

func assemble(t *testing.T, e *Engine, domain, table string, rows int, seed uint64) (*RecordSet, *Rand) {
	t.Helper()
	desc := loadFixture(t, e, domain, table)
	rng := NewRand(seed)
	batch, err := NewBatchContext(rng, fixedNow, nil, "")
	require.NoError(t, err)
	asm := NewAssembler(desc, NewSynthesizer(fixedNow, 0, batch.Geo), batch)
	return asm.Assemble(rows, rng), rng
}

func TestInject_HeavyNullRateWithinTolerance(t *testing.T) {
	e := newTestEngine(t)
	rs, err := e.Generate(context.Background(), GenerateRequest{
		Table:        schema.TableID{Domain: "test", Table: "people"},
		Rows:         10_000,
		ErrorProfile: "heavy",
		Seed:         seed(42),
	})
	require.NoError(t, err)
	require.Equal(t, 10_000, rs.Len())

	nullable := []string{"email", "nickname", "score", "tier", "joined"}
	for _, name := range nullable {
		var nulls int
		for _, r := range rs.Records {
			if r.Fields[name] == nil {
				nulls++
			}
		}
		frac := float64(nulls) / float64(rs.Len())
		assert.InDelta(t, 0.20, frac, 0.02, "null fraction of %s", name)
	}

	for _, r := range rs.Records {
		require.NotNil(t, r.Fields["person_id"], "natural key must never be nulled")
		require.NotNil(t, r.Fields["age"], "non-nullable field must never be nulled")
	}
}

func TestInject_NoneLeavesRecordsUntouched(t *testing.T) {
	e := newTestEngine(t)
	rs, rng := assemble(t, e, "test", "people", 200, 1)
	before := rs.Clone()

	report := NewInjector(ProfileNone, nil).Inject(rs, rng)

	assert.Zero(t, report.Total())
	assert.Equal(t, before.Records, rs.Records)
}

func TestInject_MarksTouchedRowsWarn(t *testing.T) {
	e := newTestEngine(t)
	rs, rng := assemble(t, e, "test", "people", 500, 2)
	before := rs.Clone()

	report := NewInjector(ProfileHeavy, nil).Inject(rs, rng)
	require.Positive(t, report.Total())

	var warned int
	for i, r := range rs.Records {
		changed := RecordHash(rs.Schema, r.Fields) != RecordHash(rs.Schema, before.Records[i].Fields)
		if changed {
			assert.Equal(t, StatusWarn, r.ProcessingStatus, "row %d changed but not warned", i)
		}
		if r.ProcessingStatus == StatusWarn {
			warned++
		}
	}
	assert.Equal(t, report.RowsTouched, warned)
}

func TestInject_DuplicatePass(t *testing.T) {
	e := newTestEngine(t)
	rs, rng := assemble(t, e, "test", "people", 100, 3)
	first := rs.Records[0].Clone()

	p := ErrorProfile{Name: "dups", DuplicateRate: 0.5}
	report := NewInjector(p, nil).Inject(rs, rng)

	// 50 targets, two duplicate-prone fields each, no nulls to skip.
	assert.Equal(t, 100, report.Duplicates)
	assert.Equal(t, 50, report.RowsTouched)
	assert.Equal(t, first, rs.Records[0], "row 0 is never a duplicate target")

	m := Profile(rs)
	assert.Positive(t, m.Columns["email"].DuplicatesCount)
}

func TestInject_TypoChangesStringsOnly(t *testing.T) {
	e := newTestEngine(t)
	rs, rng := assemble(t, e, "test", "people", 300, 4)
	before := rs.Clone()

	p := ErrorProfile{Name: "typos", TypoRate: 1}
	report := NewInjector(p, nil).Inject(rs, rng)
	assert.Equal(t, 600, report.Typos)

	for i, r := range rs.Records {
		assert.Equal(t, before.Records[i].Fields["score"], r.Fields["score"])
		assert.Equal(t, before.Records[i].Fields["person_id"], r.Fields["person_id"])
		orig := before.Records[i].Fields["nickname"].(string)
		got := r.Fields["nickname"].(string)
		assert.LessOrEqual(t, math.Abs(float64(len(got)-len(orig))), 1.0)
	}
}

func TestTypo_Operations(t *testing.T) {
	rng := NewRand(11)
	for i := 0; i < 1000; i++ {
		out := typo("hello", rng)
		require.GreaterOrEqual(t, len(out), 4)
		require.LessOrEqual(t, len(out), 6)
	}
}

func TestInject_OutOfRangeLeavesBounds(t *testing.T) {
	e := newTestEngine(t)
	rs, rng := assemble(t, e, "test", "people", 300, 5)

	p := ErrorProfile{Name: "oor", OutOfRangeRate: 1}
	report := NewInjector(p, nil).Inject(rs, rng)
	// score and age on every row; person_id is the natural key.
	assert.Equal(t, 600, report.OutOfRange)

	score, _ := rs.Schema.Field("score")
	age, _ := rs.Schema.Field("age")
	for _, r := range rs.Records {
		assert.False(t, Conforms(score, r.Fields["score"]), "score %v", r.Fields["score"])
		assert.False(t, Conforms(age, r.Fields["age"]), "age %v", r.Fields["age"])
	}
}

func TestOutOfRange_PushesInBoundProducts(t *testing.T) {
	spec := schema.FieldSpec{Kind: schema.KindInteger, Domain: schema.Domain{Min: num(-100), Max: num(100)}}
	out, ok := outOfRange(spec, int64(5), 10)
	require.True(t, ok)
	assert.Equal(t, int64(301), out)

	dec := schema.FieldSpec{Kind: schema.KindDecimal, Domain: schema.Domain{Min: num(0), Max: num(10), Decimals: 2}}
	out, ok = outOfRange(dec, 0.0, 100)
	require.True(t, ok)
	assert.Equal(t, 21.0, out)
}

func TestInject_ForeignKeysUntouched(t *testing.T) {
	e := newTestEngine(t)
	desc := loadFixture(t, e, "test", "orders")
	rng := NewRand(1)
	g, _ := geo.Lookup("")
	batch, err := NewBatchContext(rng, fixedNow, &g, "")
	require.NoError(t, err)
	rs := NewAssembler(desc, NewSynthesizer(fixedNow, 0, g), batch).Assemble(50, rng)
	for i := range rs.Records {
		rs.Records[i].Fields["person_id"] = int64(i)
	}

	NewInjector(ErrorProfile{Name: "all", NullRate: 1, TypoRate: 1, OutOfRangeRate: 1}, nil).Inject(rs, rng)
	for i, r := range rs.Records {
		assert.Equal(t, int64(i), r.Fields["person_id"])
	}
}

func TestLookupProfile(t *testing.T) {
	p, err := LookupProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileNone, p)

	p, err = LookupProfile("Heavy")
	require.NoError(t, err)
	assert.Equal(t, 0.20, p.NullRate)
	assert.Equal(t, 0.08, p.OutOfRangeRate)

	_, err = LookupProfile("brutal")
	assert.ErrorIs(t, err, ErrUnknownErrorProfile)

	assert.Equal(t, []string{"heavy", "light", "moderate", "none"}, ProfileNames())
	assert.ErrorIs(t, ErrorProfile{Name: "bad", NullRate: 2}.Validate(), ErrInvalidRequest)
}
