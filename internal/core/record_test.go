package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

func TestRecordClone(t *testing.T) {
	to := fixedNow.Add(time.Hour)
	r := Record{
		Fields:   map[string]any{"a": int64(1)},
		Envelope: Envelope{ID: 3, ValidTo: &to, Tags: []string{}},
	}

	c := r.Clone()
	assert.Equal(t, r, c)
	assert.NotNil(t, c.Tags)

	c.Fields["a"] = int64(2)
	*c.ValidTo = fixedNow
	c.Tags = append(c.Tags, "x")
	assert.Equal(t, int64(1), r.Fields["a"])
	assert.Equal(t, fixedNow.Add(time.Hour), *r.ValidTo)
	assert.Empty(t, r.Tags)

	r.Tags = []string{"a", "b"}
	c = r.Clone()
	c.Tags[0] = "z"
	assert.Equal(t, []string{"a", "b"}, r.Tags)

	r.Tags = nil
	assert.Nil(t, r.Clone().Tags)
}

func TestRecordSetClone_Equal(t *testing.T) {
	rs, err := newTestEngine(t).Generate(context.Background(), GenerateRequest{Table: people, Rows: 50})
	require.NoError(t, err)
	assert.Equal(t, rs.Records, rs.Clone().Records)
}

func TestGenerate_OneSidedBoundsStayInDomain(t *testing.T) {
	src := schema.StaticSource{{
		Domain: "test",
		Table:  "bounds",
		Fields: []schema.FieldDef{
			{Name: "big", Type: "integer", Min: num(500_000)},
			{Name: "price", Type: "decimal", Min: num(20_000)},
			{Name: "debt", Type: "decimal", Max: num(-50)},
		},
	}}
	e := NewEngine(schema.NewCatalog(src), WithClock(func() time.Time { return fixedNow }))
	rs, err := e.Generate(context.Background(), GenerateRequest{Table: schema.TableID{Domain: "test", Table: "bounds"}, Rows: 300})
	require.NoError(t, err)

	distinct := make(map[int64]bool)
	for _, r := range rs.Records {
		big := r.Fields["big"].(int64)
		require.GreaterOrEqual(t, big, int64(500_000))
		distinct[big] = true
		require.GreaterOrEqual(t, r.Fields["price"].(float64), 20_000.0)
		require.LessOrEqual(t, r.Fields["debt"].(float64), -50.0)
	}
	assert.Greater(t, len(distinct), 1)

	m := Profile(rs)
	for _, name := range []string{"big", "price", "debt"} {
		assert.Equal(t, 100.0, m.Columns[name].ValidityPct, name)
	}
}
