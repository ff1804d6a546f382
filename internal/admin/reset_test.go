package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

type recordingDB struct {
	stmts []string
	fail  bool
}

func (r *recordingDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if r.fail {
		return pgconn.CommandTag{}, errors.New("permission denied")
	}
	r.stmts = append(r.stmts, sql)
	return pgconn.NewCommandTag("DROP TABLE"), nil
}

func TestReset(t *testing.T) {
	db := &recordingDB{}
	err := Reset(context.Background(), db, "public", []schema.TableID{
		{Domain: "retail", Table: "customers"},
		{Domain: "retail", Table: "transactions"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`DROP TABLE IF EXISTS "public"."retail__customers"`,
		`DROP TABLE IF EXISTS "public"."retail__transactions"`,
	}, db.stmts)
}

func TestReset_Error(t *testing.T) {
	err := Reset(context.Background(), &recordingDB{fail: true}, "public", []schema.TableID{{Domain: "d", Table: "t"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "d.t")
}

func TestResetDomain(t *testing.T) {
	catalog := schema.NewCatalog(schema.StaticSource{
		{Domain: "d", Table: "a", Fields: []schema.FieldDef{{Name: "a_id", Type: "integer"}}},
		{Domain: "d", Table: "b", Fields: []schema.FieldDef{{Name: "b_id", Type: "integer"}}},
	})
	db := &recordingDB{}
	n, err := ResetDomain(context.Background(), db, "s", catalog, "d")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, db.stmts, 2)

	_, err = ResetDomain(context.Background(), db, "s", catalog, "missing")
	assert.ErrorIs(t, err, schema.ErrSchemaNotFound)
}
