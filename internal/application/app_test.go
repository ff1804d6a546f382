package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/synthedata/internal/config"
	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/schema"
	"github.com/JonMunkholm/synthedata/internal/writer"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	t.Setenv("SYNTHE_CATALOG_DIR", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Formats = []string{"csv", "dq"}
	cfg.Generation.AsOf = ""
	return cfg
}

func TestNew_BuiltinsOnly(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Pool)
	tables, err := app.Catalog.Tables("retail")
	require.NoError(t, err)
	assert.Contains(t, tables, "customers")
}

func TestNew_BadCatalogDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("tables: [nope"), 0o644))

	cfg := testConfig(t)
	cfg.Catalog.Dir = dir
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestWriters(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)

	ws, err := app.Writers([]string{"csv", "parquet"}, t.TempDir(), false)
	require.NoError(t, err)
	assert.Len(t, ws, 2)

	_, err = app.Writers([]string{"csv"}, t.TempDir(), true)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	_, err = app.Writers([]string{"xml"}, t.TempDir(), false)
	assert.ErrorIs(t, err, writer.ErrUnknownFormat)
}

func TestNew_AsOfPinsClock(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generation.AsOf = "2024-03-01"
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	rs, err := app.Engine.Generate(context.Background(), core.GenerateRequest{
		Table: schema.TableID{Domain: "retail", Table: "customers"},
		Rows:  3,
	})
	require.NoError(t, err)
	for _, r := range rs.Records {
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), r.BatchTime)
	}
}

func TestJobSink_WritesPerJobDirectory(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)

	runner := core.NewJobRunner(app.Engine, core.NewJobLimiter(1, time.Second), app.JobSink())
	info, err := runner.Submit(context.Background(), core.JobSpec{
		Kind: core.JobGenerate,
		Generate: &core.GenerateRequest{
			Table: schema.TableID{Domain: "retail", Table: "products"},
			Rows:  12,
		},
	})
	require.NoError(t, err)

	final, err := runner.Wait(context.Background(), info.ID)
	require.NoError(t, err)
	require.Equal(t, core.JobSucceeded, final.Status, final.Error)

	l := writer.Layout{Root: filepath.Join(cfg.Output.Dir, info.ID)}
	id := schema.TableID{Domain: "retail", Table: "products"}
	for _, ext := range []string{"csv", "dq.json"} {
		_, err := os.Stat(l.Path(id, ext))
		assert.NoError(t, err, ext)
	}
}
