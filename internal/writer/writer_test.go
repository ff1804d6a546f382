package writer

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/schema"
	_ "github.com/JonMunkholm/synthedata/internal/schema/tables"
)

var (
	customers    = schema.TableID{Domain: "retail", Table: "customers"}
	transactions = schema.TableID{Domain: "retail", Table: "transactions"}
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newEngine(t *testing.T) *core.Engine {
	t.Helper()
	return core.NewEngine(schema.NewCatalog(schema.RegistrySource{}), core.WithClock(fixedClock))
}

func linkedSets(t *testing.T) map[string]*core.RecordSet {
	t.Helper()
	seed := int64(7)
	sets, err := newEngine(t).GenerateLinked(context.Background(), core.LinkedRequest{
		Primary:       customers,
		Secondaries:   []schema.TableID{transactions},
		PrimaryRows:   25,
		SecondaryRows: 60,
		ErrorProfile:  "moderate",
		Seed:          &seed,
	})
	require.NoError(t, err)
	return sets
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats([]string{"CSV", " jsonl", "csv", "", "parquet"})
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatCSV, FormatJSONL, FormatParquet}, got)

	_, err = ParseFormats([]string{"xlsx"})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, []string{"csv", "dq", "duckdb", "jsonl", "parquet"}, FormatNames())
}

func TestLayoutPath(t *testing.T) {
	l := Layout{Root: "out"}
	assert.Equal(t, filepath.Join("out", "customers", "retail__customers.csv"), l.Path(customers, "csv"))
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("xml", t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestColumns_TypesAndOrder(t *testing.T) {
	rs := linkedSets(t)["retail.transactions"]
	cols := Columns(rs)
	require.Len(t, cols, len(rs.Schema.Fields)+len(core.EnvelopeColumns))

	byName := make(map[string]ColumnType)
	for _, c := range cols {
		byName[c.Name] = c.Type
	}
	assert.Equal(t, "transaction_id", cols[0].Name)
	assert.Equal(t, TypeInt, byName["customer_id"])
	assert.Equal(t, TypeInt, byName["qty"])
	assert.Equal(t, TypeFloat, byName["unit_price"])
	assert.Equal(t, TypeTimestamp, byName["transacted_at"])
	assert.Equal(t, TypeTimestamp, byName["valid_to_utc"])
	assert.Equal(t, TypeString, byName["record_hash"])
}

func TestFormatCell(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	assert.Equal(t, "", formatCell(nil, TypeString))
	assert.Equal(t, "2024-01-02", formatCell(ts, TypeDate))
	assert.Equal(t, "2024-01-02T02:04:05Z", formatCell(ts, TypeTimestamp))
	assert.Equal(t, "true", formatCell(true, TypeBool))
	assert.Equal(t, "42", formatCell(int64(42), TypeInt))
}

func TestCSVWriter(t *testing.T) {
	root := t.TempDir()
	rs := linkedSets(t)["retail.customers"]

	require.NoError(t, (&CSVWriter{Layout: Layout{Root: root}}).Write(context.Background(), rs))

	f, err := os.Open(Layout{Root: root}.Path(customers, "csv"))
	require.NoError(t, err)
	defer f.Close()

	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, rs.Len()+1)
	assert.Equal(t, rs.Columns(), lines[0])
	for _, line := range lines[1:] {
		assert.Len(t, line, len(rs.Columns()))
	}
}

func TestJSONLWriter(t *testing.T) {
	root := t.TempDir()
	rs := linkedSets(t)["retail.transactions"]

	require.NoError(t, (&JSONLWriter{Layout: Layout{Root: root}}).Write(context.Background(), rs))

	f, err := os.Open(Layout{Root: root}.Path(transactions, "jsonl"))
	require.NoError(t, err)
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var obj map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &obj))
		assert.Len(t, obj, len(rs.Columns()))
		assert.Contains(t, obj, "batch_time_utc")
		n++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, rs.Len(), n)
}

func TestParquetWriter(t *testing.T) {
	root := t.TempDir()
	rs := linkedSets(t)["retail.transactions"]

	require.NoError(t, (&ParquetWriter{Layout: Layout{Root: root}}).Write(context.Background(), rs))

	rdr, err := file.OpenParquetFile(Layout{Root: root}.Path(transactions, "parquet"), false)
	require.NoError(t, err)
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	require.NoError(t, err)
	tbl, err := fr.ReadTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, int64(rs.Len()), tbl.NumRows())
	assert.Equal(t, int64(len(rs.Columns())), tbl.NumCols())
	assert.Equal(t, "transaction_id", tbl.Schema().Field(0).Name)
}

func TestDuckDBWriter(t *testing.T) {
	root := t.TempDir()
	rs := linkedSets(t)["retail.customers"]
	w := &DuckDBWriter{Layout: Layout{Root: root}}

	// Writing twice replaces the file rather than appending.
	require.NoError(t, w.Write(context.Background(), rs))
	require.NoError(t, w.Write(context.Background(), rs))

	db, err := sql.Open("duckdb", Layout{Root: root}.Path(customers, "duckdb"))
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM customers`).Scan(&n))
	assert.Equal(t, rs.Len(), n)

	var active int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM customers WHERE is_active`).Scan(&active))
	assert.Equal(t, rs.Len(), active)
}

func TestDuckDBWriter_Transactions(t *testing.T) {
	root := t.TempDir()
	rs := linkedSets(t)["retail.transactions"]

	seen := make(map[string]bool)
	for _, c := range Columns(rs) {
		require.False(t, seen[c.Name], "column %s emitted twice", c.Name)
		seen[c.Name] = true
	}

	require.NoError(t, (&DuckDBWriter{Layout: Layout{Root: root}}).Write(context.Background(), rs))

	db, err := sql.Open("duckdb", Layout{Root: root}.Path(transactions, "duckdb"))
	require.NoError(t, err)
	defer db.Close()

	var n, memos int
	require.NoError(t, db.QueryRow(`SELECT count(*), count(memo) FILTER (WHERE memo <> '') FROM transactions`).Scan(&n, &memos))
	assert.Equal(t, rs.Len(), n)
	assert.Positive(t, memos)
}

func TestReportWriter(t *testing.T) {
	root := t.TempDir()
	rs := linkedSets(t)["retail.customers"]

	require.NoError(t, (&ReportWriter{Layout: Layout{Root: root}}).Write(context.Background(), rs))

	data, err := os.ReadFile(Layout{Root: root}.Path(customers, "dq.json"))
	require.NoError(t, err)

	var rep Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, "retail.customers", rep.Table)
	assert.Equal(t, rs.Len(), rep.Rows)
	assert.Equal(t, "moderate", rep.Injection.Profile)
	assert.Equal(t, core.Profile(rs).CompletenessPct, rep.Metrics.CompletenessPct)
	assert.Len(t, rep.Metrics.Columns, len(rs.Schema.Fields))
}

func TestCreateTableSQL(t *testing.T) {
	cols := []Column{{Name: "id", Type: TypeInt}, {Name: `we"ird`, Type: TypeString}}
	assert.Equal(t, `CREATE TABLE t ("id" BIGINT, "we""ird" TEXT)`, createTableSQL("t", cols, pgType))
	assert.Equal(t, `CREATE TABLE t ("id" BIGINT, "we""ird" VARCHAR)`, createTableSQL("t", cols, duckType))
}

type recordingWriter struct {
	ch chan string
}

func (w *recordingWriter) Write(_ context.Context, rs *core.RecordSet) error {
	w.ch <- rs.Table().Table
	return nil
}

type failingWriter struct{}

func (failingWriter) Write(context.Context, *core.RecordSet) error {
	return errors.New("disk full")
}

func TestWriteAll(t *testing.T) {
	sets := linkedSets(t)
	rec := &recordingWriter{ch: make(chan string, 10)}

	require.NoError(t, WriteAll(context.Background(), sets, []Writer{rec}, 2))
	close(rec.ch)

	var got []string
	for name := range rec.ch {
		got = append(got, name)
	}
	assert.ElementsMatch(t, []string{"customers", "transactions"}, got)
}

func TestWriteAll_FirstErrorWins(t *testing.T) {
	err := WriteAll(context.Background(), linkedSets(t), []Writer{failingWriter{}}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWriteAll_Files(t *testing.T) {
	root := t.TempDir()
	writers, err := NewAll([]Format{FormatCSV, FormatReport}, root)
	require.NoError(t, err)
	require.NoError(t, WriteAll(context.Background(), linkedSets(t), writers, 4))

	for _, id := range []schema.TableID{customers, transactions} {
		for _, ext := range []string{"csv", "dq.json"} {
			_, err := os.Stat(Layout{Root: root}.Path(id, ext))
			assert.NoError(t, err, "%s %s", id, ext)
		}
	}
}
