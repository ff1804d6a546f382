package writer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/synthedata/internal/core"
)

// PostgresWriter bulk-loads record sets into PostgreSQL with COPY. Each set
// goes to <schema>.<domain>__<table>, created on first use. Existing rows
// are kept, so repeated runs append.
type PostgresWriter struct {
	Pool   *pgxpool.Pool
	Schema string
}

// NewPostgresWriter creates a writer targeting schema ("public" if empty).
func NewPostgresWriter(pool *pgxpool.Pool, schema string) *PostgresWriter {
	if schema == "" {
		schema = "public"
	}
	return &PostgresWriter{Pool: pool, Schema: schema}
}

func pgType(t ColumnType) string {
	switch t {
	case TypeInt:
		return "BIGINT"
	case TypeFloat:
		return "DOUBLE PRECISION"
	case TypeBool:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	case TypeTimestamp:
		return "TIMESTAMPTZ"
	}
	return "TEXT"
}

// pgTableName returns the unqualified target table name.
func pgTableName(rs *core.RecordSet) string {
	id := rs.Table()
	return id.Domain + "__" + id.Table
}

// Write implements Writer.
func (w *PostgresWriter) Write(ctx context.Context, rs *core.RecordSet) error {
	cols := Columns(rs)
	name := pgTableName(rs)
	ident := pgx.Identifier{w.Schema, name}

	tx, err := w.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ddl := createTableSQL(ident.Sanitize(), cols, pgType)
	ddl = "CREATE TABLE IF NOT EXISTS" + ddl[len("CREATE TABLE"):]
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	colNames := make([]string, len(cols))
	for i, c := range cols {
		colNames[i] = c.Name
	}
	n, err := tx.CopyFrom(ctx, ident, colNames, pgx.CopyFromRows(rs.Rows()))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", name, err)
	}
	if int(n) != rs.Len() {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", name, n, rs.Len())
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
