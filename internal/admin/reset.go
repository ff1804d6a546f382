// Package admin provides administrative operations on the PostgreSQL sink.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

// ResetTimeout is the maximum duration for a reset.
const ResetTimeout = 30 * time.Second

// DBTX is the subset of a pool or transaction the reset needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Reset drops the tables the PostgreSQL writer created for the given table
// ids in schemaName. Missing tables are ignored.
//
// This is a destructive operation - use with caution.
func Reset(ctx context.Context, db DBTX, schemaName string, ids []schema.TableID) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	for _, id := range ids {
		ident := pgx.Identifier{schemaName, id.Domain + "__" + id.Table}
		if _, err := db.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
			return fmt.Errorf("drop %s: %w", id, err)
		}
		slog.Debug("table dropped", "table", ident.Sanitize())
	}
	return nil
}

// ResetDomain drops every catalog table of domain.
func ResetDomain(ctx context.Context, db DBTX, schemaName string, catalog *schema.Catalog, domain string) (int, error) {
	tables, err := catalog.Tables(domain)
	if err != nil {
		return 0, err
	}
	ids := make([]schema.TableID, len(tables))
	for i, t := range tables {
		ids[i] = schema.TableID{Domain: domain, Table: t}
	}
	if err := Reset(ctx, db, schemaName, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}
