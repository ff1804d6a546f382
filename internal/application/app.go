// Package application wires configuration into the engine and its sinks.
// Both binaries build their runtime through New.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/synthedata/internal/config"
	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/schema"
	_ "github.com/JonMunkholm/synthedata/internal/schema/tables" // Register built-in tables
	"github.com/JonMunkholm/synthedata/internal/writer"
)

// App holds the long-lived runtime objects.
type App struct {
	Config  *config.Config
	Catalog *schema.Catalog
	Engine  *core.Engine

	// Pool is nil unless a database URL is configured.
	Pool *pgxpool.Pool
}

// New builds the catalog from the built-in registry plus the catalog
// directory, creates the engine and, when configured, connects to
// PostgreSQL.
func New(ctx context.Context, cfg *config.Config, opts ...core.Option) (*App, error) {
	catalog := schema.NewCatalog(schema.RegistrySource{}, schema.DirSource{Dir: cfg.Catalog.Dir})
	domains, err := catalog.Domains()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	slog.Info("catalog loaded", "domains", len(domains), "dir", cfg.Catalog.Dir)

	base := []core.Option{core.WithOptions(cfg.EngineOptions())}
	if clock := cfg.Generation.Clock(); clock != nil {
		base = append(base, core.WithClock(clock))
	}
	opts = append(base, opts...)
	app := &App{
		Config:  cfg,
		Catalog: catalog,
		Engine:  core.NewEngine(catalog, opts...),
	}

	if cfg.Database.Enabled() {
		pool, err := OpenPool(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		app.Pool = pool
	}
	return app, nil
}

// OpenPool connects to PostgreSQL with the configured pool limits and
// verifies the connection.
func OpenPool(ctx context.Context, c *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(c.MaxConns)
	poolConfig.MinConns = int32(c.MinConns)
	poolConfig.MaxConnLifetime = c.MaxConnLifetime
	poolConfig.MaxConnIdleTime = c.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(c.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"), "schema", c.Schema)
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// Writers returns the file writers for formats under root, followed by the
// PostgreSQL writer when a pool is open and toDB is set.
func (a *App) Writers(formats []string, root string, toDB bool) ([]writer.Writer, error) {
	parsed, err := writer.ParseFormats(formats)
	if err != nil {
		return nil, err
	}
	ws, err := writer.NewAll(parsed, root)
	if err != nil {
		return nil, err
	}
	if toDB {
		if a.Pool == nil {
			return nil, fmt.Errorf("%w: database output requested but DATABASE_URL is not set", core.ErrInvalidRequest)
		}
		ws = append(ws, writer.NewPostgresWriter(a.Pool, a.Config.Database.Schema))
	}
	return ws, nil
}

// Write writes every set with the writers.
func (a *App) Write(ctx context.Context, sets map[string]*core.RecordSet, ws []writer.Writer) error {
	return writer.WriteAll(ctx, sets, ws, a.Config.Output.Parallelism)
}

// JobSink writes the results of each background job under
// <output dir>/<job id>/ in the configured formats, and into PostgreSQL
// when a pool is open.
func (a *App) JobSink() core.JobSink {
	return func(ctx context.Context, info core.JobInfo, results map[string]*core.RecordSet) error {
		root := filepath.Join(a.Config.Output.Dir, info.ID)
		ws, err := a.Writers(a.Config.Output.Formats, root, a.Pool != nil)
		if err != nil {
			return err
		}
		if err := a.Write(ctx, results, ws); err != nil {
			return err
		}
		slog.Info("job output written", "job_id", info.ID, "dir", root, "tables", len(results))
		return nil
	}
}
