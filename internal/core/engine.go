package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/synthedata/internal/geo"
	"github.com/JonMunkholm/synthedata/internal/logging"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

// DefaultMaxRows caps a single table request.
const DefaultMaxRows = 1_000_000

// Options tune the engine. Zero values fall back to package defaults.
type Options struct {
	DefaultSeed       uint64
	WindowDays        int
	MaxVersionsPerKey int
	MinStep           time.Duration
	MaxStep           time.Duration
	OutOfRangeFactors []float64
	Actor             string
	MaxRows           int
	PIISalt           string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		DefaultSeed:       DefaultSeed,
		WindowDays:        DefaultWindowDays,
		MaxVersionsPerKey: DefaultMaxVersionsPerKey,
		MinStep:           DefaultMinStep,
		MaxStep:           DefaultMaxStep,
		OutOfRangeFactors: DefaultOutOfRangeFactors,
		Actor:             DefaultActor,
		MaxRows:           DefaultMaxRows,
		PIISalt:           DefaultPIISalt,
	}
}

// Engine is the entry point for generation. It is safe for concurrent use;
// every call owns its random stream and its record sets.
type Engine struct {
	catalog *schema.Catalog
	opts    Options
	clock   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for batch times.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithOptions sets the engine options.
func WithOptions(o Options) Option {
	return func(e *Engine) { e.opts = o }
}

// NewEngine creates an engine over catalog.
func NewEngine(catalog *schema.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		opts:    DefaultOptions(),
		clock:   time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.opts.MaxRows <= 0 {
		e.opts.MaxRows = DefaultMaxRows
	}
	return e
}

// Catalog returns the schema catalog the engine resolves tables against.
func (e *Engine) Catalog() *schema.Catalog {
	return e.catalog
}

// GenerateRequest asks for one table.
type GenerateRequest struct {
	Table        schema.TableID
	Rows         int
	ErrorProfile string
	// Seed nil means the configured default seed.
	Seed *int64
	// Geo names a geographic context. Empty keeps geo constant per call.
	Geo     string
	MaskPII bool
	// AsOf anchors batch time and date windows. Zero uses the engine clock.
	AsOf time.Time
}

// HistoryRequest asks for one SCD2-expanded table.
type HistoryRequest struct {
	GenerateRequest
	ChangeProbability float64
}

// LinkedRequest asks for a primary table and secondaries whose foreign keys
// sample the primary's keys. TableRows, when it has an entry for a table,
// overrides PrimaryRows or SecondaryRows for it.
type LinkedRequest struct {
	Primary           schema.TableID
	Secondaries       []schema.TableID
	PrimaryRows       int
	SecondaryRows     int
	TableRows         map[schema.TableID]int
	ErrorProfile      string
	SCD2              bool
	ChangeProbability float64
	Seed              *int64
	Geo               string
	MaskPII           bool
	AsOf              time.Time
}

// EcosystemRequest asks for every table of a named ecosystem, sized from
// BaseRows by the ecosystem's ratios.
type EcosystemRequest struct {
	Key               string
	BaseRows          int
	ErrorProfile      string
	SCD2              bool
	ChangeProbability float64
	Seed              *int64
	Geo               string
	MaskPII           bool
	AsOf              time.Time
}

// call holds the state of one engine invocation.
type call struct {
	seed    uint64
	rng     *Rand
	batch   *BatchContext
	synth   *Synthesizer
	profile ErrorProfile
	linker  *Linker
	mask    bool
}

func (e *Engine) seedOf(s *int64) uint64 {
	if s == nil {
		return e.opts.DefaultSeed
	}
	return uint64(*s)
}

func (e *Engine) newCall(seed *int64, profileName, geoName string, mask bool, asOf time.Time) (*call, error) {
	profile, err := LookupProfile(profileName)
	if err != nil {
		return nil, err
	}
	var g *geo.Context
	if geoName != "" {
		gc, err := geo.Lookup(geoName)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		g = &gc
	}

	c := &call{seed: e.seedOf(seed), profile: profile, mask: mask}
	c.rng = NewRand(c.seed)
	now := asOf
	if now.IsZero() {
		now = e.clock()
	}
	c.batch, err = NewBatchContext(c.rng, now, g, e.opts.Actor)
	if err != nil {
		return nil, err
	}
	c.synth = NewSynthesizer(c.batch.BatchTime, e.opts.WindowDays, c.batch.Geo)
	return c, nil
}

func (e *Engine) checkRows(rows int) error {
	if rows < 0 {
		return fmt.Errorf("%w: negative row count %d", ErrInvalidRequest, rows)
	}
	if rows > e.opts.MaxRows {
		return fmt.Errorf("%w: row count %d exceeds limit %d", ErrInvalidRequest, rows, e.opts.MaxRows)
	}
	return nil
}

func checkProbability(p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%w: change probability %v outside [0,1]", ErrInvalidRequest, p)
	}
	return nil
}

// Generate produces exactly req.Rows records for one table.
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) (*RecordSet, error) {
	return e.generate(ctx, req, false, 0)
}

// GenerateWithHistory generates a table and expands it into SCD2 history.
func (e *Engine) GenerateWithHistory(ctx context.Context, req HistoryRequest) (*RecordSet, error) {
	if err := checkProbability(req.ChangeProbability); err != nil {
		return nil, err
	}
	return e.generate(ctx, req.GenerateRequest, true, req.ChangeProbability)
}

func (e *Engine) generate(ctx context.Context, req GenerateRequest, history bool, changeProb float64) (*RecordSet, error) {
	if err := e.checkRows(req.Rows); err != nil {
		return nil, err
	}
	desc, err := e.catalog.Load(req.Table)
	if err != nil {
		return nil, err
	}
	c, err := e.newCall(req.Seed, req.ErrorProfile, req.Geo, req.MaskPII, req.AsOf)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.table(ctx, c, desc, req.Rows, history, changeProb)
}

// table runs the per-table pipeline: assemble, inject, version, bind,
// finalize.
func (e *Engine) table(ctx context.Context, c *call, desc *schema.Descriptor, rows int, history bool, changeProb float64) (*RecordSet, error) {
	start := time.Now()
	log := logging.WithFields(ctx, "table", desc.ID.String(), "seed", c.seed)
	log.Debug("generating table", "rows", rows, "profile", c.profile.Name, "scd2", history)

	asm := NewAssembler(desc, c.synth, c.batch)
	rs := asm.Assemble(rows, c.rng)

	if !c.profile.IsZero() {
		rs.Injection = NewInjector(c.profile, e.opts.OutOfRangeFactors).Inject(rs, c.rng)
	}

	if history {
		v := NewVersioner(asm, VersionerOptions{
			MaxVersionsPerKey: e.opts.MaxVersionsPerKey,
			ChangeProbability: changeProb,
			MinStep:           e.opts.MinStep,
			MaxStep:           e.opts.MaxStep,
		})
		versioned, err := v.Versionize(rs, c.rng)
		if err != nil {
			log.Error("scd2 versioning failed", "error", err)
			return nil, fmt.Errorf("versionize %s: %w", desc.ID, err)
		}
		versioned.Injection = rs.Injection
		rs = versioned
	}

	if c.linker != nil {
		if _, err := c.linker.Bind(rs, c.rng); err != nil {
			return nil, err
		}
	}
	if c.mask {
		MaskPII(rs, e.opts.PIISalt)
	}
	Finalize(rs)

	log.Info("generated table",
		"rows", rs.Len(),
		"profile", c.profile.Name,
		"injected_cells", rs.Injection.Total(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rs, nil
}

// GenerateLinked generates the primary table, then each secondary in order
// with the same random stream. Foreign keys to the primary (or to an earlier
// secondary) sample that table's realized keys.
//
// A secondary that fails, e.g. with ErrEmptyParentPool, is left out of the
// result and its error is joined into the returned error; the primary and
// the other secondaries are still returned.
func (e *Engine) GenerateLinked(ctx context.Context, req LinkedRequest) (map[string]*RecordSet, error) {
	rowsOf := func(id schema.TableID, def int) int {
		if n, ok := req.TableRows[id]; ok {
			return n
		}
		return def
	}
	if err := e.checkRows(rowsOf(req.Primary, req.PrimaryRows)); err != nil {
		return nil, err
	}
	for _, id := range req.Secondaries {
		if err := e.checkRows(rowsOf(id, req.SecondaryRows)); err != nil {
			return nil, err
		}
	}
	if req.SCD2 {
		if err := checkProbability(req.ChangeProbability); err != nil {
			return nil, err
		}
	}

	seen := map[schema.TableID]bool{req.Primary: true}
	secondaries := make([]*schema.Descriptor, 0, len(req.Secondaries))
	for _, id := range req.Secondaries {
		if seen[id] {
			return nil, fmt.Errorf("%w: table %s listed twice", ErrInvalidRequest, id)
		}
		seen[id] = true
	}

	primary, err := e.catalog.Load(req.Primary)
	if err != nil {
		return nil, err
	}
	for _, id := range req.Secondaries {
		desc, err := e.catalog.Load(id)
		if err != nil {
			return nil, err
		}
		secondaries = append(secondaries, desc)
	}

	c, err := e.newCall(req.Seed, req.ErrorProfile, req.Geo, req.MaskPII, req.AsOf)
	if err != nil {
		return nil, err
	}
	c.linker = NewLinker()

	out := make(map[string]*RecordSet, 1+len(secondaries))
	prs, err := e.table(ctx, c, primary, rowsOf(primary.ID, req.PrimaryRows), req.SCD2, req.ChangeProbability)
	if err != nil {
		return nil, fmt.Errorf("primary %s: %w", primary.ID, err)
	}
	out[primary.ID.String()] = prs
	pool := c.linker.AddParent(prs)
	logging.FromContext(ctx).Debug("primary key pool", "table", primary.ID.String(), "keys", pool.Len())

	var errs []error
	for _, desc := range secondaries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := c.linker.CheckParents(desc); err != nil {
			logging.FromContext(ctx).Warn("skipping secondary table", "table", desc.ID.String(), "error", err)
			errs = append(errs, fmt.Errorf("secondary %s: %w", desc.ID, err))
			continue
		}
		rs, err := e.table(ctx, c, desc, rowsOf(desc.ID, req.SecondaryRows), false, 0)
		if err != nil {
			errs = append(errs, fmt.Errorf("secondary %s: %w", desc.ID, err))
			continue
		}
		out[desc.ID.String()] = rs
		c.linker.AddParent(rs)
	}
	return out, errors.Join(errs...)
}

// GenerateEcosystem generates every table of the ecosystem named by
// req.Key as one linked call.
func (e *Engine) GenerateEcosystem(ctx context.Context, req EcosystemRequest) (map[string]*RecordSet, error) {
	if err := e.checkRows(req.BaseRows); err != nil {
		return nil, err
	}
	eco, err := e.catalog.Ecosystem(req.Key)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("generating ecosystem", "ecosystem", eco.Key, "base_rows", req.BaseRows, "tables", len(eco.Secondaries)+1)
	return e.GenerateLinked(ctx, LinkedRequest{
		Primary:           eco.Primary,
		Secondaries:       eco.Secondaries,
		TableRows:         eco.RowsFor(req.BaseRows),
		ErrorProfile:      req.ErrorProfile,
		SCD2:              req.SCD2,
		ChangeProbability: req.ChangeProbability,
		Seed:              req.Seed,
		Geo:               req.Geo,
		MaskPII:           req.MaskPII,
		AsOf:              req.AsOf,
	})
}

// Profile computes DQ metrics for rs.
func (e *Engine) Profile(rs *RecordSet) DQMetrics {
	return Profile(rs)
}
