package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/synthedata/internal/config"
	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/schema"
	"github.com/JonMunkholm/synthedata/internal/writer"
)

// genFlags are the flags shared by the generation commands.
type genFlags struct {
	rows         int
	errorProfile string
	seed         int64
	geo          string
	maskPII      bool
	asOf         string

	out      string
	formats  []string
	dqReport bool
	toDB     bool
}

func (f *genFlags) register(cmd *cobra.Command, defaultRows int) {
	fl := cmd.Flags()
	fl.IntVar(&f.rows, "rows", defaultRows, "Number of rows to generate")
	fl.StringVar(&f.errorProfile, "error-profile", "none", "Error profile (none, light, moderate, heavy)")
	fl.Int64Var(&f.seed, "seed", 0, "Random seed (default SYNTHE_SEED)")
	fl.StringVar(&f.geo, "geo", "", "Geographic context (default SYNTHE_DEFAULT_GEO)")
	fl.BoolVar(&f.maskPII, "mask-pii", false, "Replace PII values with salted hashes")
	fl.StringVar(&f.asOf, "as-of", "", "Pin the generation clock, RFC 3339 or YYYY-MM-DD (default SYNTHE_AS_OF, else now)")
}

// asOfTime parses --as-of. Zero means the engine clock.
func (f *genFlags) asOfTime() (time.Time, error) {
	if f.asOf == "" {
		return time.Time{}, nil
	}
	t, err := config.ParseAsOf(f.asOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
	}
	return t, nil
}

func (f *genFlags) registerOutput(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.out, "out", "", "Output root directory (default SYNTHE_OUTPUT_DIR)")
	fl.StringSliceVar(&f.formats, "format", nil, "Output formats: csv, jsonl, parquet, duckdb (default SYNTHE_OUTPUT_FORMATS)")
	fl.BoolVar(&f.dqReport, "dq-report", true, "Also write a <table>.dq.json report")
	fl.BoolVar(&f.toDB, "db", false, "Also load the tables into PostgreSQL (needs DATABASE_URL)")
}

func (f *genFlags) seedPtr(cmd *cobra.Command) *int64 {
	if cmd.Flags().Changed("seed") {
		return &f.seed
	}
	return nil
}

func (rt *runtime) geoOrDefault(g string) string {
	if g == "" {
		return rt.cfg.Generation.DefaultGeo
	}
	return g
}

func (rt *runtime) request(cmd *cobra.Command, f *genFlags, id schema.TableID) (core.GenerateRequest, error) {
	asOf, err := f.asOfTime()
	if err != nil {
		return core.GenerateRequest{}, err
	}
	return core.GenerateRequest{
		Table:        id,
		Rows:         f.rows,
		ErrorProfile: f.errorProfile,
		Seed:         f.seedPtr(cmd),
		Geo:          rt.geoOrDefault(f.geo),
		MaskPII:      f.maskPII,
		AsOf:         asOf,
	}, nil
}

// write persists sets and prints one summary line per table.
func (rt *runtime) write(cmd *cobra.Command, f *genFlags, sets map[string]*core.RecordSet) error {
	formats := append([]string(nil), f.formats...)
	if len(formats) == 0 {
		formats = append(formats, rt.cfg.Output.Formats...)
	}
	if f.dqReport {
		formats = append(formats, string(writer.FormatReport))
	}
	out := f.out
	if out == "" {
		out = rt.cfg.Output.Dir
	}

	ws, err := rt.app.Writers(formats, out, f.toDB)
	if err != nil {
		return err
	}
	if err := rt.app.Write(cmd.Context(), sets, ws); err != nil {
		return err
	}
	return rt.printSummary(cmd, sets, out)
}

func (rt *runtime) printSummary(cmd *cobra.Command, sets map[string]*core.RecordSet, out string) error {
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]writer.Report, len(names))
	for i, name := range names {
		reports[i] = writer.NewReport(sets[name])
	}
	if rt.jsonOutput() {
		return printJSON(cmd.OutOrStdout(), map[string]any{"out": out, "tables": reports})
	}

	rows := make([][]string, len(reports))
	for i, rep := range reports {
		rows[i] = []string{
			rep.Table,
			fmt.Sprint(rep.Rows),
			fmt.Sprint(rep.Injection.Total()),
			fmt.Sprintf("%.2f", rep.Metrics.CompletenessPct),
			fmt.Sprintf("%.2f", rep.Metrics.ValidityPct),
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d table(s) under %s\n", len(reports), out)
	return printTable(cmd.OutOrStdout(), []string{"TABLE", "ROWS", "INJECTED", "COMPLETE%", "VALID%"}, rows)
}

func newPreviewCmd(rt *runtime) *cobra.Command {
	var f genFlags
	cmd := &cobra.Command{
		Use:   "preview DOMAIN TABLE",
		Short: "Generate a few rows and print them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rt.request(cmd, &f, schema.TableID{Domain: args[0], Table: args[1]})
			if err != nil {
				return err
			}
			rs, err := rt.app.Engine.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if rt.jsonOutput() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"columns": rs.Columns(), "rows": rs.Rows()})
			}
			return printRecords(cmd.OutOrStdout(), rs)
		},
	}
	f.register(cmd, 5)
	return cmd
}

func newGenerateCmd(rt *runtime) *cobra.Command {
	var f genFlags
	cmd := &cobra.Command{
		Use:   "generate DOMAIN TABLE",
		Short: "Generate a table and write it out",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rt.request(cmd, &f, schema.TableID{Domain: args[0], Table: args[1]})
			if err != nil {
				return err
			}
			rs, err := rt.app.Engine.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return rt.write(cmd, &f, map[string]*core.RecordSet{rs.Table().String(): rs})
		},
	}
	f.register(cmd, 1000)
	f.registerOutput(cmd)
	return cmd
}

func newGenerateSCD2Cmd(rt *runtime) *cobra.Command {
	var (
		f          genFlags
		changeProb float64
	)
	cmd := &cobra.Command{
		Use:   "generate-scd2 DOMAIN TABLE",
		Short: "Generate a table with SCD2 history and write it out",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rt.request(cmd, &f, schema.TableID{Domain: args[0], Table: args[1]})
			if err != nil {
				return err
			}
			rs, err := rt.app.Engine.GenerateWithHistory(cmd.Context(), core.HistoryRequest{
				GenerateRequest:   req,
				ChangeProbability: changeProb,
			})
			if err != nil {
				return err
			}
			return rt.write(cmd, &f, map[string]*core.RecordSet{rs.Table().String(): rs})
		},
	}
	f.register(cmd, 100)
	f.registerOutput(cmd)
	cmd.Flags().Float64Var(&changeProb, "change-prob", core.DefaultChangeProbability, "Probability that a key gets another version")
	return cmd
}

func newGenerateMultiCmd(rt *runtime) *cobra.Command {
	var (
		f             genFlags
		domain        string
		secondaryRows int
		scd2          bool
		changeProb    float64
	)
	cmd := &cobra.Command{
		Use:   "generate-multi PRIMARY SECONDARY [SECONDARY...]",
		Short: "Generate a primary table and secondaries linked to it by foreign keys",
		Long: `Tables are given as domain.table, or as bare names with --domain.
Foreign keys of each secondary sample the keys of the primary or of an
earlier secondary. A secondary that cannot be linked is reported and the
other tables are still written.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]schema.TableID, len(args))
			for i, a := range args {
				id, err := schema.ParseTableID(a, domain)
				if err != nil {
					return fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
				}
				ids[i] = id
			}
			asOf, err := f.asOfTime()
			if err != nil {
				return err
			}
			sets, genErr := rt.app.Engine.GenerateLinked(cmd.Context(), core.LinkedRequest{
				Primary:           ids[0],
				Secondaries:       ids[1:],
				PrimaryRows:       f.rows,
				SecondaryRows:     secondaryRows,
				ErrorProfile:      f.errorProfile,
				SCD2:              scd2,
				ChangeProbability: changeProb,
				Seed:              f.seedPtr(cmd),
				Geo:               rt.geoOrDefault(f.geo),
				MaskPII:           f.maskPII,
				AsOf:              asOf,
			})
			if len(sets) > 0 {
				if err := rt.write(cmd, &f, sets); err != nil {
					return err
				}
			}
			return genErr
		},
	}
	f.register(cmd, 50)
	f.registerOutput(cmd)
	cmd.Flags().Lookup("rows").Usage = "Number of primary rows"
	cmd.Flags().StringVar(&domain, "domain", "", "Domain of bare table names")
	cmd.Flags().IntVar(&secondaryRows, "secondary-rows", 200, "Number of rows per secondary table")
	cmd.Flags().BoolVar(&scd2, "scd2", false, "Expand the primary into SCD2 history")
	cmd.Flags().Float64Var(&changeProb, "change-prob", core.DefaultChangeProbability, "SCD2 change probability")
	return cmd
}

func newProfileCmd(rt *runtime) *cobra.Command {
	var f genFlags
	cmd := &cobra.Command{
		Use:   "profile DOMAIN TABLE",
		Short: "Generate a table and print its data-quality profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rt.request(cmd, &f, schema.TableID{Domain: args[0], Table: args[1]})
			if err != nil {
				return err
			}
			rs, err := rt.app.Engine.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			rep := writer.NewReport(rs)
			if rt.jsonOutput() {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			return printReport(cmd.OutOrStdout(), rep, rs.Schema.FieldNames())
		},
	}
	f.register(cmd, 1000)
	return cmd
}
