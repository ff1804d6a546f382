// Package cli implements the synthedata command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/synthedata/internal/application"
	"github.com/JonMunkholm/synthedata/internal/config"
	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/logging"
)

// runtime is the state shared by all commands, resolved in the root's
// PersistentPreRunE.
type runtime struct {
	output     string
	catalogDir string

	cfg *config.Config
	app *application.App
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if output, _ := cmd.PersistentFlags().GetString("output"); output == "json" {
			_ = printJSON(os.Stdout, map[string]any{"error": err.Error(), "code": core.MapError(err).Code})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", core.FormatUserError(err))
			fmt.Fprintf(os.Stderr, "  %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "synthedata",
		Short:         "Synthetic tabular data generator",
		Long:          "Generate deterministic synthetic tables with controlled data-quality defects, SCD2 history and linked foreign keys.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.output != "table" && rt.output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", rt.output)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("catalog-dir") {
				cfg.Catalog.Dir = rt.catalogDir
			}
			logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

			app, err := application.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			rt.cfg, rt.app = cfg, app
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.app != nil {
				rt.app.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&rt.output, "output", "o", "table", "Output format (table, json)")
	root.PersistentFlags().StringVar(&rt.catalogDir, "catalog-dir", "", "Directory of YAML table catalogs (overrides SYNTHE_CATALOG_DIR)")

	root.AddCommand(newListDomainsCmd(rt))
	root.AddCommand(newListTablesCmd(rt))
	root.AddCommand(newDescribeCmd(rt))
	root.AddCommand(newPreviewCmd(rt))
	root.AddCommand(newGenerateCmd(rt))
	root.AddCommand(newGenerateSCD2Cmd(rt))
	root.AddCommand(newGenerateMultiCmd(rt))
	root.AddCommand(newListEcosystemsCmd(rt))
	root.AddCommand(newGenerateEcosystemCmd(rt))
	root.AddCommand(newProfileCmd(rt))
	root.AddCommand(newResetCmd(rt))
	return root
}

func (rt *runtime) jsonOutput() bool {
	return rt.output == "json"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
