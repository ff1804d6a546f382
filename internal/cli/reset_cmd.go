package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/synthedata/internal/admin"
	"github.com/JonMunkholm/synthedata/internal/core"
)

func newResetCmd(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset DOMAIN",
		Short: "Drop the PostgreSQL tables written for a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.app.Pool == nil {
				return fmt.Errorf("%w: reset needs DATABASE_URL", core.ErrInvalidRequest)
			}
			if !yes {
				return fmt.Errorf("%w: refusing to drop tables without --yes", core.ErrInvalidRequest)
			}
			n, err := admin.ResetDomain(cmd.Context(), rt.app.Pool, rt.cfg.Database.Schema, rt.app.Catalog, args[0])
			if err != nil {
				return err
			}
			if rt.jsonOutput() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"domain": args[0], "dropped": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped %d table(s) of %s in schema %s\n", n, args[0], rt.cfg.Database.Schema)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the destructive operation")
	return cmd
}
