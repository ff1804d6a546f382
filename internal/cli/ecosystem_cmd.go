package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

type ecosystemInfo struct {
	Key          string                   `json:"key"`
	Name         string                   `json:"name"`
	Description  string                   `json:"description"`
	BusinessType string                   `json:"business_type"`
	Tables       []schema.EcosystemMember `json:"tables"`
}

func newEcosystemInfo(e schema.Ecosystem) ecosystemInfo {
	return ecosystemInfo{
		Key:          e.Key,
		Name:         e.Name,
		Description:  e.Description,
		BusinessType: e.BusinessType,
		Tables:       e.Members(),
	}
}

func newListEcosystemsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list-ecosystems",
		Short: "List the business ecosystems: bundles of linked tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := rt.app.Catalog.Ecosystems()
			if err != nil {
				return err
			}
			infos := make([]ecosystemInfo, len(list))
			rows := make([][]string, len(list))
			for i, e := range list {
				infos[i] = newEcosystemInfo(e)
				tables := make([]string, 0, len(infos[i].Tables))
				for _, m := range infos[i].Tables {
					tables = append(tables, fmt.Sprintf("%s x%g", m.Table, m.Ratio))
				}
				rows[i] = []string{e.Key, e.BusinessType, strings.Join(tables, ", ")}
			}
			if rt.jsonOutput() {
				return printJSON(cmd.OutOrStdout(), infos)
			}
			return printTable(cmd.OutOrStdout(), []string{"ECOSYSTEM", "TYPE", "TABLES"}, rows)
		},
	}
}

func newGenerateEcosystemCmd(rt *runtime) *cobra.Command {
	var (
		f          genFlags
		scd2       bool
		changeProb float64
	)
	cmd := &cobra.Command{
		Use:   "generate-ecosystem KEY",
		Short: "Generate every table of a business ecosystem and write them out",
		Long: `Each table gets --rows times its ecosystem ratio rows (at least one).
The first table is the primary; the others link to it or to an earlier
table by foreign keys. A table that cannot be linked is reported and the
other tables are still written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := f.asOfTime()
			if err != nil {
				return err
			}
			sets, genErr := rt.app.Engine.GenerateEcosystem(cmd.Context(), core.EcosystemRequest{
				Key:               args[0],
				BaseRows:          f.rows,
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
	f.register(cmd, 100)
	f.registerOutput(cmd)
	cmd.Flags().Lookup("rows").Usage = "Base row count scaled by each table's ratio"
	cmd.Flags().BoolVar(&scd2, "scd2", false, "Expand the primary into SCD2 history")
	cmd.Flags().Float64Var(&changeProb, "change-prob", core.DefaultChangeProbability, "SCD2 change probability")
	return cmd
}
