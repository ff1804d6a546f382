package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

func newListDomainsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list-domains",
		Short: "List the domains of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			domains, err := rt.app.Catalog.ListDomains()
			if err != nil {
				return err
			}
			if rt.jsonOutput() {
				return printJSON(cmd.OutOrStdout(), domains)
			}
			names, _ := rt.app.Catalog.Domains()
			rows := make([][]string, len(names))
			for i, d := range names {
				rows[i] = []string{d, fmt.Sprint(len(domains[d]))}
			}
			return printTable(cmd.OutOrStdout(), []string{"DOMAIN", "TABLES"}, rows)
		},
	}
}

func newListTablesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list-tables DOMAIN",
		Short: "List the tables of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := rt.app.Catalog.Tables(args[0])
			if err != nil {
				return err
			}
			if rt.jsonOutput() {
				return printJSON(cmd.OutOrStdout(), tables)
			}
			rows := make([][]string, 0, len(tables))
			for _, t := range tables {
				desc, err := rt.app.Catalog.Load(schema.TableID{Domain: args[0], Table: t})
				if err != nil {
					return err
				}
				rows = append(rows, []string{t, fmt.Sprint(len(desc.Fields)), strings.Join(desc.NaturalKey, ","), string(desc.KeySource)})
			}
			return printTable(cmd.OutOrStdout(), []string{"TABLE", "FIELDS", "NATURAL KEY", "KEY SOURCE"}, rows)
		},
	}
}

type fieldInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	PII      bool   `json:"pii"`
	Detail   string `json:"detail,omitempty"`
}

func fieldDetail(f schema.FieldSpec) string {
	d := f.Domain
	switch f.Kind {
	case schema.KindInteger, schema.KindDecimal:
		lo, hi := d.Bounds(0, 0)
		return fmt.Sprintf("[%g, %g]", lo, hi)
	case schema.KindCategorical:
		return strings.Join(d.Labels, "|")
	case schema.KindString:
		if d.Pattern != "" {
			return d.Pattern
		}
		return fmt.Sprintf("len %d-%d", d.MinLength, d.MaxLength)
	case schema.KindForeignKey:
		return "-> " + d.Target.String()
	}
	return ""
}

func newDescribeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "describe DOMAIN TABLE",
		Short: "Show the resolved schema of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := rt.app.Catalog.Load(schema.TableID{Domain: args[0], Table: args[1]})
			if err != nil {
				return err
			}
			fields := make([]fieldInfo, len(desc.Fields))
			for i, f := range desc.Fields {
				fields[i] = fieldInfo{Name: f.Name, Type: f.Kind.String(), Nullable: f.Nullable, PII: core.IsPII(f), Detail: fieldDetail(f)}
			}
			if rt.jsonOutput() {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"table":           desc.ID.String(),
					"natural_key":     desc.NaturalKey,
					"key_source":      desc.KeySource,
					"pii_sensitivity": core.Sensitivity(desc),
					"fields":          fields,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (natural key %s, %s; PII %s)\n",
				desc.ID, strings.Join(desc.NaturalKey, ","), desc.KeySource, core.Sensitivity(desc))
			rows := make([][]string, len(fields))
			for i, f := range fields {
				rows[i] = []string{f.Name, f.Type, fmt.Sprint(f.Nullable), fmt.Sprint(f.PII), f.Detail}
			}
			return printTable(cmd.OutOrStdout(), []string{"FIELD", "TYPE", "NULLABLE", "PII", "DETAIL"}, rows)
		},
	}
}
