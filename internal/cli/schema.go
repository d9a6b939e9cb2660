package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ecommerce-loader/internal/config"
	"ecommerce-loader/internal/database"
	"ecommerce-loader/internal/schema"
)

func newSchemaCommand(g *globalOptions) *cobra.Command {
	var noForeignKeys bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the statements the load would use to recreate the tables",
		Long: `Schema prints the DROP and CREATE statements for the selected backend
without connecting to it. For mongo it prints each collection's validator.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			catalog, err := catalogFor(cfg)
			if err != nil {
				return err
			}
			foreignKeys := cfg.Load.EnforceForeignKeys && !noForeignKeys

			if cfg.Backend == config.BackendMongo {
				return writeValidators(cmd.OutOrStdout(), catalog)
			}
			dialect, err := database.DialectFor(cfg.Backend)
			if err != nil {
				return err
			}
			writeDDL(cmd.OutOrStdout(), dialect, catalog, foreignKeys)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noForeignKeys, "no-foreign-keys", false, "omit foreign key clauses")
	return cmd
}

func writeDDL(w io.Writer, d schema.Dialect, catalog schema.Catalog, foreignKeys bool) {
	fmt.Fprintf(w, "-- %s\n", d.Name)
	for _, t := range catalog.DropOrder() {
		fmt.Fprintf(w, "%s;\n", schema.DropTable(d, t))
	}
	for _, t := range catalog.Tables() {
		fmt.Fprintf(w, "\n%s;\n", schema.CreateTable(d, t, foreignKeys))
	}
}

func writeValidators(w io.Writer, catalog schema.Catalog) error {
	for _, t := range catalog.Tables() {
		out, err := json.MarshalIndent(map[string]any{
			"collection": t.Name,
			"validator":  database.Validator(t),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
	}
	return nil
}
