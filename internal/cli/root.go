package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ecommerce-loader/internal/config"
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "ecommerce-loader",
		Short: "Load the ecommerce CSV exports into a database",
		Long: `ecommerce-loader provisions a database, recreates the customers and cpc
tables, and bulk-loads Cust_Behavior_Final.csv and cpc_table_updated.csv
into them inside a single transaction.

Backends: duckdb and sqlite (embedded files), postgres, mysql and mongo.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Provisioning or connection failed
  12 - Schema apply failed
  13 - Import aborted and rolled back`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", config.DefaultConfigFile, "path to the YAML configuration file")
	pf.StringVar(&g.secretsPath, "secrets", config.DefaultSecretsFile, "path to the TOML secrets file")
	pf.StringVarP(&g.backend, "backend", "b", "", "database backend (duckdb, sqlite, postgres, mysql, mongo)")
	pf.StringVarP(&g.dataDir, "data-dir", "d", "", "directory holding the CSV files")
	pf.StringVar(&g.variant, "variant", "", "schema variant (legacy, normalized)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "", "log format (console, json)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	root.AddCommand(
		newLoadCommand(g),
		newProvisionCommand(g),
		newSchemaCommand(g),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return nil
}
