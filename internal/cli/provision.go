package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecommerce-loader/internal/database"
	"ecommerce-loader/internal/loader"
)

func newProvisionCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the target database if it does not exist",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			backend, err := database.Open(cfg)
			if err != nil {
				return err
			}
			catalog, err := catalogFor(cfg)
			if err != nil {
				return err
			}

			res, err := loader.New(backend, catalog, loadOptionsFrom(cfg), logger).Provision(cmd.Context())
			if err != nil {
				return err
			}
			if res.Created {
				fmt.Fprintf(cmd.OutOrStdout(), "Database '%s' created successfully.\n", res.Target)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Database '%s' already exists.\n", res.Target)
			}
			return nil
		},
	}
}
