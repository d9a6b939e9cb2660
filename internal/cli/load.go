package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecommerce-loader/internal/config"
	"ecommerce-loader/internal/database"
	"ecommerce-loader/internal/loader"
)

type loadOptions struct {
	output         string
	onRowError     string
	batchSize      int
	noVerify       bool
	requireSources bool
	noForeignKeys  bool
}

func newLoadCommand(g *globalOptions) *cobra.Command {
	o := &loadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Provision the database, recreate the tables and import both CSV files",
		Long: `Load runs the whole reload in one transaction:

  1. Create the database if it does not exist
  2. Drop and recreate the customer event and platform tables
  3. Import the platform CSV, then the customer event CSV

Rows that fail to cast are reported and skipped unless --on-row-error=abort,
in which case nothing is committed.`,
		Example: `  # Load into the default DuckDB file
  ecommerce-loader load

  # Load into PostgreSQL, failing on the first bad row
  ecommerce-loader load --backend postgres --on-row-error abort

  # Machine-readable summary
  ecommerce-loader load --output json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd, g, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "text", "summary format (text, json)")
	f.StringVar(&o.onRowError, "on-row-error", "", "rejected row policy (skip, abort)")
	f.IntVar(&o.batchSize, "batch-size", 0, "rows per insert batch")
	f.BoolVar(&o.noVerify, "no-verify", false, "skip the row count read-back after commit")
	f.BoolVar(&o.requireSources, "require-sources", false, "fail when a CSV file is missing")
	f.BoolVar(&o.noForeignKeys, "no-foreign-keys", false, "do not check platform references")
	return cmd
}

func runLoad(cmd *cobra.Command, g *globalOptions, o *loadOptions) error {
	if o.output != "text" && o.output != "json" {
		return fmt.Errorf("%w: --output must be text or json, got %q", ErrUsage, o.output)
	}

	cfg, err := g.resolveConfig(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("on-row-error") {
		cfg.Load.OnRowError = o.onRowError
	}
	if f.Changed("batch-size") {
		cfg.Load.BatchSize = o.batchSize
	}
	if o.noVerify {
		cfg.Load.Verify = false
	}
	if o.requireSources {
		cfg.Load.RequireSources = true
	}
	if o.noForeignKeys {
		cfg.Load.EnforceForeignKeys = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := catalogFor(cfg)
	if err != nil {
		return err
	}
	backend, err := database.Open(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := loader.New(backend, catalog, loadOptionsFrom(cfg), logger)
	logger.Debug("starting load",
		zap.String("target", backend.Target()),
		zap.String("variant", cfg.Schema.Variant),
	)
	summary, runErr := l.Run(ctx)

	out := cmd.OutOrStdout()
	if o.output == "json" {
		if err := loader.WriteJSON(out, summary); err != nil && runErr == nil {
			runErr = err
		}
	} else {
		loader.WriteText(out, summary)
	}
	return runErr
}

func loadOptionsFrom(cfg *config.Config) loader.Options {
	return loader.Options{
		BatchSize:          cfg.Load.BatchSize,
		OnRowError:         loader.Policy(cfg.Load.OnRowError),
		EnforceForeignKeys: cfg.Load.EnforceForeignKeys,
		RequireSources:     cfg.Load.RequireSources,
		Verify:             cfg.Load.Verify,
	}
}
