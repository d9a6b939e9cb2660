package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecommerce-loader/internal/config"
	"ecommerce-loader/internal/ecommerce"
	"ecommerce-loader/internal/logging"
	"ecommerce-loader/internal/schema"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath  string
	secretsPath string
	backend     string
	dataDir     string
	variant     string
	logLevel    string
	logFormat   string
	verbose     bool
}

// resolveConfig builds the effective configuration. Precedence, lowest
// first: defaults, loader.yaml, secrets.toml, environment (.env included),
// flags.
func (g *globalOptions) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("%w: load .env: %v", config.ErrInvalidConfig, err)
	}

	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}

	// The backend decides which section secrets and env apply to, so settle
	// it first.
	backendFlag := cmd.Flags().Changed("backend")
	if backendFlag {
		cfg.Backend = g.backend
	} else if v, ok := os.LookupEnv(config.EnvBackend); ok && v != "" {
		cfg.Backend = v
	}

	secrets, err := config.LoadSecrets(g.secretsPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplySecrets(secrets)

	lookup := os.LookupEnv
	if backendFlag {
		lookup = func(key string) (string, bool) {
			if key == config.EnvBackend {
				return "", false
			}
			return os.LookupEnv(key)
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = g.dataDir
	}
	if cmd.Flags().Changed("variant") {
		cfg.Schema.Variant = g.variant
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = g.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = g.logFormat
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return logger, nil
}

func catalogFor(cfg *config.Config) (schema.Catalog, error) {
	catalog, err := ecommerce.NewCatalog(cfg.Schema.Variant, ecommerce.Paths{
		CustomerEvents: cfg.SourcePath(cfg.Sources.CustomerEvents),
		Platforms:      cfg.SourcePath(cfg.Sources.Platforms),
	})
	if err != nil {
		return schema.Catalog{}, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return catalog, nil
}
