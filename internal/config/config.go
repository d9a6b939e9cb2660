package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"ecommerce-loader/internal/ecommerce"
)

// ErrInvalidConfig marks configuration that cannot drive a run.
var ErrInvalidConfig = errors.New("invalid configuration")

const DefaultConfigFile = "loader.yaml"

const (
	BackendDuckDB   = "duckdb"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendMongo    = "mongo"
)

// Backends lists the supported backends.
var Backends = []string{BackendDuckDB, BackendSQLite, BackendPostgres, BackendMySQL, BackendMongo}

const (
	OnRowErrorSkip  = "skip"
	OnRowErrorAbort = "abort"
)

type Config struct {
	Backend   string          `yaml:"backend"`
	DataDir   string          `yaml:"data_dir"`
	Sources   Sources         `yaml:"sources"`
	Schema    SchemaSettings  `yaml:"schema"`
	Databases Databases       `yaml:"databases"`
	Load      LoadSettings    `yaml:"load"`
	Logging   LoggingSettings `yaml:"logging"`
}

type Sources struct {
	CustomerEvents string `yaml:"customer_events"`
	Platforms      string `yaml:"platforms"`
}

type SchemaSettings struct {
	Variant string `yaml:"variant"`
}

type Databases struct {
	DuckDB   FileDatabase   `yaml:"duckdb"`
	SQLite   FileDatabase   `yaml:"sqlite"`
	Postgres ServerDatabase `yaml:"postgres"`
	MySQL    ServerDatabase `yaml:"mysql"`
	Mongo    MongoDatabase  `yaml:"mongo"`
}

type FileDatabase struct {
	Path string `yaml:"path"`
}

type ServerDatabase struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	DatabaseName  string `yaml:"database_name"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	SSLMode       string `yaml:"sslmode"`
	MaintenanceDB string `yaml:"maintenance_db"`
}

type MongoDatabase struct {
	URI             string `yaml:"uri"`
	DatabaseName    string `yaml:"database_name"`
	UseTransactions bool   `yaml:"use_transactions"`
}

type LoadSettings struct {
	BatchSize          int    `yaml:"batch_size"`
	OnRowError         string `yaml:"on_row_error"`
	EnforceForeignKeys bool   `yaml:"enforce_foreign_keys"`
	RequireSources     bool   `yaml:"require_sources"`
	Verify             bool   `yaml:"verify"`
}

type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend: BackendDuckDB,
		DataDir: ".",
		Sources: Sources{
			CustomerEvents: "Cust_Behavior_Final.csv",
			Platforms:      "cpc_table_updated.csv",
		},
		Schema: SchemaSettings{Variant: ecommerce.VariantLegacy},
		Databases: Databases{
			DuckDB: FileDatabase{Path: "ecommerce_database.duckdb"},
			SQLite: FileDatabase{Path: "ecommerce_database.sqlite"},
			Postgres: ServerDatabase{
				Host:          "localhost",
				Port:          5432,
				DatabaseName:  "ecommerce_database",
				Username:      "postgres",
				SSLMode:       "disable",
				MaintenanceDB: "postgres",
			},
			MySQL: ServerDatabase{
				Host:         "localhost",
				Port:         3306,
				DatabaseName: "ecommerce_database",
				Username:     "root",
			},
			Mongo: MongoDatabase{
				URI:          "mongodb://localhost:27017",
				DatabaseName: "ecommerce_database",
			},
		},
		Load: LoadSettings{
			BatchSize:          1000,
			OnRowError:         OnRowErrorSkip,
			EnforceForeignKeys: true,
			Verify:             true,
		},
		Logging: LoggingSettings{Level: "info", Format: "console"},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	file, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}

	return config, nil
}

// Server returns the connection settings of the selected server backend,
// or nil for embedded backends.
func (c *Config) Server() *ServerDatabase {
	switch c.Backend {
	case BackendPostgres:
		return &c.Databases.Postgres
	case BackendMySQL:
		return &c.Databases.MySQL
	}
	return nil
}

// SourcePath resolves a source file against DataDir unless it is absolute.
func (c *Config) SourcePath(file string) string {
	if filepath.IsAbs(file) || c.DataDir == "" {
		return file
	}
	return filepath.Join(c.DataDir, file)
}

// Validate checks the settings the loader depends on.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(Backends, c.Backend) {
		errs = append(errs, fmt.Errorf("unknown backend %q (want one of %v)", c.Backend, Backends))
	}
	if !slices.Contains(ecommerce.Variants, c.Schema.Variant) {
		errs = append(errs, fmt.Errorf("unknown schema variant %q (want one of %v)", c.Schema.Variant, ecommerce.Variants))
	}
	if c.Load.OnRowError != OnRowErrorSkip && c.Load.OnRowError != OnRowErrorAbort {
		errs = append(errs, fmt.Errorf("on_row_error must be %q or %q, got %q", OnRowErrorSkip, OnRowErrorAbort, c.Load.OnRowError))
	}
	if c.Load.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.Load.BatchSize))
	}
	if c.Sources.CustomerEvents == "" || c.Sources.Platforms == "" {
		errs = append(errs, errors.New("both source files must be named"))
	}

	switch c.Backend {
	case BackendDuckDB:
		if c.Databases.DuckDB.Path == "" {
			errs = append(errs, errors.New("databases.duckdb.path is empty"))
		}
	case BackendSQLite:
		if c.Databases.SQLite.Path == "" {
			errs = append(errs, errors.New("databases.sqlite.path is empty"))
		}
	case BackendPostgres, BackendMySQL:
		s := c.Server()
		if s.Host == "" || s.DatabaseName == "" || s.Username == "" {
			errs = append(errs, fmt.Errorf("databases.%s needs host, database_name and username", c.Backend))
		}
		if s.Port <= 0 || s.Port > 65535 {
			errs = append(errs, fmt.Errorf("databases.%s.port %d out of range", c.Backend, s.Port))
		}
	case BackendMongo:
		if c.Databases.Mongo.URI == "" || c.Databases.Mongo.DatabaseName == "" {
			errs = append(errs, errors.New("databases.mongo needs uri and database_name"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
