package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const DefaultSecretsFile = "secrets.toml"

// Secrets mirrors secrets.toml:
//
//	[database]
//	host = "localhost"
//	database_name = "ecommerce_database"
//	username = "postgres"
//	password = "..."
//	port = 5432
type Secrets struct {
	Database DatabaseSecrets `toml:"database"`
}

type DatabaseSecrets struct {
	Host         string `toml:"host"`
	DatabaseName string `toml:"database_name"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	Port         int    `toml:"port"`
}

// LoadSecrets reads a TOML secrets file. A missing file returns nil, nil.
func LoadSecrets(path string) (*Secrets, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s Secrets
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return &s, nil
}

// ApplySecrets overlays the non-empty secrets onto the selected backend.
func (c *Config) ApplySecrets(s *Secrets) {
	if s == nil {
		return
	}
	d := s.Database
	if c.Backend == BackendMongo {
		if d.DatabaseName != "" {
			c.Databases.Mongo.DatabaseName = d.DatabaseName
		}
		return
	}
	srv := c.Server()
	if srv == nil {
		return
	}
	if d.Host != "" {
		srv.Host = d.Host
	}
	if d.DatabaseName != "" {
		srv.DatabaseName = d.DatabaseName
	}
	if d.Username != "" {
		srv.Username = d.Username
	}
	if d.Password != "" {
		srv.Password = d.Password
	}
	if d.Port != 0 {
		srv.Port = d.Port
	}
}

// Environment variables read by ApplyEnv.
const (
	EnvBackend    = "LOADER_BACKEND"
	EnvDataDir    = "LOADER_DATA_DIR"
	EnvDBHost     = "LOADER_DB_HOST"
	EnvDBPort     = "LOADER_DB_PORT"
	EnvDBName     = "LOADER_DB_NAME"
	EnvDBUser     = "LOADER_DB_USER"
	EnvDBPassword = "LOADER_DB_PASSWORD"
	EnvMongoURI   = "LOADER_MONGO_URI"
)

// LoadDotEnv loads a .env file into the process environment if one exists.
// Variables already set take precedence.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overlays environment overrides. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Backend = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup(EnvMongoURI); ok && v != "" {
		c.Databases.Mongo.URI = v
	}

	srv := c.Server()
	if srv == nil {
		if v, ok := lookup(EnvDBName); ok && v != "" && c.Backend == BackendMongo {
			c.Databases.Mongo.DatabaseName = v
		}
		return nil
	}
	if v, ok := lookup(EnvDBHost); ok && v != "" {
		srv.Host = v
	}
	if v, ok := lookup(EnvDBPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", ErrInvalidConfig, EnvDBPort, v)
		}
		srv.Port = port
	}
	if v, ok := lookup(EnvDBName); ok && v != "" {
		srv.DatabaseName = v
	}
	if v, ok := lookup(EnvDBUser); ok && v != "" {
		srv.Username = v
	}
	if v, ok := lookup(EnvDBPassword); ok {
		srv.Password = v
	}
	return nil
}
