package database

import (
	"fmt"

	"ecommerce-loader/internal/config"
	"ecommerce-loader/internal/schema"
)

// Open returns the backend selected by cfg.Backend. It does not connect.
func Open(cfg *config.Config) (Backend, error) {
	switch cfg.Backend {
	case config.BackendDuckDB:
		return NewDuckDBDriver(cfg.Databases.DuckDB.Path), nil
	case config.BackendSQLite:
		return NewSQLiteDriver(cfg.Databases.SQLite.Path), nil
	case config.BackendPostgres:
		return NewPostgresDriver(cfg.Databases.Postgres), nil
	case config.BackendMySQL:
		return NewMySQLDriver(cfg.Databases.MySQL), nil
	case config.BackendMongo:
		return NewMongoDriver(cfg.Databases.Mongo), nil
	}
	return nil, fmt.Errorf("%w: unsupported database type: %s", config.ErrInvalidConfig, cfg.Backend)
}

// DialectFor returns the SQL dialect of a backend name. Mongo reports its
// BSON type names through the same shape.
func DialectFor(backend string) (schema.Dialect, error) {
	switch backend {
	case config.BackendDuckDB:
		return schema.DuckDB, nil
	case config.BackendSQLite:
		return schema.SQLite, nil
	case config.BackendPostgres:
		return schema.Postgres, nil
	case config.BackendMySQL:
		return schema.MySQL, nil
	case config.BackendMongo:
		return schema.Mongo, nil
	}
	return schema.Dialect{}, fmt.Errorf("%w: unsupported database type: %s", config.ErrInvalidConfig, backend)
}
