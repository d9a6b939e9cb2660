package database

import (
	"context"

	_ "github.com/duckdb/duckdb-go/v2"

	"ecommerce-loader/internal/schema"
)

// DuckDBDriver loads into a single-file embedded DuckDB database.
type DuckDBDriver struct {
	sqlBackend
	path string
}

func NewDuckDBDriver(path string) *DuckDBDriver {
	return &DuckDBDriver{
		sqlBackend: sqlBackend{driverName: "duckdb", dsn: path, dialect: schema.DuckDB},
		path:       path,
	}
}

func (d *DuckDBDriver) Name() string   { return "duckdb" }
func (d *DuckDBDriver) Target() string { return d.path }

func (d *DuckDBDriver) Provision(ctx context.Context) (ProvisionResult, error) {
	return provisionFile(ctx, d.driverName, d.dsn, d.path)
}

func (d *DuckDBDriver) Connect(ctx context.Context) error {
	return d.open(ctx)
}

var _ Backend = (*DuckDBDriver)(nil)
