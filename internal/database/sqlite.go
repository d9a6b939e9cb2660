package database

import (
	"context"
	"time"

	_ "modernc.org/sqlite"

	"ecommerce-loader/internal/schema"
)

// SQLiteDriver loads into a single-file SQLite database.
type SQLiteDriver struct {
	sqlBackend
	path string
}

func NewSQLiteDriver(path string) *SQLiteDriver {
	return &SQLiteDriver{
		sqlBackend: sqlBackend{
			driverName: "sqlite",
			dsn:        "file:" + path + "?_pragma=foreign_keys(1)",
			dialect:    schema.SQLite,
			convert:    sqliteValue,
		},
		path: path,
	}
}

// sqliteValue stores booleans as 0/1 and dates as ISO text, which is how
// SQLite's own date functions expect them.
func sqliteValue(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.Format("2006-01-02")
	}
	return v
}

func (d *SQLiteDriver) Name() string   { return "sqlite" }
func (d *SQLiteDriver) Target() string { return d.path }

func (d *SQLiteDriver) Provision(ctx context.Context) (ProvisionResult, error) {
	return provisionFile(ctx, d.driverName, d.dsn, d.path)
}

func (d *SQLiteDriver) Connect(ctx context.Context) error {
	return d.open(ctx)
}

var _ Backend = (*SQLiteDriver)(nil)
