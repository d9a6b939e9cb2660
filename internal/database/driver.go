package database

import (
	"context"
	"errors"

	"ecommerce-loader/internal/schema"
)

// ErrNotConnected is returned when a backend is used before Connect.
var ErrNotConnected = errors.New("database not connected")

// Tx is the backend-specific transaction handle passed to ExecuteTx callbacks:
// pgx.Tx, *sql.Tx, or a context.Context for MongoDB.
type Tx interface{}

// ProvisionResult reports what Provision did.
type ProvisionResult struct {
	Target  string `json:"target"`
	Created bool   `json:"created"`
}

// Backend is the capability set every target database offers the loader.
type Backend interface {
	Name() string
	// Target describes the database location without credentials.
	Target() string
	// Provision makes sure the database exists, creating it if absent.
	Provision(ctx context.Context) (ProvisionResult, error)
	Connect(ctx context.Context) error
	Close() error
	// ExecuteTx runs txFunc in a transaction, committing on nil and rolling
	// back on error or panic.
	ExecuteTx(ctx context.Context, txFunc func(tx Tx) error) error
	// ApplySchema drops the catalog's tables if present and recreates them.
	ApplySchema(ctx context.Context, tx Tx, catalog schema.Catalog, foreignKeys bool) error
	// BulkInsert writes rows, each in table column order, and returns the
	// number of rows written.
	BulkInsert(ctx context.Context, tx Tx, table schema.Table, rows [][]any) (int64, error)
	CountRows(ctx context.Context, table schema.Table) (int64, error)
}
