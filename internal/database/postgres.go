package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"

	"ecommerce-loader/internal/config"
	"ecommerce-loader/internal/schema"
)

const queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

// PostgresDriver loads into a PostgreSQL server database over a single
// pgx connection, using COPY for bulk inserts.
type PostgresDriver struct {
	settings config.ServerDatabase
	conn     *pgx.Conn
}

func NewPostgresDriver(settings config.ServerDatabase) *PostgresDriver {
	if settings.MaintenanceDB == "" {
		settings.MaintenanceDB = "postgres"
	}
	return &PostgresDriver{settings: settings}
}

// PostgresDSN renders a connection URL for dbName.
func PostgresDSN(s config.ServerDatabase, dbName string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.Username, s.Password),
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:   "/" + dbName,
	}
	if s.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", s.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (pd *PostgresDriver) Name() string { return "postgres" }

func (pd *PostgresDriver) Target() string {
	return net.JoinHostPort(pd.settings.Host, strconv.Itoa(pd.settings.Port)) + "/" + pd.settings.DatabaseName
}

func (pd *PostgresDriver) Provision(ctx context.Context) (ProvisionResult, error) {
	result := ProvisionResult{Target: pd.Target()}

	conn, err := pgx.Connect(ctx, PostgresDSN(pd.settings, pd.settings.MaintenanceDB))
	if err != nil {
		return result, fmt.Errorf("connect to maintenance database %q: %w", pd.settings.MaintenanceDB, err)
	}
	defer conn.Close(context.Background())

	var exists bool
	if err := conn.QueryRow(ctx, queryDatabaseExists, pd.settings.DatabaseName).Scan(&exists); err != nil {
		return result, fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return result, nil
	}

	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{pd.settings.DatabaseName}.Sanitize())
	if _, err := conn.Exec(ctx, query); err != nil {
		return result, fmt.Errorf("create database %q: %w", pd.settings.DatabaseName, err)
	}
	result.Created = true
	return result, nil
}

func (pd *PostgresDriver) Connect(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, PostgresDSN(pd.settings, pd.settings.DatabaseName))
	if err != nil {
		return err
	}
	pd.conn = conn
	return nil
}

func (pd *PostgresDriver) Close() error {
	if pd.conn == nil {
		return nil
	}
	err := pd.conn.Close(context.Background())
	pd.conn = nil
	return err
}

func (pd *PostgresDriver) ExecuteTx(ctx context.Context, txFunc func(Tx) error) (err error) {
	if pd.conn == nil {
		return ErrNotConnected
	}
	tx, err := pd.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p) // re-panic after rollback
		} else if err != nil {
			tx.Rollback(ctx) // err is non-nil; don't change it
		} else {
			err = tx.Commit(ctx) // err is nil; if Commit returns error, update err
		}
	}()

	err = txFunc(tx)
	return err
}

func pgTx(tx Tx) (pgx.Tx, error) {
	t, ok := tx.(pgx.Tx)
	if !ok {
		return nil, fmt.Errorf("unsupported transaction type: %T", tx)
	}
	return t, nil
}

func (pd *PostgresDriver) ApplySchema(ctx context.Context, tx Tx, catalog schema.Catalog, foreignKeys bool) error {
	t, err := pgTx(tx)
	if err != nil {
		return err
	}
	for _, table := range catalog.DropOrder() {
		if _, err := t.Exec(ctx, schema.DropTable(schema.Postgres, table)); err != nil {
			return fmt.Errorf("drop %s: %w", table.Name, err)
		}
	}
	for _, table := range catalog.Tables() {
		if _, err := t.Exec(ctx, schema.CreateTable(schema.Postgres, table, foreignKeys)); err != nil {
			return fmt.Errorf("create %s: %w", table.Name, err)
		}
	}
	return nil
}

func (pd *PostgresDriver) BulkInsert(ctx context.Context, tx Tx, table schema.Table, rows [][]any) (int64, error) {
	t, err := pgTx(tx)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := t.CopyFrom(ctx, pgx.Identifier{table.Name}, table.ColumnNames(), pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table.Name, err)
	}
	return n, nil
}

func (pd *PostgresDriver) CountRows(ctx context.Context, table schema.Table) (int64, error) {
	if pd.conn == nil {
		return 0, ErrNotConnected
	}
	var n int64
	if err := pd.conn.QueryRow(ctx, schema.CountRows(schema.Postgres, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table.Name, err)
	}
	return n, nil
}

var _ Backend = (*PostgresDriver)(nil)
