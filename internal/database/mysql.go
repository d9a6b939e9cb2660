package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"ecommerce-loader/internal/config"
	"ecommerce-loader/internal/schema"
)

const querySchemaExists = "SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"

// MySQLDriver loads into a MySQL server database. DDL statements commit
// implicitly in MySQL, so only the inserts are covered by ExecuteTx.
type MySQLDriver struct {
	sqlBackend
	settings config.ServerDatabase
}

func NewMySQLDriver(settings config.ServerDatabase) *MySQLDriver {
	return &MySQLDriver{
		sqlBackend: sqlBackend{
			driverName: "mysql",
			dsn:        MySQLDSN(settings, settings.DatabaseName),
			dialect:    schema.MySQL,
		},
		settings: settings,
	}
}

// MySQLDSN renders a go-sql-driver DSN for dbName; an empty dbName connects
// without selecting a schema.
func MySQLDSN(s config.ServerDatabase, dbName string) string {
	cfg := mysql.NewConfig()
	cfg.User = s.Username
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	cfg.DBName = dbName
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (md *MySQLDriver) Name() string { return "mysql" }

func (md *MySQLDriver) Target() string {
	return net.JoinHostPort(md.settings.Host, strconv.Itoa(md.settings.Port)) + "/" + md.settings.DatabaseName
}

func (md *MySQLDriver) Provision(ctx context.Context) (ProvisionResult, error) {
	result := ProvisionResult{Target: md.Target()}

	db, err := sql.Open("mysql", MySQLDSN(md.settings, ""))
	if err != nil {
		return result, err
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(ctx, querySchemaExists, md.settings.DatabaseName).Scan(&n); err != nil {
		return result, fmt.Errorf("check database existence: %w", err)
	}
	if n > 0 {
		return result, nil
	}

	query := "CREATE DATABASE " + schema.MySQL.QuoteIdent(md.settings.DatabaseName)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return result, fmt.Errorf("create database %q: %w", md.settings.DatabaseName, err)
	}
	result.Created = true
	return result, nil
}

func (md *MySQLDriver) Connect(ctx context.Context) error {
	return md.open(ctx)
}

var _ Backend = (*MySQLDriver)(nil)
