package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ecommerce-loader/internal/schema"
)

// sqlBackend carries the database/sql plumbing shared by the DuckDB, SQLite
// and MySQL drivers.
type sqlBackend struct {
	driverName string
	dsn        string
	dialect    schema.Dialect
	// convert adapts a cast value to what the driver stores; nil keeps it.
	convert func(any) any
	db      *sql.DB
}

func (b *sqlBackend) open(ctx context.Context) error {
	db, err := sql.Open(b.driverName, b.dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", b.driverName, err)
	}
	// The loader is single-writer; one connection for the whole run.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping %s: %w", b.driverName, err)
	}
	b.db = db
	return nil
}

func (b *sqlBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func (b *sqlBackend) ExecuteTx(ctx context.Context, txFunc func(Tx) error) (err error) {
	if b.db == nil {
		return ErrNotConnected
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = txFunc(tx)
	return err
}

func sqlTx(tx Tx) (*sql.Tx, error) {
	t, ok := tx.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("unsupported transaction type: %T", tx)
	}
	return t, nil
}

func (b *sqlBackend) ApplySchema(ctx context.Context, tx Tx, catalog schema.Catalog, foreignKeys bool) error {
	t, err := sqlTx(tx)
	if err != nil {
		return err
	}
	for _, table := range catalog.DropOrder() {
		if _, err := t.ExecContext(ctx, schema.DropTable(b.dialect, table)); err != nil {
			return fmt.Errorf("drop %s: %w", table.Name, err)
		}
	}
	for _, table := range catalog.Tables() {
		if _, err := t.ExecContext(ctx, schema.CreateTable(b.dialect, table, foreignKeys)); err != nil {
			return fmt.Errorf("create %s: %w", table.Name, err)
		}
	}
	return nil
}

func (b *sqlBackend) BulkInsert(ctx context.Context, tx Tx, table schema.Table, rows [][]any) (int64, error) {
	t, err := sqlTx(tx)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	per := schema.RowsPerStatement(b.dialect, table, len(rows))
	var inserted int64
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*len(table.Columns))
		for _, row := range chunk {
			for _, v := range row {
				if b.convert != nil {
					v = b.convert(v)
				}
				args = append(args, v)
			}
		}

		res, err := t.ExecContext(ctx, schema.Insert(b.dialect, table, len(chunk)), args...)
		if err != nil {
			return inserted, fmt.Errorf("insert into %s: %w", table.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(len(chunk))
		}
		inserted += n
	}
	return inserted, nil
}

func (b *sqlBackend) CountRows(ctx context.Context, table schema.Table) (int64, error) {
	if b.db == nil {
		return 0, ErrNotConnected
	}
	var n int64
	if err := b.db.QueryRowContext(ctx, schema.CountRows(b.dialect, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table.Name, err)
	}
	return n, nil
}

// provisionFile creates an embedded database file by opening it once.
func provisionFile(ctx context.Context, driverName, dsn, path string) (ProvisionResult, error) {
	result := ProvisionResult{Target: path}
	if _, err := os.Stat(path); err == nil {
		return result, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return result, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return result, err
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return result, err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return result, err
	}
	result.Created = true
	return result, nil
}
