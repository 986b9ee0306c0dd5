// Package executor runs sqlwrap statements against a database/sql connection
// through sqlx, and classifies driver errors from MySQL, PostgreSQL and SQLite.
package executor

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // registers "postgres"
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	"github.com/zoobzio/sqlwrap"
	"github.com/zoobzio/sqlwrap/config"
)

// DB is a sqlwrap.Executor backed by *sqlx.DB.
type DB struct {
	db *sqlx.DB
}

var _ sqlwrap.Executor = (*DB)(nil)

// New wraps an open connection.
func New(db *sqlx.DB) *DB {
	return &DB{db: db}
}

// Open connects using cfg and verifies the connection.
func Open(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("executor: connecting to %s: %w", cfg.Driver, classify(cfg.Driver, err))
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return New(db), nil
}

// DB returns the underlying connection.
func (d *DB) DB() *sqlx.DB {
	return d.db
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// QueryRows runs query and returns every row with its column names.
func (d *DB) QueryRows(ctx context.Context, query string, args ...any) ([]sqlwrap.Row, error) {
	rows, err := d.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, classify(d.db.DriverName(), err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("getting columns: %w", err)
	}

	var out []sqlwrap.Row
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", classify(d.db.DriverName(), err))
		}
		out = append(out, sqlwrap.Row{Columns: columns, Values: values})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", classify(d.db.DriverName(), err))
	}

	return out, nil
}
