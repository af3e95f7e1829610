package shared

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Database wraps a SQLite catalog connection together with the at most one
// transaction that may be open on it. While a transaction is open every
// statement routes through it, so buffered writes stay invisible until
// Commit.
type Database struct {
	db      *sql.DB
	tx      *sql.Tx
	guarded bool
}

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection backs the catalog, so a single transaction at a time
	// governs every statement and ":memory:" databases are not split
	// across pool connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{db: db}, nil
}

// Configure sets connection pool settings for the database.
// Recommended for production use to limit connections and improve performance.
func (d *Database) Configure(maxOpenConns, maxIdleConns int) {
	d.db.SetMaxOpenConns(maxOpenConns)
	d.db.SetMaxIdleConns(maxIdleConns)
}

// Close rolls back any open transaction and closes the connection.
func (d *Database) Close() error {
	if d.tx != nil {
		d.tx.Rollback()
		d.tx = nil
	}
	d.guarded = false
	return d.db.Close()
}

// InTx reports whether a transaction is currently open.
func (d *Database) InTx() bool { return d.tx != nil }

// Guard toggles scope guarding. While guarded, statements outside an open
// transaction fail with [ErrNoTransaction] instead of running in autocommit
// mode. A unit of work guards the connection for the duration of its scope
// so that no statement can slip around a rolled back transaction.
func (d *Database) Guard(on bool) { d.guarded = on }

// Begin opens a transaction. At most one transaction may be open at a time;
// beginning a second one fails with [ErrTransactionOpen].
func (d *Database) Begin(ctx context.Context) error {
	if d.tx != nil {
		return ErrTransactionOpen
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	d.tx = tx
	return nil
}

// Commit makes the open transaction's writes durable. If the commit itself
// fails a rollback is attempted so the connection is never left with a
// dangling transaction.
func (d *Database) Commit() error {
	if d.tx == nil {
		return ErrNoTransaction
	}

	tx := d.tx
	d.tx = nil
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Rollback discards the open transaction's writes.
func (d *Database) Rollback() error {
	if d.tx == nil {
		return ErrNoTransaction
	}

	tx := d.tx
	d.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}

	return nil
}

// Exec runs a statement through the open transaction when there is one.
func (d *Database) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if d.tx != nil {
		return d.tx.ExecContext(ctx, query, args...)
	}
	if d.guarded {
		return nil, ErrNoTransaction
	}
	return d.db.ExecContext(ctx, query, args...)
}

// Query runs a query through the open transaction when there is one.
func (d *Database) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if d.tx != nil {
		return d.tx.QueryContext(ctx, query, args...)
	}
	if d.guarded {
		return nil, ErrNoTransaction
	}
	return d.db.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row query through the open transaction when there
// is one. [sql.Row] defers errors until Scan, so guarding does not apply;
// repositories use Query instead.
func (d *Database) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if d.tx != nil {
		return d.tx.QueryRowContext(ctx, query, args...)
	}
	return d.db.QueryRowContext(ctx, query, args...)
}
