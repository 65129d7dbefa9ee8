package dialect

import (
	"context"
	"strings"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a statement that returns no rows. v is either nil
	// or a *sql.Result to be filled.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows into v (a *sql.Rows).
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all operations a database driver
// must support.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// FromDriverName maps a database/sql driver name to its dialect.
// Unknown names are returned unchanged.
func FromDriverName(name string) string {
	switch n := strings.ToLower(name); {
	case n == "pgx" || strings.HasPrefix(n, Postgres):
		return Postgres
	case strings.HasPrefix(n, MySQL):
		return MySQL
	case strings.HasPrefix(n, SQLite):
		return SQLite
	default:
		return name
	}
}
