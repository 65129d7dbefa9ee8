// Package dialect defines the database boundary of xorgen.
//
// Generators never talk to a database directly. The only generator that
// needs one, the query-backed generator, receives a Driver when it is
// initialized, and the SQL sink writes generated rows through the same
// contract.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database (drivers "postgres" and "pgx")
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
//
// # Driver Interface
//
//	type Driver interface {
//	    ExecQuerier
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # ExecQuerier Interface
//
// The ExecQuerier interface is implemented by both Driver and Tx:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Sub-packages
//
//   - dialect/sql: database/sql based driver, statistics and debug wrappers
//   - dialect/sql/sqlgraph: constraint violation classification
package dialect
