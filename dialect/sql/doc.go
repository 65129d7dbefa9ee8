// Package sql implements the dialect.Driver contract on top of
// database/sql.
//
// It is the only place xorgen touches a database: the query-backed
// generator fetches its rows through a Driver, the SQL sink inserts
// generated rows through one, and the schema package inspects tables
// with it.
//
// # Opening a Driver
//
// Open maps the database/sql driver name to its dialect:
//
//	drv, err := sql.Open("pgx", "postgres://localhost/shop")
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
// OpenDB wraps an existing *sql.DB, which is how tests plug in go-sqlmock:
//
//	db, mock, _ := sqlmock.New()
//	drv := sql.OpenDB(dialect.Postgres, db)
//
// # Statements
//
// Exec and Query take the arguments as []any and the destination as
// *sql.Result and *sql.Rows. Quote and Placeholder render identifiers and
// bind parameters for a dialect:
//
//	sql.Quote(dialect.MySQL, "app.users")  // `app`.`users`
//	sql.Placeholder(dialect.Postgres, 3)   // $3
//
// # Instrumentation
//
// StatsDriver counts queries, execs, errors and slow statements and can
// log the slow ones through slog. DebugDriver logs every statement at
// debug level:
//
//	drv := sql.NewStatsDriver(sql.NewDebugDriver(base, logger),
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(logger),
//	)
//	...
//	fmt.Println(drv.QueryStats().Stats())
package sql
