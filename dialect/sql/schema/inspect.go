package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/xorgen/dialect"
	"github.com/syssam/xorgen/dialect/sql"
)

// Column describes a database column.
type Column struct {
	Name       string
	NotNull    bool
	HasDefault bool
}

// Required reports whether inserts must provide a value for c.
func (c *Column) Required() bool { return c.NotNull && !c.HasDefault }

// Inspect returns the columns of table in ordinal order. A missing table
// yields no columns. Tables may be qualified by schema ("app.users") on
// PostgreSQL and MySQL.
func Inspect(ctx context.Context, drv dialect.Driver, table string) ([]*Column, error) {
	query, args := inspectQuery(drv.Dialect(), table)
	if query == "" {
		return nil, fmt.Errorf("schema: inspection not supported for dialect %q", drv.Dialect())
	}
	rows := &sql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("schema: inspect %s: %w", table, err)
	}
	defer rows.Close()
	var columns []*Column
	for rows.Next() {
		c := &Column{}
		if err := rows.Scan(&c.Name, &c.NotNull, &c.HasDefault); err != nil {
			return nil, fmt.Errorf("schema: inspect %s: %w", table, err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema: inspect %s: %w", table, err)
	}
	return columns, nil
}

func inspectQuery(d, table string) (string, []any) {
	schema, name, qualified := strings.Cut(table, ".")
	if !qualified {
		name = table
	}
	switch d {
	case dialect.SQLite:
		// INTEGER PRIMARY KEY columns alias the rowid and fill themselves.
		return `SELECT name, "notnull" = 1, dflt_value IS NOT NULL OR pk > 0 FROM pragma_table_info(?) ORDER BY cid`, []any{name}
	case dialect.Postgres:
		q := `SELECT column_name, is_nullable = 'NO', column_default IS NOT NULL OR is_identity = 'YES' OR is_generated <> 'NEVER'
FROM information_schema.columns WHERE table_schema = `
		if qualified {
			return q + "$1 AND table_name = $2 ORDER BY ordinal_position", []any{schema, name}
		}
		return q + "current_schema() AND table_name = $1 ORDER BY ordinal_position", []any{name}
	case dialect.MySQL:
		q := `SELECT column_name, is_nullable = 'NO', column_default IS NOT NULL OR extra LIKE '%auto_increment%' OR extra LIKE '%GENERATED%'
FROM information_schema.columns WHERE table_schema = `
		if qualified {
			return q + "? AND table_name = ? ORDER BY ordinal_position", []any{schema, name}
		}
		return q + "DATABASE() AND table_name = ? ORDER BY ordinal_position", []any{name}
	}
	return "", nil
}
