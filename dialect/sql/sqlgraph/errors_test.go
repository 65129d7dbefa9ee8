package sqlgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type stateErr string

func (e stateErr) Error() string    { return "state " + string(e) }
func (e stateErr) SQLState() string { return string(e) }

func TestConstraintErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name              string
		err               error
		unique, fk, check bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("connection reset")},
		{name: "pgx unique", err: &pgconn.PgError{Code: "23505"}, unique: true},
		{name: "pgx fk", err: &pgconn.PgError{Code: "23503"}, fk: true},
		{name: "pq check", err: &pq.Error{Code: "23514"}, check: true},
		{name: "pq unique wrapped", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), unique: true},
		{name: "sqlstate method", err: stateErr("23503"), fk: true},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, unique: true},
		{name: "mysql child fk", err: &mysql.MySQLError{Number: 1452}, fk: true},
		{name: "mysql parent fk", err: &mysql.MySQLError{Number: 1451}, fk: true},
		{name: "mysql check", err: &mysql.MySQLError{Number: 3819}, check: true},
		{name: "sqlite unique", err: errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), unique: true},
		{name: "sqlite fk", err: errors.New("FOREIGN KEY constraint failed"), fk: true},
		{name: "sqlite check", err: errors.New("CHECK constraint failed: age"), check: true},
		{name: "pg other code", err: &pgconn.PgError{Code: "42P01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.fk, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.fk || tt.check, IsConstraintError(tt.err))
		})
	}
}
