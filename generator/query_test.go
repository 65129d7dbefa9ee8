package generator_test

import (
	"bytes"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
	"github.com/syssam/xorgen/dialect/sql"
	"github.com/syssam/xorgen/generator"
)

func newMock(t *testing.T, d string) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sql.OpenDB(d, db), mock
}

func TestQueryGeneratorStream(t *testing.T) {
	t.Parallel()
	drv, mock := newMock(t, dialect.SQLite)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email FROM users WHERE id > ? AND status = ?")).
		WithArgs(10, "active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(int64(11), "a@example.com").
			AddRow(int64(12), "b@example.com"))

	g, err := generator.NewQueryGenerator(
		"SELECT id, email FROM users WHERE id > {{ bind .min }} AND status = {{ bind .status }}",
		generator.WithParams(map[string]any{"min": 10, "status": "active"}),
	)
	require.NoError(t, err)
	vis := generator.NewVisitor("users")
	require.NoError(t, g.Init(t.Context(), drv, vis))

	query, args := g.Query()
	assert.Equal(t, "SELECT id, email FROM users WHERE id > ? AND status = ?", query)
	assert.Equal(t, []any{10, "active"}, args)

	require.True(t, g.HasNext())
	require.True(t, g.HasNext(), "HasNext must not consume rows")
	row := g.Next(vis).Row()
	assert.Equal(t, []any{int64(1), int64(11), "a@example.com"}, row)
	assert.Equal(t, row, vis.Row)
	assert.Equal(t, "a@example.com", g.Column(2).String())

	require.True(t, g.HasNext())
	row = g.Next(vis).Row()
	assert.Equal(t, []any{int64(2), int64(12), "b@example.com"}, row)

	assert.False(t, g.HasNext())
	assert.True(t, g.Next(vis).IsNull())
	assert.Equal(t, int64(2), g.RowCount())
	assert.NoError(t, g.Err())
	require.NoError(t, g.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryGeneratorMaxRows(t *testing.T) {
	t.Parallel()
	drv, mock := newMock(t, dialect.MySQL)
	mock.ExpectQuery("SELECT id FROM t").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(3)))

	g, err := generator.NewQueryGenerator("SELECT id FROM t", generator.WithMaxRows(2))
	require.NoError(t, err)
	require.NoError(t, g.Init(t.Context(), drv, nil))
	n := 0
	for g.HasNext() {
		g.Next(nil)
		n++
	}
	assert.Equal(t, 2, n)
	require.NoError(t, g.Close())
}

func TestQueryGeneratorCursor(t *testing.T) {
	t.Parallel()
	drv, mock := newMock(t, dialect.Postgres)
	mock.ExpectBegin()
	mock.ExpectExec("SET TRANSACTION READ ONLY").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DECLARE xorgen_cursor NO SCROLL CURSOR FOR SELECT id FROM users WHERE id > $1")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FETCH FORWARD 2 FROM xorgen_cursor").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(6)).AddRow(int64(7)))
	mock.ExpectQuery("FETCH FORWARD 2 FROM xorgen_cursor").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))
	mock.ExpectExec("CLOSE xorgen_cursor").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	g, err := generator.NewQueryGenerator(
		"SELECT id FROM users WHERE id > {{ bind .min }}",
		generator.WithParams(map[string]any{"min": 5}),
		generator.WithFetchSize(2),
	)
	require.NoError(t, err)
	require.NoError(t, g.Init(t.Context(), drv, nil))

	var ids []int64
	for g.HasNext() {
		ids = append(ids, mustInt(t, generator.ValueOf(g.Next(nil).Row()[1])))
	}
	assert.Equal(t, []int64{6, 7, 8}, ids)
	require.NoError(t, g.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryGeneratorReadFailure(t *testing.T) {
	t.Parallel()
	drv, mock := newMock(t, dialect.SQLite)
	mock.ExpectQuery("SELECT id FROM t").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(int64(1)).
			AddRow(int64(2)).
			RowError(1, errors.New("connection reset")))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	g, err := generator.NewQueryGenerator("SELECT id FROM t", generator.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, g.Init(t.Context(), drv, nil))

	require.True(t, g.HasNext())
	assert.False(t, g.Next(nil).IsNull())
	assert.False(t, g.HasNext())
	assert.True(t, g.Next(nil).IsNull())

	require.Error(t, g.Err())
	assert.True(t, xorgen.IsQueryError(g.Err()))
	assert.Contains(t, buf.String(), "query generator failed")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestQueryGeneratorErrors(t *testing.T) {
	t.Parallel()
	t.Run("bad template", func(t *testing.T) {
		t.Parallel()
		_, err := generator.NewQueryGenerator("SELECT {{ .x ")
		assert.True(t, xorgen.IsConfigError(err))
	})
	t.Run("no driver", func(t *testing.T) {
		t.Parallel()
		g, err := generator.NewQueryGenerator("SELECT 1")
		require.NoError(t, err)
		assert.True(t, xorgen.IsQueryError(g.Init(t.Context(), nil, nil)))
		assert.False(t, g.HasNext())
	})
	t.Run("missing param", func(t *testing.T) {
		t.Parallel()
		drv, _ := newMock(t, dialect.SQLite)
		g, err := generator.NewQueryGenerator("SELECT {{ bind .missing }}", generator.WithParams(map[string]any{}))
		require.NoError(t, err)
		assert.True(t, xorgen.IsQueryError(g.Init(t.Context(), drv, nil)))
	})
	t.Run("query fails", func(t *testing.T) {
		t.Parallel()
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("no such table"))
		g, err := generator.NewQueryGenerator("SELECT 1")
		require.NoError(t, err)
		err = g.Init(t.Context(), drv, nil)
		require.Error(t, err)
		assert.True(t, xorgen.IsQueryError(err))
		assert.NoError(t, g.Close())
	})
	t.Run("close without init", func(t *testing.T) {
		t.Parallel()
		g, err := generator.NewQueryGenerator("SELECT 1")
		require.NoError(t, err)
		assert.NoError(t, g.Close())
		assert.NoError(t, g.Close())
	})
	t.Run("close fails", func(t *testing.T) {
		t.Parallel()
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectQuery("SELECT 1").
			WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(int64(1)).CloseError(errors.New("close failed")))
		g, err := generator.NewQueryGenerator("SELECT 1")
		require.NoError(t, err)
		require.NoError(t, g.Init(t.Context(), drv, nil))
		err = g.Close()
		require.Error(t, err)
		assert.True(t, xorgen.IsQueryError(err))
	})
	t.Run("negative fetch size", func(t *testing.T) {
		t.Parallel()
		_, err := generator.NewQueryGenerator("SELECT 1", generator.WithFetchSize(-1))
		assert.True(t, xorgen.IsConfigError(err))
	})
}

func TestQueryGeneratorReinit(t *testing.T) {
	t.Parallel()
	drv, mock := newMock(t, dialect.SQLite)
	for range 2 {
		mock.ExpectQuery("SELECT id FROM t").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
	}
	g, err := generator.NewQueryGenerator("SELECT id FROM t")
	require.NoError(t, err)

	require.NoError(t, g.Init(t.Context(), drv, nil))
	g.Next(nil)
	// Init closes the open result set before running the query again.
	require.NoError(t, g.Init(t.Context(), drv, nil))
	n := 0
	for g.HasNext() {
		g.Next(nil)
		n++
	}
	assert.Equal(t, 2, n)
	require.NoError(t, g.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
