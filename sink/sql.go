package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
	"github.com/syssam/xorgen/dialect/sql"
	"github.com/syssam/xorgen/dialect/sql/sqlgraph"
	"github.com/syssam/xorgen/generator"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 500

// maxParams returns the bind parameter limit of a dialect.
func maxParams(d string) int {
	if d == dialect.SQLite {
		return 32766
	}
	return 65535
}

// SQL is a Sink inserting rows through a dialect.Driver.
type SQL struct {
	drv            dialect.Driver
	batchSize      int
	skipDuplicates bool
	log            *slog.Logger
}

// SQLOption configures the SQL sink.
type SQLOption func(*SQL)

// WithBatchSize sets the number of rows per INSERT statement. Values
// below one are ignored.
func WithBatchSize(n int) SQLOption {
	return func(s *SQL) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithSkipDuplicates drops rows rejected by a unique constraint instead
// of failing the table. A batch that hits a duplicate is retried one row
// at a time.
func WithSkipDuplicates() SQLOption {
	return func(s *SQL) { s.skipDuplicates = true }
}

// WithLogger sets the sink logger.
func WithLogger(l *slog.Logger) SQLOption {
	return func(s *SQL) { s.log = l }
}

// NewSQL returns a sink writing through drv.
func NewSQL(drv dialect.Driver, opts ...SQLOption) *SQL {
	s := &SQL{drv: drv, batchSize: DefaultBatchSize, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a writer inserting into table.
func (s *SQL) Open(_ context.Context, table string, columns []string) (Writer, error) {
	if s.drv == nil {
		return nil, xorgen.NewSinkError(table, errors.New("no database driver"))
	}
	if !sql.IsValidIdentifier(table) {
		return nil, xorgen.NewSinkError(table, errors.New("invalid table name"))
	}
	if len(columns) == 0 {
		return nil, xorgen.NewSinkError(table, errors.New("no columns"))
	}
	d := s.drv.Dialect()
	quoted := make([]string, len(columns))
	for i, c := range columns {
		if !sql.IsValidIdentifier(c) {
			return nil, xorgen.NewSinkError(table, fmt.Errorf("invalid column name %q", c))
		}
		quoted[i] = sql.Quote(d, c)
	}
	batch := min(s.batchSize, maxParams(d)/len(columns))
	return &sqlWriter{
		sink:    s,
		table:   table,
		dialect: d,
		prefix:  "INSERT INTO " + sql.Quote(d, table) + " (" + strings.Join(quoted, ", ") + ") VALUES ",
		columns: len(columns),
		batch:   max(batch, 1),
		log:     s.log.With("table", table),
	}, nil
}

// Close implements Sink. The driver is owned by the caller.
func (s *SQL) Close() error { return nil }

type sqlWriter struct {
	sink    *SQL
	table   string
	dialect string
	prefix  string
	columns int
	batch   int
	log     *slog.Logger
	rows    [][]any
	stats   Stats
}

func (w *sqlWriter) Write(ctx context.Context, row []generator.Value) error {
	if len(row) != w.columns {
		return xorgen.NewSinkError(w.table, fmt.Errorf("row has %d values, want %d", len(row), w.columns))
	}
	args := make([]any, len(row))
	for i, v := range row {
		if v.Kind() == generator.KindRow {
			return xorgen.NewSinkError(w.table, fmt.Errorf("column %d holds a whole query row; select a column with a row:<n> accessor", i))
		}
		args[i] = v.Any()
	}
	w.rows = append(w.rows, args)
	if len(w.rows) >= w.batch {
		return w.flush(ctx)
	}
	return nil
}

func (w *sqlWriter) Close(ctx context.Context) error { return w.flush(ctx) }

func (w *sqlWriter) Stats() Stats { return w.stats }

func (w *sqlWriter) flush(ctx context.Context) error {
	if len(w.rows) == 0 {
		return nil
	}
	rows := w.rows
	w.rows = w.rows[:0]
	query, args := w.insert(rows)
	err := w.sink.drv.Exec(ctx, query, args, nil)
	switch {
	case err == nil:
		w.stats.Rows += int64(len(rows))
		w.stats.Batches++
		w.log.Debug("batch inserted", "rows", len(rows))
		return nil
	case w.sink.skipDuplicates && sqlgraph.IsUniqueConstraintError(err):
		return w.insertEach(ctx, rows)
	default:
		return xorgen.NewSinkError(w.table, err)
	}
}

// insertEach inserts rows one at a time, skipping duplicates.
func (w *sqlWriter) insertEach(ctx context.Context, rows [][]any) error {
	var skipped int64
	for _, row := range rows {
		query, args := w.insert([][]any{row})
		err := w.sink.drv.Exec(ctx, query, args, nil)
		switch {
		case err == nil:
			w.stats.Rows++
		case sqlgraph.IsUniqueConstraintError(err):
			skipped++
		default:
			return xorgen.NewSinkError(w.table, err)
		}
		w.stats.Batches++
	}
	w.stats.Skipped += skipped
	w.log.Warn("duplicate rows skipped", "rows", len(rows), "skipped", skipped)
	return nil
}

// insert builds a multi-row INSERT statement.
func (w *sqlWriter) insert(rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString(w.prefix)
	args := make([]any, 0, len(rows)*w.columns)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			b.WriteString(sql.Placeholder(w.dialect, len(args)))
		}
		b.WriteByte(')')
	}
	return b.String(), args
}
