package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
	"github.com/syssam/xorgen/dialect/sql"
)

// cursorName names the server-side cursor opened in cursor mode. Each
// generator runs its cursor in its own transaction.
const cursorName = "xorgen_cursor"

// QueryGenerator yields the rows of a SQL query, one row per Next. Each
// row value is a KindRow whose first element is the 1-based row counter,
// followed by the selected columns.
//
// The query text is a text/template executed at Init against the
// parameters given with WithParams. The bind function adds a bind
// argument and renders the dialect's placeholder:
//
//	SELECT id, email FROM users WHERE created_at > {{ bind .since }}
//
// With a positive fetch size on PostgreSQL the rows are read through a
// read-only server-side cursor, fetch size rows per round trip. Other
// dialects stream the result set.
type QueryGenerator struct {
	Listeners
	text      string
	tmpl      *template.Template
	params    map[string]any
	max       int64
	fetchSize int
	log       *slog.Logger

	query    string
	args     []any
	src      rowSource
	rowCount int64
	peeked   bool
	done     bool
	value    Value
	err      error
}

// NewQueryGenerator returns a generator for the given query template.
func NewQueryGenerator(query string, opts ...Option) (*QueryGenerator, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("query").
		Option("missingkey=error").
		Funcs(template.FuncMap{"bind": func(any) string { return "" }}).
		Parse(query)
	if err != nil {
		return nil, xorgen.NewConfigError("query", query, err.Error())
	}
	return &QueryGenerator{
		text:      query,
		tmpl:      tmpl,
		params:    o.params,
		max:       o.maxRows,
		fetchSize: o.fetchSize,
		log:       o.logger,
	}, nil
}

// Init closes any previous run, binds the query and executes it.
func (g *QueryGenerator) Init(ctx context.Context, drv dialect.Driver, _ *Visitor) error {
	if err := g.Close(); err != nil {
		return err
	}
	g.rowCount, g.peeked, g.done = 0, false, false
	g.value, g.err = Null(), nil
	if drv == nil {
		return xorgen.NewQueryError("init", g.text, errors.New("no database driver"))
	}
	query, args, err := g.bind(drv.Dialect())
	if err != nil {
		return xorgen.NewQueryError("bind", g.text, err)
	}
	g.query, g.args = query, args
	var src rowSource
	if drv.Dialect() == dialect.Postgres && g.fetchSize > 0 {
		src, err = openCursor(ctx, drv, query, args, g.fetchSize)
	} else {
		src, err = openStream(ctx, drv, query, args)
	}
	if err != nil {
		return xorgen.NewQueryError("init", query, err)
	}
	g.src = src
	return nil
}

// bind renders the query template for dialect d.
func (g *QueryGenerator) bind(d string) (string, []any, error) {
	tmpl, err := g.tmpl.Clone()
	if err != nil {
		return "", nil, err
	}
	var args []any
	tmpl.Funcs(template.FuncMap{
		"bind": func(v any) string {
			args = append(args, v)
			return sql.Placeholder(d, len(args))
		},
	})
	var b bytes.Buffer
	if err := tmpl.Execute(&b, g.params); err != nil {
		return "", nil, err
	}
	return b.String(), args, nil
}

// HasNext reports whether another row is available, reading ahead one
// row when needed.
func (g *QueryGenerator) HasNext() bool {
	if g.src == nil || g.done {
		return false
	}
	if g.max >= 0 && g.rowCount >= g.max {
		return false
	}
	if !g.peeked {
		if !g.src.next() {
			g.done = true
			if err := g.src.err(); err != nil {
				g.fail("next", err)
			}
			return false
		}
		g.peeked = true
	}
	return true
}

// Next returns the next row. A failure while reading is logged and
// recorded on Err, and the generator stops with a Null row.
func (g *QueryGenerator) Next(vis *Visitor) Value {
	if !g.HasNext() {
		g.value = Null()
		return g.value
	}
	g.peeked = false
	cols, err := g.src.scan()
	if err != nil {
		g.fail("scan", err)
		g.done = true
		g.value = Null()
		return g.value
	}
	g.rowCount++
	row := make([]any, len(cols)+1)
	row[0] = g.rowCount
	copy(row[1:], cols)
	g.value = Row(row)
	if vis != nil {
		vis.Row = row
	}
	vis.SetContext(g.value)
	g.NotifyListeners(g.value, vis)
	return g.value
}

func (g *QueryGenerator) fail(op string, err error) {
	g.err = xorgen.NewQueryError(op, g.query, err)
	g.log.Error("query generator failed", "op", op, "query", g.query, "rows", g.rowCount, "error", err)
}

// Current returns the last row.
func (g *QueryGenerator) Current() Value { return g.value }

// Column returns column i of the current row, where column 0 is the row
// counter.
func (g *QueryGenerator) Column(i int) Value {
	row := g.value.Row()
	if i < 0 || i >= len(row) {
		return Null()
	}
	return ValueOf(row[i])
}

// RowCount returns the number of rows returned so far.
func (g *QueryGenerator) RowCount() int64 { return g.rowCount }

// Query returns the bound query text and its arguments.
func (g *QueryGenerator) Query() (string, []any) { return g.query, g.args }

// Err returns the failure that stopped the generator, if any.
func (g *QueryGenerator) Err() error { return g.err }

// Close releases the result set. It is safe to call without a prior
// Init and more than once.
func (g *QueryGenerator) Close() error {
	if g.src == nil {
		return nil
	}
	err := g.src.close()
	g.src = nil
	if err != nil {
		return xorgen.NewQueryError("close", g.query, err)
	}
	return nil
}

// rowSource abstracts streamed and cursor-backed result sets.
type rowSource interface {
	next() bool
	scan() ([]any, error)
	err() error
	close() error
}

type streamSource struct {
	rows    sql.Rows
	columns int
}

func openStream(ctx context.Context, drv dialect.Driver, query string, args []any) (*streamSource, error) {
	s := &streamSource{}
	if err := drv.Query(ctx, query, args, &s.rows); err != nil {
		return nil, err
	}
	cols, err := s.rows.Columns()
	if err != nil {
		_ = s.rows.Close()
		return nil, err
	}
	s.columns = len(cols)
	return s, nil
}

func (s *streamSource) next() bool { return s.rows.Next() }

func (s *streamSource) scan() ([]any, error) { return sql.ScanRow(s.rows, s.columns) }

func (s *streamSource) err() error { return s.rows.Err() }

func (s *streamSource) close() error { return s.rows.Close() }

type cursorSource struct {
	ctx     context.Context
	tx      dialect.Tx
	fetch   int
	batch   *sql.Rows
	columns int
	read    int
	last    bool
	fail    error
}

func openCursor(ctx context.Context, drv dialect.Driver, query string, args []any, fetch int) (*cursorSource, error) {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return nil, err
	}
	if err := tx.Exec(ctx, "SET TRANSACTION READ ONLY", []any{}, nil); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Exec(ctx, "DECLARE "+cursorName+" NO SCROLL CURSOR FOR "+query, args, nil); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	c := &cursorSource{ctx: ctx, tx: tx, fetch: fetch}
	if err := c.fetchBatch(); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return c, nil
}

func (c *cursorSource) fetchBatch() error {
	if c.batch != nil {
		if err := c.batch.Close(); err != nil {
			return err
		}
	}
	rows := &sql.Rows{}
	query := fmt.Sprintf("FETCH FORWARD %d FROM %s", c.fetch, cursorName)
	if err := c.tx.Query(c.ctx, query, []any{}, rows); err != nil {
		return err
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return err
	}
	c.batch, c.columns, c.read = rows, len(cols), 0
	return nil
}

func (c *cursorSource) next() bool {
	for {
		if c.fail != nil {
			return false
		}
		if c.batch.Next() {
			c.read++
			return true
		}
		if err := c.batch.Err(); err != nil {
			c.fail = err
			return false
		}
		// A short batch means the cursor is drained.
		if c.last || c.read < c.fetch {
			c.last = true
			return false
		}
		if err := c.fetchBatch(); err != nil {
			c.fail = err
			return false
		}
	}
}

func (c *cursorSource) scan() ([]any, error) { return sql.ScanRow(c.batch, c.columns) }

func (c *cursorSource) err() error { return c.fail }

func (c *cursorSource) close() error {
	var errs []error
	if c.batch != nil {
		errs = append(errs, c.batch.Close())
	}
	if err := c.tx.Exec(c.ctx, "CLOSE "+cursorName, []any{}, nil); err != nil {
		errs = append(errs, err, c.tx.Rollback())
		return errors.Join(errs...)
	}
	errs = append(errs, c.tx.Commit())
	return errors.Join(errs...)
}
