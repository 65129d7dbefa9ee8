// Package runner generates the tables of a plan and hands their rows to
// a sink.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
	"github.com/syssam/xorgen/dialect/sql"
	"github.com/syssam/xorgen/dialect/sql/schema"
	"github.com/syssam/xorgen/generator"
	"github.com/syssam/xorgen/plan"
	"github.com/syssam/xorgen/sink"
)

// progressEvery is the number of rows between progress callbacks.
const progressEvery = 100

// ProgressFunc receives the number of rows written to a table since the
// previous call.
type ProgressFunc func(table string, rows int64)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithSink sets where rows go. The default inserts them through the
// runner's driver.
func WithSink(s sink.Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithProgress sets a progress callback. It is called from the goroutine
// generating the table.
func WithProgress(f ProgressFunc) Option {
	return func(r *Runner) { r.progress = f }
}

// WithDebug logs every statement sent to the database.
func WithDebug() Option {
	return func(r *Runner) { r.debug = true }
}

// WithRegistry sets the registry resolving generator kinds.
func WithRegistry(reg *plan.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// WithSkipDuplicates makes the default SQL sink drop rows rejected by a
// unique constraint.
func WithSkipDuplicates() Option {
	return func(r *Runner) { r.skipDuplicates = true }
}

// WithSchemaCheck compares every table with the database before
// generating it. Unknown tables or columns fail the table; required
// columns the plan leaves out are logged.
func WithSchemaCheck() Option {
	return func(r *Runner) { r.checkSchema = true }
}

// Runner generates a plan.
type Runner struct {
	plan           *plan.Plan
	drv            dialect.Driver
	stats          *sql.StatsDriver
	sink           sink.Sink
	log            *slog.Logger
	progress       ProgressFunc
	registry       *plan.Registry
	debug          bool
	skipDuplicates bool
	checkSchema    bool
}

// TableReport summarizes the generation of one table.
type TableReport struct {
	Table    string
	Rows     int64
	Skipped  int64
	Batches  int64
	Duration time.Duration
}

// Report summarizes a run.
type Report struct {
	Tables   []TableReport
	Queries  sql.StatsSnapshot
	Duration time.Duration
}

// Rows returns the number of rows written across all tables.
func (r *Report) Rows() int64 {
	var n int64
	for _, t := range r.Tables {
		n += t.Rows
	}
	return n
}

// New returns a runner for p. drv may be nil when the plan runs no
// queries and a sink is given.
func New(p *plan.Plan, drv dialect.Driver, opts ...Option) *Runner {
	r := &Runner{plan: p, log: slog.Default(), registry: plan.DefaultRegistry}
	for _, opt := range opts {
		opt(r)
	}
	if drv != nil {
		if r.debug {
			drv = sql.NewDebugDriver(drv, r.log)
		}
		r.stats = sql.NewStatsDriver(drv, sql.WithSlowQueryLog(r.log))
		r.drv = r.stats
	}
	if r.sink == nil && r.drv != nil {
		sopts := []sink.SQLOption{sink.WithBatchSize(p.Batch), sink.WithLogger(r.log)}
		if r.skipDuplicates {
			sopts = append(sopts, sink.WithSkipDuplicates())
		}
		r.sink = sink.NewSQL(r.drv, sopts...)
	}
	return r
}

// Run generates every table of the plan and closes the sink. Tables run
// in plan order, up to the plan's parallel setting at a time. The first
// failure stops tables that have not started; all failures are returned
// together.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.sink == nil {
		return nil, xorgen.NewConfigError("sink", nil, "a database driver or a sink is required")
	}
	start := time.Now()
	var (
		counters = plan.NewCounters()
		reports  = make([]*TableReport, len(r.plan.Tables))
		errs     = make([]error, len(r.plan.Tables))
	)
	errg, gctx := errgroup.WithContext(ctx)
	errg.SetLimit(max(r.plan.Parallel, 1))
	for i, t := range r.plan.Tables {
		errg.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			rep, err := r.runTable(gctx, t, counters)
			reports[i], errs[i] = rep, err
			return err
		})
	}
	_ = errg.Wait()
	errs = append(errs, r.sink.Close())

	report := &Report{Duration: time.Since(start)}
	for _, rep := range reports {
		if rep != nil {
			report.Tables = append(report.Tables, *rep)
		}
	}
	if r.stats != nil {
		report.Queries = r.stats.QueryStats().Stats()
	}
	err := xorgen.NewAggregateError(errs...)
	if err == nil {
		err = ctx.Err()
	}
	r.log.Info("run finished", "tables", len(report.Tables), "rows", report.Rows(), "duration", report.Duration, "queries", report.Queries)
	return report, err
}

func (r *Runner) runTable(ctx context.Context, t *plan.Table, counters *plan.Counters) (rep *TableReport, err error) {
	start := time.Now()
	log := r.log.With("table", t.Name)
	log.Info("generating table", "columns", len(t.Columns), "driver", t.Driver)

	gens, err := plan.Build(t,
		plan.WithSeed(r.plan.Seed),
		plan.WithLogger(r.log),
		plan.WithRegistry(r.registry),
		plan.WithCounters(counters),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := gens.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	if r.checkSchema && r.drv != nil {
		if err := r.validate(ctx, log, t.Name, gens.Columns()); err != nil {
			return nil, err
		}
	}
	vis := generator.NewVisitor(t.Name)
	if err := gens.Init(ctx, r.drv, vis); err != nil {
		return nil, err
	}
	w, err := r.sink.Open(ctx, t.Name, gens.Columns())
	if err != nil {
		return nil, err
	}
	var rows, pending int64
	for gens.HasNext() && (t.Rows == 0 || rows < t.Rows) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(err, w.Close(ctx))
		}
		row, ok, err := gens.NextRow(vis)
		if err != nil {
			return nil, errors.Join(err, w.Close(ctx))
		}
		if !ok {
			continue
		}
		if err := w.Write(ctx, row); err != nil {
			return nil, errors.Join(err, w.Close(ctx))
		}
		rows++
		if pending++; pending == progressEvery {
			r.report(t.Name, pending)
			pending = 0
		}
	}
	if err := w.Close(ctx); err != nil {
		return nil, err
	}
	if err := gens.Err(); err != nil {
		return nil, err
	}
	if pending > 0 {
		r.report(t.Name, pending)
	}
	stats := w.Stats()
	rep = &TableReport{
		Table:    t.Name,
		Rows:     stats.Rows,
		Skipped:  stats.Skipped,
		Batches:  stats.Batches,
		Duration: time.Since(start),
	}
	log.Info("table generated", "rows", rep.Rows, "skipped", rep.Skipped, "duration", rep.Duration)
	return rep, nil
}

func (r *Runner) validate(ctx context.Context, log *slog.Logger, table string, columns []string) error {
	result, err := schema.ValidateTable(ctx, r.drv, table, columns)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		log.Warn("schema check", "column", w.Column, "problem", w.Message)
	}
	return result.Err()
}

func (r *Runner) report(table string, n int64) {
	if r.progress != nil {
		r.progress(table, n)
	}
}
