package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/xorgen/dialect/sql"
	"github.com/syssam/xorgen/plan"
	"github.com/syssam/xorgen/runner"
	"github.com/syssam/xorgen/sink"
)

var (
	runDriver         string
	runDSN            string
	runOut            string
	runSeed           uint64
	runBatch          int
	runParallel       int
	runDryRun         bool
	runDebug          bool
	runSkipDuplicates bool
	runNoProgress     bool
	runCheckSchema    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the tables of a plan",
	Long: `Generate every table of the plan in order and insert the rows into the
database given by --dsn (or DATABASE_URL). With --out the rows are written
to a msgpack file instead; --dry-run generates and discards them.

The database is still needed by plans with query columns.`,
	Example: `  # Fill a PostgreSQL database
  xorgen run --plan shop.yaml --driver pgx --dsn postgres://localhost/shop

  # Write the rows to a file with another seed
  xorgen run --plan shop.yaml --out shop.msgpack --seed 7

  # Time the generators alone
  xorgen run --plan shop.yaml --dry-run -v`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.Load(planPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("seed") {
			p.Seed = runSeed
		}
		if flags.Changed("batch") {
			p.Batch = runBatch
		}
		if flags.Changed("parallel") {
			p.Parallel = runParallel
		}

		opts := []runner.Option{runner.WithLogger(logger)}
		if runDebug {
			opts = append(opts, runner.WithDebug())
		}
		if runSkipDuplicates {
			opts = append(opts, runner.WithSkipDuplicates())
		}
		if runCheckSchema {
			opts = append(opts, runner.WithSchemaCheck())
		}
		switch {
		case runDryRun:
			opts = append(opts, runner.WithSink(sink.NewMsgpack(io.Discard)))
		case runOut != "":
			f, err := os.Create(runOut)
			if err != nil {
				return err
			}
			defer f.Close()
			opts = append(opts, runner.WithSink(sink.NewMsgpack(f)))
		}

		var drv *sql.Driver
		if dsn := resolveString(runDSN, os.Getenv("DATABASE_URL")); dsn != "" {
			if drv, err = sql.Open(runDriver, dsn); err != nil {
				return err
			}
			defer drv.Close()
			if err := drv.DB().PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("connecting to %s database: %w", runDriver, err)
			}
		} else if !runDryRun && runOut == "" {
			return errors.New("no database: set --dsn or DATABASE_URL, or use --out or --dry-run")
		}

		if !runNoProgress && !quiet {
			bar := newProgressBar(p)
			defer bar.Finish()
			opts = append(opts, runner.WithProgress(func(table string, n int64) {
				bar.Describe(table)
				_ = bar.Add64(n)
			}))
		}

		var r *runner.Runner
		if drv != nil {
			r = runner.New(p, drv, opts...)
		} else {
			r = runner.New(p, nil, opts...)
		}
		report, err := r.Run(cmd.Context())
		if report != nil {
			printReport(cmd.OutOrStdout(), report)
		}
		return err
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runDriver, "driver", "pgx", "database/sql driver: pgx, postgres, mysql or sqlite")
	f.StringVar(&runDSN, "dsn", "", "data source name (default $DATABASE_URL)")
	f.StringVarP(&runOut, "out", "o", "", "write rows to this msgpack file instead of the database")
	f.Uint64Var(&runSeed, "seed", 0, "override the plan seed")
	f.IntVar(&runBatch, "batch", 0, "override the rows per INSERT statement")
	f.IntVar(&runParallel, "parallel", 0, "override the number of tables generated at once")
	f.BoolVar(&runDryRun, "dry-run", false, "generate rows and discard them")
	f.BoolVar(&runDebug, "debug", false, "log every SQL statement")
	f.BoolVar(&runSkipDuplicates, "skip-duplicates", false, "skip rows rejected by unique constraints")
	f.BoolVar(&runNoProgress, "no-progress", false, "hide the progress bar")
	f.BoolVar(&runCheckSchema, "check-schema", false, "compare each table with the database before generating it")
}

// newProgressBar returns a bar sized to the plan's row caps, or a
// spinner when some table runs until its driver is exhausted.
func newProgressBar(p *plan.Plan) *progressbar.ProgressBar {
	var total int64
	for _, t := range p.Tables {
		if t.Rows <= 0 {
			total = -1
			break
		}
		total += t.Rows
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("generating"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func printReport(w io.Writer, report *runner.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS\tSKIPPED\tBATCHES\tDURATION")
	for _, t := range report.Tables {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", t.Table, t.Rows, t.Skipped, t.Batches, t.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(tw, "total\t%d\t\t\t%s\n", report.Rows(), report.Duration.Round(time.Millisecond))
	_ = tw.Flush()
}
