package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/xorgen/dialect/sql"
	"github.com/syssam/xorgen/dialect/sql/schema"
	"github.com/syssam/xorgen/plan"
)

var (
	validatePrint  bool
	validateDriver string
	validateDSN    string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a plan without generating data",
	Long: `Parse the plan, resolve every generator kind and build the generator
graph of each table. With --print the normalized plan is written out, with
table names, drivers and defaults filled in. With --dsn every table is also
compared with the database.`,
	Example: `  # Validate the default plan
  xorgen validate

  # Show the plan with defaults applied
  xorgen validate --plan shop.yaml --print

  # Check the plan against a database
  xorgen validate --driver sqlite --dsn shop.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.Load(planPath)
		if err != nil {
			return err
		}
		for _, t := range p.Tables {
			if _, err := plan.Build(t, plan.WithSeed(p.Seed), plan.WithLogger(logger)); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		if dsn := resolveString(validateDSN, os.Getenv("DATABASE_URL")); dsn != "" {
			if err := checkSchema(cmd.Context(), out, p, validateDriver, dsn); err != nil {
				return err
			}
		}
		if validatePrint {
			b, err := p.Marshal()
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		}
		fmt.Fprintf(out, "Plan is valid. Found %d tables:\n", len(p.Tables))
		for _, t := range p.Tables {
			rows := "until exhausted"
			if t.Rows > 0 {
				rows = fmt.Sprintf("at most %d rows", t.Rows)
			}
			fmt.Fprintf(out, "  - %s (%s; driver %s; %s)\n", t.Name, strings.Join(t.ColumnNames(), ", "), t.Driver, rows)
		}
		return nil
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the generator kinds a plan can use",
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range plan.DefaultRegistry.Kinds() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validatePrint, "print", false, "print the normalized plan")
	validateCmd.Flags().StringVar(&validateDriver, "driver", "pgx", "database/sql driver: pgx, postgres, mysql or sqlite")
	validateCmd.Flags().StringVar(&validateDSN, "dsn", "", "data source name to check the tables against (default $DATABASE_URL)")
}

// checkSchema compares every planned table with the database.
func checkSchema(ctx context.Context, out io.Writer, p *plan.Plan, driver, dsn string) error {
	drv, err := sql.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer drv.Close()
	result := &schema.ValidationResult{}
	for _, t := range p.Tables {
		r, err := schema.ValidateTable(ctx, drv, t.Name, t.ColumnNames())
		if err != nil {
			return err
		}
		result.Merge(r)
	}
	if result.HasErrors() || result.HasWarnings() {
		fmt.Fprintln(out, result)
	}
	return result.Err()
}
