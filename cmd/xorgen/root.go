package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	logger *slog.Logger

	// Persistent flags
	planPath string
	verbose  int
	quiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "xorgen",
	Short: "Synthetic relational data generator",
	Long: `xorgen - synthetic relational data generator

xorgen reads a YAML plan describing tables and the generators of their
columns, and inserts reproducible rows whose keys line up across tables:
owners and their collections, hierarchies, and foreign keys drawn from
existing rows.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(verbose, quiet)
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&planPath, "plan", "p", "xorgen.yaml", "path to the plan file")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger maps the verbosity flags to a log level: warnings by
// default, info with -v and debug with -vv.
func newLogger(verbose int, quiet bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose == 1:
		level = slog.LevelInfo
	case verbose > 1:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveString returns the first non-empty string from the provided values.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
