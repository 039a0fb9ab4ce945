// Package commands implements the dbshape command line interface.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the dbshape root command with every subcommand attached.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "dbshape",
		Short: "Run SQL commands and shape their results",
		Long: `Runs SQL commands against PostgreSQL, Oracle, MySQL or SQLite and shapes the
results: a single value, a single row, a single column, a CSV export or the total
row count of a GO-separated batch.

Connection settings come from the config file, DBSHAPE_* environment variables
and the global flags, in increasing order of priority.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.bind(rootCmd)

	rootCmd.AddCommand(
		NewSplitCommand(),
		NewBatchCommand(opts),
		NewScalarCommand(opts),
		NewRowCommand(opts),
		NewColumnCommand(opts),
		NewExportCommand(opts),
		NewVersionCommand(version),
	)

	return rootCmd
}
