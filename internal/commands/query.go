package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gaborage/dbshape/database"
)

// NewScalarCommand creates the scalar command
func NewScalarCommand(global *GlobalOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:     "scalar <sql>",
		Short:   "Print the single value a query returns",
		Long:    "Runs a query that must return exactly one row with exactly one column and prints the value.",
		Example: `  dbshape scalar "SELECT COUNT(*) FROM orders WHERE status = @status" -p @status=paid`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, dbCmd, err := prepare(cmd, global, opts, args[0])
			if err != nil {
				return err
			}
			v, err := database.OpenQueryValue(cmd.Context(), s.driver, s.dsn, dbCmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), display(v))
			return nil
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewRowCommand creates the row command
func NewRowCommand(global *GlobalOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "row <sql>",
		Short: "Print the single row a query returns",
		Long: `Runs a query that must return exactly one row and prints one "column<TAB>value"
line per column, ordered by the lower-cased column name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, dbCmd, err := prepare(cmd, global, opts, args[0])
			if err != nil {
				return err
			}
			row, err := database.OpenQueryRow(cmd.Context(), s.driver, s.dsn, dbCmd)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(row))
			for name := range row {
				names = append(names, name)
			}
			slices.Sort(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s\t%s\n", name, display(row[name]))
			}
			return nil
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewColumnCommand creates the column command
func NewColumnCommand(global *GlobalOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "column <sql>",
		Short: "Print the single column a query returns",
		Long:  "Runs a query that must return exactly one column and at least one row and prints one value per line.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, dbCmd, err := prepare(cmd, global, opts, args[0])
			if err != nil {
				return err
			}
			values, err := database.OpenQueryColumn(cmd.Context(), s.driver, s.dsn, dbCmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, v := range values {
				fmt.Fprintln(out, display(v))
			}
			return nil
		},
	}
	opts.bind(cmd)

	return cmd
}

// prepare resolves the session and the command descriptor. Flag errors are
// reported before configuration is loaded.
func prepare(cmd *cobra.Command, global *GlobalOptions, opts *QueryOptions, text string) (*session, database.Command, error) {
	dbCmd, err := opts.build(text)
	if err != nil {
		return nil, database.Command{}, err
	}
	s, err := global.open(cmd)
	if err != nil {
		return nil, database.Command{}, err
	}
	return s, s.command(dbCmd), nil
}
