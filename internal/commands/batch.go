package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/dbshape/database"
	"github.com/gaborage/dbshape/database/types"
)

// NewSplitCommand creates the split command
func NewSplitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [file]",
		Short: "Split a GO-separated batch into statements",
		Long: `Reads a batch from file (or standard input) and prints its statements, each
followed by a GO line. No database is contacted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, stmt := range database.SplitStatements(batch) {
				fmt.Fprintln(out, stmt)
				fmt.Fprintln(out, database.BatchDelimiter)
			}
			return nil
		},
	}
	return cmd
}

// BatchOptions holds options for the batch command
type BatchOptions struct {
	Transaction bool
}

// NewBatchCommand creates the batch command
func NewBatchCommand(global *GlobalOptions) *cobra.Command {
	opts := &BatchOptions{}

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Execute a GO-separated batch",
		Long: `Splits a batch on lines consisting of GO and executes the statements in order,
stopping at the first failure. Prints the total number of affected rows.`,
		Example: `  # Run a migration script
  dbshape batch --vendor sqlite --dsn app.db schema.sql

  # Run from standard input inside one transaction
  cat fix.sql | dbshape batch --transaction`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}
			s, err := global.open(cmd)
			if err != nil {
				return err
			}

			var n int64
			if opts.Transaction {
				n, err = s.batchInTransaction(cmd.Context(), batch)
			} else {
				n, err = database.OpenExecuteBatch(cmd.Context(), s.driver, s.dsn, batch, s.cfg.Database.Command.Timeout)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Transaction, "transaction", "t", false, "Run the whole batch in one transaction")

	return cmd
}

// batchInTransaction commits when every statement succeeded and rolls back otherwise.
func (s *session) batchInTransaction(ctx context.Context, batch string) (n int64, err error) {
	conn, err := s.driver.Open(ctx, s.dsn)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			n, err = 0, fmt.Errorf("failed to close connection: %w", cerr)
		}
	}()

	beginner, ok := conn.(types.Beginner)
	if !ok {
		return 0, fmt.Errorf("%s connections do not support transactions", s.driver.Name())
	}
	tx, err := beginner.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	n, err = database.ExecuteBatch(ctx, conn, batch, tx, s.cfg.Database.Command.Timeout)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error().Err(rbErr).Msg("Failed to roll back batch transaction")
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug().Int64("rows_affected", n).Msg("Batch transaction committed")
	return n, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
