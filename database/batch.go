package database

import (
	"context"
	"errors"
	"strings"

	"github.com/gaborage/dbshape/database/types"
)

// BatchDelimiter separates statements in a batch when it stands alone on a line.
const BatchDelimiter = "GO"

// SplitStatements splits batch on lines whose trimmed content is "GO" (any case).
// The delimiter must be the whole line; "GO" inside a longer line never splits.
// Statements are trimmed and empty ones are dropped; order is preserved.
func SplitStatements(batch string) []string {
	var (
		statements []string
		current    strings.Builder
	)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for _, line := range strings.Split(batch, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.EqualFold(strings.TrimSpace(line), BatchDelimiter) {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	flush()

	return statements
}

// ExecuteBatch splits batch and runs every statement in order as a parameterless
// non-query on conn, optionally inside tx, returning the total affected rows.
// A batch without statements fails with EmptyBatch before anything runs. The first
// failing statement aborts the batch; its error carries the 1-based statement index
// and no partial count is returned. Negative counts (drivers reporting "not
// applicable", e.g. for DDL) are not added to the total.
func ExecuteBatch(ctx context.Context, conn types.Connection, batch string, tx types.Transaction, timeoutSeconds int) (int64, error) {
	const op = "execute_batch"

	statements := SplitStatements(batch)
	if len(statements) == 0 {
		return 0, newError(op, KindEmptyBatch, "batch contains no statements")
	}

	var total int64
	for i, stmt := range statements {
		n, err := Exec(ctx, conn, Command{
			Text:           stmt,
			Kind:           types.KindText,
			TimeoutSeconds: timeoutSeconds,
			Transaction:    tx,
		})
		if err != nil {
			return 0, atStatement(op, i+1, err)
		}
		if n > 0 {
			total += n
		}
	}
	return total, nil
}

// atStatement returns a copy of err's *Error annotated with the statement index.
func atStatement(op string, index int, err error) error {
	var e *Error
	if errors.As(err, &e) {
		annotated := *e
		annotated.Op = op
		annotated.Statement = index
		return &annotated
	}
	return &Error{Kind: KindExecutionFault, Op: op, Statement: index, Err: err}
}
