package database

import (
	"context"
	"io"

	"github.com/gaborage/dbshape/database/types"
)

// Exec builds cmd on conn, runs it as a non-query and returns the affected row count.
func Exec(ctx context.Context, conn types.Connection, cmd Command) (n int64, err error) {
	const op = "exec"

	dc, err := BuildCommand(ctx, conn, cmd)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeInto(op, dc, &err) {
			n = 0
		}
	}()

	n, err = dc.ExecNonQuery(ctx)
	if err != nil {
		return 0, executionFault(op, err)
	}
	return n, nil
}

// QueryValue runs cmd and shapes the result with SingleValue.
func QueryValue(ctx context.Context, conn types.Connection, cmd Command) (any, error) {
	return query(ctx, "query_value", conn, cmd, SingleValue)
}

// QueryRow runs cmd and shapes the result with SingleRow.
func QueryRow(ctx context.Context, conn types.Connection, cmd Command) (map[string]any, error) {
	return query(ctx, "query_row", conn, cmd, SingleRow)
}

// QueryColumn runs cmd and shapes the result with SingleColumn.
func QueryColumn(ctx context.Context, conn types.Connection, cmd Command) ([]any, error) {
	return query(ctx, "query_column", conn, cmd, SingleColumn)
}

// ExportQueryCSV runs cmd and streams the result to w with ExportCSV.
func ExportQueryCSV(ctx context.Context, conn types.Connection, cmd Command, w io.Writer, includeHeader bool, opts ...ExportOption) error {
	_, err := query(ctx, "export_query_csv", conn, cmd, func(cur types.Cursor) (struct{}, error) {
		return struct{}{}, ExportCSV(cur, w, includeHeader, opts...)
	})
	return err
}

// ExportQueryCSVFile validates path, runs cmd and writes the result to the file at path.
func ExportQueryCSVFile(ctx context.Context, conn types.Connection, cmd Command, path string, includeHeader bool, opts ...ExportOption) error {
	if err := ValidateOutputPath(path); err != nil {
		return err
	}
	_, err := query(ctx, "export_query_csv_file", conn, cmd, func(cur types.Cursor) (struct{}, error) {
		return struct{}{}, ExportCSVFile(cur, path, includeHeader, opts...)
	})
	return err
}

// query builds and executes cmd, then hands the cursor to shape, which owns it.
// The driver command is closed after shaping; a close failure is only reported
// when everything else succeeded, and then no result is returned.
func query[T any](ctx context.Context, op string, conn types.Connection, cmd Command, shape func(types.Cursor) (T, error)) (result T, err error) {
	dc, err := BuildCommand(ctx, conn, cmd)
	if err != nil {
		return result, err
	}
	defer func() {
		if closeInto(op, dc, &err) {
			result = *new(T)
		}
	}()

	cur, err := dc.Query(ctx)
	if err != nil {
		return result, executionFault(op, err)
	}
	return shape(cur)
}

// OpenExec opens a connection with drv, runs Exec and closes the connection.
func OpenExec(ctx context.Context, drv types.Driver, connectionString string, cmd Command) (int64, error) {
	return withConnection(ctx, drv, connectionString, func(conn types.Connection) (int64, error) {
		return Exec(ctx, conn, cmd)
	})
}

// OpenQueryValue opens a connection with drv, runs QueryValue and closes the connection.
func OpenQueryValue(ctx context.Context, drv types.Driver, connectionString string, cmd Command) (any, error) {
	return withConnection(ctx, drv, connectionString, func(conn types.Connection) (any, error) {
		return QueryValue(ctx, conn, cmd)
	})
}

// OpenQueryRow opens a connection with drv, runs QueryRow and closes the connection.
func OpenQueryRow(ctx context.Context, drv types.Driver, connectionString string, cmd Command) (map[string]any, error) {
	return withConnection(ctx, drv, connectionString, func(conn types.Connection) (map[string]any, error) {
		return QueryRow(ctx, conn, cmd)
	})
}

// OpenQueryColumn opens a connection with drv, runs QueryColumn and closes the connection.
func OpenQueryColumn(ctx context.Context, drv types.Driver, connectionString string, cmd Command) ([]any, error) {
	return withConnection(ctx, drv, connectionString, func(conn types.Connection) ([]any, error) {
		return QueryColumn(ctx, conn, cmd)
	})
}

// OpenExportCSV opens a connection with drv, runs ExportQueryCSV into w and closes the connection.
func OpenExportCSV(ctx context.Context, drv types.Driver, connectionString string, cmd Command, w io.Writer, includeHeader bool, opts ...ExportOption) error {
	_, err := withConnection(ctx, drv, connectionString, func(conn types.Connection) (struct{}, error) {
		return struct{}{}, ExportQueryCSV(ctx, conn, cmd, w, includeHeader, opts...)
	})
	return err
}

// OpenExportCSVFile opens a connection with drv, runs ExportQueryCSVFile and closes the connection.
func OpenExportCSVFile(ctx context.Context, drv types.Driver, connectionString string, cmd Command, path string, includeHeader bool, opts ...ExportOption) error {
	if err := ValidateOutputPath(path); err != nil {
		return err
	}
	_, err := withConnection(ctx, drv, connectionString, func(conn types.Connection) (struct{}, error) {
		return struct{}{}, ExportQueryCSVFile(ctx, conn, cmd, path, includeHeader, opts...)
	})
	return err
}

// OpenExecuteBatch opens a connection with drv, runs ExecuteBatch without a
// transaction and closes the connection.
func OpenExecuteBatch(ctx context.Context, drv types.Driver, connectionString, batch string, timeoutSeconds int) (int64, error) {
	if len(SplitStatements(batch)) == 0 {
		return 0, newError("execute_batch", KindEmptyBatch, "batch contains no statements")
	}
	return withConnection(ctx, drv, connectionString, func(conn types.Connection) (int64, error) {
		return ExecuteBatch(ctx, conn, batch, nil, timeoutSeconds)
	})
}

func withConnection[T any](ctx context.Context, drv types.Driver, connectionString string, fn func(types.Connection) (T, error)) (result T, err error) {
	const op = "open"

	conn, err := drv.Open(ctx, connectionString)
	if err != nil {
		return result, executionFault(op, err)
	}
	defer func() {
		if closeInto(op, conn, &err) {
			result = *new(T)
		}
	}()

	return fn(conn)
}
