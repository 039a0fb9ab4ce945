// Package types contains the driver capability definitions for dbshape.
// These interfaces are separate from the main database package to avoid import cycles
// and to make them easily accessible for mocking and testing.
//
//nolint:revive // Package name "types" is intentionally generic to avoid circular
package types

import "context"

// Database vendor identifiers shared across the database packages.
type Vendor = string

const (
	PostgreSQL Vendor = "postgresql"
	Oracle     Vendor = "oracle"
	MySQL      Vendor = "mysql"
	SQLite     Vendor = "sqlite"
)

// Driver is the capability a caller hands to the open-and-execute entry points.
// It knows how to open a connection for a connection string; everything else is
// reached through the returned Connection.
type Driver interface {
	// Name identifies the driver (usually the vendor) in logs and metrics.
	Name() string

	// Open opens a physical connection. The returned Connection is owned by the caller.
	Open(ctx context.Context, connectionString string) (Connection, error)
}

// Connection is a single open database session.
// At most one Cursor may be outstanding per Connection at a time.
type Connection interface {
	State() ConnectionState

	// CreateCommand allocates a driver command bound to this connection.
	// The command must be closed by whoever receives it.
	CreateCommand() (Command, error)

	Close() error
}

// Transaction is the view of an active transaction needed to validate a command.
//
// Connection returns the connection the transaction is bound to, or nil once the
// transaction reached a terminal state (committed or rolled back).
type Transaction interface {
	Connection() Connection
}

// TxController is a transaction the caller can finish.
type TxController interface {
	Transaction
	Commit() error
	Rollback() error
}

// Beginner is implemented by connections that can start transactions.
// Transaction lifecycle stays with the caller; this package only validates bindings.
type Beginner interface {
	Begin(ctx context.Context) (TxController, error)
}

// Command is a driver command object. It is configured by the database package's
// builder and then executed exactly once.
type Command interface {
	SetText(text string)
	SetKind(kind CommandKind)
	// SetTimeout passes the command timeout to the driver. Zero means no limit.
	SetTimeout(seconds int)
	SetTransaction(tx Transaction) error

	// AddParameter attaches a parameter. Drivers return an error when they cannot
	// represent the parameter (unsupported type, direction or value).
	AddParameter(p *Parameter) error

	// Query executes the command and returns a forward-only cursor.
	// A command that produced no result set returns a cursor with zero columns.
	Query(ctx context.Context) (Cursor, error)

	// ExecNonQuery executes the command and returns the number of affected rows.
	ExecNonQuery(ctx context.Context) (int64, error)

	Close() error
}

// Preparer is implemented by commands whose driver supports precompilation.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// NullableBinder is implemented by commands whose driver parameters carry an
// explicit nullability flag. Drivers without it simply ignore Parameter.Nullable.
type NullableBinder interface {
	SetNullable(name string, nullable bool) error
}

// Cursor is a forward-only, single-pass view over the rows of one result set.
// The column set is fixed for the lifetime of the cursor.
type Cursor interface {
	// Next advances to the next row. It returns false with a nil error when the
	// result set is exhausted.
	Next() (bool, error)

	ColumnCount() int
	ColumnName(i int) string

	// IsNull and Value refer to the current row.
	IsNull(i int) bool
	Value(i int) any

	Close() error
}
