package sqladapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gaborage/dbshape/database/types"
)

// querier is the part of *sql.Conn and *sql.Tx a command needs.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Connection is a pinned *sql.Conn implementing types.Connection.
type Connection struct {
	dialect Dialect
	db      *sql.DB // owned pool; nil when the pool belongs to the caller
	conn    *sql.Conn
	state   types.ConnectionState
	cursor  bool
}

// Ensure Connection implements the interfaces
var (
	_ types.Connection = (*Connection)(nil)
	_ types.Beginner   = (*Connection)(nil)
)

// NewConnection pins one connection of db. The pool stays owned by the caller and
// is not closed by Connection.Close.
func NewConnection(ctx context.Context, db *sql.DB, dialect Dialect) (*Connection, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s connection: %w", dialect.Name, err)
	}
	return &Connection{dialect: dialect, conn: conn, state: types.StateOpen}, nil
}

// State reports the connection state.
func (c *Connection) State() types.ConnectionState {
	return c.state
}

// CreateCommand returns a new command bound to this connection.
func (c *Connection) CreateCommand() (types.Command, error) {
	if c.state != types.StateOpen {
		return nil, types.ErrConnectionClosed
	}
	return &Command{conn: c}, nil
}

// Ping verifies the session is still alive and marks the connection broken if not.
func (c *Connection) Ping(ctx context.Context) error {
	if c.state != types.StateOpen {
		return types.ErrConnectionClosed
	}
	if err := c.conn.PingContext(ctx); err != nil {
		c.state = types.StateBroken
		return err
	}
	return nil
}

// Begin starts a transaction with default options.
func (c *Connection) Begin(ctx context.Context) (types.TxController, error) {
	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// BeginTx starts a transaction on this connection.
func (c *Connection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Transaction, error) {
	if c.state != types.StateOpen {
		return nil, types.ErrConnectionClosed
	}
	tx, err := c.conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Transaction{tx: tx, conn: c}, nil
}

// Close releases the pinned connection and, when owned, its pool.
func (c *Connection) Close() error {
	if c.state == types.StateClosed {
		return nil
	}
	c.state = types.StateClosed

	err := c.conn.Close()
	if c.db != nil {
		err = errors.Join(err, c.db.Close())
	}
	return err
}

// Transaction wraps *sql.Tx. It reports no connection once committed or rolled back.
type Transaction struct {
	tx   *sql.Tx
	conn *Connection
	done bool
}

// Ensure Transaction implements the interface
var _ types.TxController = (*Transaction)(nil)

// Connection returns the owning connection, or nil after Commit or Rollback.
func (t *Transaction) Connection() types.Connection {
	if t.done {
		return nil
	}
	return t.conn
}

// Commit commits the transaction
func (t *Transaction) Commit() error {
	t.done = true
	return t.tx.Commit()
}

// Rollback rolls back the transaction
func (t *Transaction) Rollback() error {
	t.done = true
	return t.tx.Rollback()
}
