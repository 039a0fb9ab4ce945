package sqladapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gaborage/dbshape/database/types"
)

// Command is a database/sql command bound to one Connection.
type Command struct {
	conn    *Connection
	text    string
	kind    types.CommandKind
	timeout int
	tx      *Transaction
	params  []*types.Parameter

	stmt     *sql.Stmt
	stmtText string
	closed   bool
}

// Ensure Command implements the interfaces
var (
	_ types.Command  = (*Command)(nil)
	_ types.Preparer = (*Command)(nil)
)

// SetText sets the command text
func (c *Command) SetText(text string) { c.text = text }

// SetKind sets how the text is interpreted
func (c *Command) SetKind(kind types.CommandKind) { c.kind = kind }

// SetTimeout sets the execution timeout in seconds; zero disables it
func (c *Command) SetTimeout(seconds int) { c.timeout = seconds }

// SetTransaction enlists the command in tx, which must come from this package.
func (c *Command) SetTransaction(tx types.Transaction) error {
	if tx == nil {
		c.tx = nil
		return nil
	}
	t, ok := tx.(*Transaction)
	if !ok {
		return fmt.Errorf("transaction of type %T was not started by the %s driver", tx, c.conn.dialect.Name)
	}
	c.tx = t
	return nil
}

// AddParameter appends p after checking the dialect can bind it.
func (c *Command) AddParameter(p *types.Parameter) error {
	if err := checkParameter(c.conn.dialect, p); err != nil {
		return err
	}
	c.params = append(c.params, p)
	return nil
}

// Prepare precompiles the command on the connection (or its transaction).
func (c *Command) Prepare(ctx context.Context) error {
	if err := c.usable(); err != nil {
		return err
	}
	b, err := bind(c.conn.dialect, c.kind, c.text, c.params)
	if err != nil {
		return err
	}
	stmt, err := c.querier().PrepareContext(ctx, b.text)
	if err != nil {
		return err
	}
	if c.stmt != nil {
		_ = c.stmt.Close()
	}
	c.stmt, c.stmtText = stmt, b.text
	return nil
}

// Query executes the command and returns a cursor over its first result set.
// The connection accepts no other query until the cursor is closed.
func (c *Command) Query(ctx context.Context) (types.Cursor, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	if c.conn.cursor {
		return nil, types.ErrCursorOpen
	}
	b, err := bind(c.conn.dialect, c.kind, c.text, c.params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	var rows *sql.Rows
	if c.stmt != nil && c.stmtText == b.text {
		rows, err = c.stmt.QueryContext(ctx, b.args...)
	} else {
		rows, err = c.querier().QueryContext(ctx, b.text, b.args...)
	}
	if err != nil {
		cancel()
		return nil, err
	}

	cur, err := newCursor(rows, c.conn, cancel)
	if err != nil {
		_ = rows.Close()
		cancel()
		return nil, err
	}
	c.conn.cursor = true
	return cur, nil
}

// ExecNonQuery executes the command and returns the affected row count.
// Output parameters are written back into their Parameter.Value.
func (c *Command) ExecNonQuery(ctx context.Context) (int64, error) {
	if err := c.usable(); err != nil {
		return 0, err
	}
	if c.conn.cursor {
		return 0, types.ErrCursorOpen
	}
	b, err := bind(c.conn.dialect, c.kind, c.text, c.params)
	if err != nil {
		return 0, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var res sql.Result
	if c.stmt != nil && c.stmtText == b.text {
		res, err = c.stmt.ExecContext(ctx, b.args...)
	} else {
		res, err = c.querier().ExecContext(ctx, b.text, b.args...)
	}
	if err != nil {
		return 0, err
	}
	b.apply()

	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report a count (e.g. for DDL); treat it as "not applicable".
		return -1, nil
	}
	return n, nil
}

// Close releases the prepared statement, if any.
func (c *Command) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.stmt != nil {
		return c.stmt.Close()
	}
	return nil
}

func (c *Command) usable() error {
	if c.closed {
		return types.ErrCommandClosed
	}
	if c.conn.state != types.StateOpen {
		return types.ErrConnectionClosed
	}
	if c.tx != nil && c.tx.done {
		return errors.New("transaction already committed or rolled back")
	}
	return nil
}

func (c *Command) querier() querier {
	if c.tx != nil {
		return c.tx.tx
	}
	return c.conn.conn
}

// maxTimeoutSeconds is the largest timeout representable as a time.Duration.
const maxTimeoutSeconds = int64(math.MaxInt64 / int64(time.Second))

// withTimeout applies the command timeout. Zero and timeouts beyond the
// time.Duration range mean no limit.
func (c *Command) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 && int64(c.timeout) <= maxTimeoutSeconds {
		return context.WithTimeout(ctx, time.Duration(c.timeout)*time.Second)
	}
	return context.WithCancel(ctx)
}
