package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/gaborage/dbshape/database/types"
)

// Ensure fakes implement the interfaces
var (
	_ types.Connection     = (*TestConnection)(nil)
	_ types.Beginner       = (*TestConnection)(nil)
	_ types.Command        = (*TestCommand)(nil)
	_ types.Preparer       = (*TestCommand)(nil)
	_ types.NullableBinder = (*TestCommand)(nil)
	_ types.Cursor         = (*TestCursor)(nil)
)

// TestConnection is a fake types.Connection opened by TestDB.
type TestConnection struct {
	db       *TestDB
	state    types.ConnectionState
	closeErr error
	beginErr error
	commands []*TestCommand
	txs      []*TestTx
	cursor   *TestCursor

	mu sync.Mutex
}

// WillFailClose makes Close return err (the connection still ends up closed).
func (c *TestConnection) WillFailClose(err error) *TestConnection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErr = err
	return c
}

// WillFailBegin makes Begin return err.
func (c *TestConnection) WillFailBegin(err error) *TestConnection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beginErr = err
	return c
}

// SetState forces the reported connection state.
func (c *TestConnection) SetState(state types.ConnectionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// State returns the current connection state.
func (c *TestConnection) State() types.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsClosed reports whether Close was called.
func (c *TestConnection) IsClosed() bool {
	return c.State() == types.StateClosed
}

// Commands returns every command created on this connection.
func (c *TestConnection) Commands() []*TestCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*TestCommand{}, c.commands...)
}

// CreateCommand returns a new TestCommand bound to this connection.
func (c *TestConnection) CreateCommand() (types.Command, error) {
	c.db.mu.Lock()
	createErr := c.db.createErr
	c.db.mu.Unlock()
	if createErr != nil {
		return nil, createErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == types.StateClosed {
		return nil, types.ErrConnectionClosed
	}
	cmd := &TestCommand{conn: c, nullable: make(map[string]bool)}
	c.commands = append(c.commands, cmd)
	return cmd, nil
}

// Begin starts a fake transaction.
func (c *TestConnection) Begin(_ context.Context) (types.TxController, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	if c.state == types.StateClosed {
		return nil, types.ErrConnectionClosed
	}
	tx := &TestTx{conn: c}
	c.txs = append(c.txs, tx)
	return tx, nil
}

// Close marks the connection closed.
func (c *TestConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = types.StateClosed
	return c.closeErr
}

// TestTx is a fake transaction. Connection returns nil once it is committed or rolled back.
type TestTx struct {
	conn       *TestConnection
	committed  bool
	rolledBack bool

	mu sync.Mutex
}

// Connection returns the owning connection while the transaction is active.
func (tx *TestTx) Connection() types.Connection {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.committed || tx.rolledBack {
		return nil
	}
	return tx.conn
}

// Commit marks the transaction as committed.
func (tx *TestTx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.committed || tx.rolledBack {
		return errors.New("transaction already finished")
	}
	tx.committed = true
	return nil
}

// Rollback marks the transaction as rolled back.
func (tx *TestTx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.committed || tx.rolledBack {
		return errors.New("transaction already finished")
	}
	tx.rolledBack = true
	return nil
}

// IsCommitted returns true if Commit() was called.
func (tx *TestTx) IsCommitted() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.committed
}

// IsRolledBack returns true if Rollback() was called.
func (tx *TestTx) IsRolledBack() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.rolledBack
}

// TestCommand is a fake types.Command. It records its configuration and answers
// executions from the owning TestDB's expectations.
type TestCommand struct {
	conn     *TestConnection
	text     string
	kind     types.CommandKind
	timeout  int
	tx       types.Transaction
	params   []*types.Parameter
	nullable map[string]bool
	prepared bool
	closed   bool
	executed bool
}

// Text returns the command text.
func (c *TestCommand) Text() string { return c.text }

// Kind returns the command kind.
func (c *TestCommand) Kind() types.CommandKind { return c.kind }

// Timeout returns the timeout in seconds.
func (c *TestCommand) Timeout() int { return c.timeout }

// Transaction returns the enlisted transaction, if any.
func (c *TestCommand) Transaction() types.Transaction { return c.tx }

// Parameters returns the attached parameters in order.
func (c *TestCommand) Parameters() []*types.Parameter {
	return append([]*types.Parameter{}, c.params...)
}

// Nullable returns the nullability flag set for name and whether one was set.
func (c *TestCommand) Nullable(name string) (nullable, ok bool) {
	nullable, ok = c.nullable[name]
	return nullable, ok
}

// IsPrepared reports whether Prepare succeeded.
func (c *TestCommand) IsPrepared() bool { return c.prepared }

// IsClosed reports whether Close was called.
func (c *TestCommand) IsClosed() bool { return c.closed }

// SetText sets the command text
func (c *TestCommand) SetText(text string) { c.text = text }

// SetKind sets the command kind
func (c *TestCommand) SetKind(kind types.CommandKind) { c.kind = kind }

// SetTimeout sets the timeout in seconds
func (c *TestCommand) SetTimeout(seconds int) { c.timeout = seconds }

// SetTransaction enlists the command in tx. Only transactions of this fake are accepted.
func (c *TestCommand) SetTransaction(tx types.Transaction) error {
	if tx == nil {
		c.tx = nil
		return nil
	}
	if _, ok := tx.(*TestTx); !ok {
		return errors.New("transaction does not belong to the test driver")
	}
	c.tx = tx
	return nil
}

// AddParameter attaches p unless the TestDB was told to reject its name.
func (c *TestCommand) AddParameter(p *types.Parameter) error {
	c.conn.db.mu.Lock()
	err := c.conn.db.paramErrs[p.Name]
	c.conn.db.mu.Unlock()
	if err != nil {
		return err
	}
	c.params = append(c.params, p)
	return nil
}

// SetNullable records the nullability flag for name.
func (c *TestCommand) SetNullable(name string, nullable bool) error {
	c.conn.db.mu.Lock()
	err := c.conn.db.nullableErrs[name]
	c.conn.db.mu.Unlock()
	if err != nil {
		return err
	}
	c.nullable[name] = nullable
	return nil
}

// Prepare marks the command prepared.
func (c *TestCommand) Prepare(_ context.Context) error {
	c.conn.db.mu.Lock()
	err := c.conn.db.prepareErr
	c.conn.db.mu.Unlock()
	if err != nil {
		return err
	}
	c.prepared = true
	return nil
}

// Query answers from the first matching query expectation.
func (c *TestCommand) Query(ctx context.Context) (types.Cursor, error) {
	if err := c.begin(ctx, CallQuery); err != nil {
		return nil, err
	}
	exp, err := c.conn.db.findQuery(c.text)
	if err != nil {
		return nil, err
	}
	if exp.err != nil {
		return nil, exp.err
	}

	c.conn.mu.Lock()
	defer c.conn.mu.Unlock()
	if c.conn.cursor != nil && !c.conn.cursor.closed {
		return nil, types.ErrCursorOpen
	}
	cur := &TestCursor{conn: c.conn, rows: exp.rows, pos: -1}
	c.conn.cursor = cur
	return cur, nil
}

// ExecNonQuery answers from the first matching exec expectation and writes any
// scripted output values back into the output parameters.
func (c *TestCommand) ExecNonQuery(ctx context.Context) (int64, error) {
	if err := c.begin(ctx, CallExec); err != nil {
		return 0, err
	}
	exp, err := c.conn.db.findExec(c.text)
	if err != nil {
		return 0, err
	}
	if exp.err != nil {
		return 0, exp.err
	}
	for _, p := range c.params {
		if v, ok := exp.outputs[p.Name]; ok && p.IsOutput() {
			p.Value = v
		}
	}
	return exp.rowsAffected, nil
}

// Close marks the command closed.
func (c *TestCommand) Close() error {
	c.closed = true
	return nil
}

func (c *TestCommand) begin(ctx context.Context, kind CallKind) error {
	if c.closed {
		return types.ErrCommandClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.conn.State() != types.StateOpen {
		return types.ErrConnectionClosed
	}
	c.executed = true
	c.conn.db.record(Call{
		Kind:        kind,
		Text:        c.text,
		CommandKind: c.kind,
		Timeout:     c.timeout,
		Params:      c.Parameters(),
		Transaction: c.tx,
		Prepared:    c.prepared,
	})
	return nil
}

// TestCursor iterates a RowSet.
type TestCursor struct {
	conn   *TestConnection
	rows   *RowSet
	pos    int
	read   int
	closed bool
}

// Next advances to the next row.
func (c *TestCursor) Next() (bool, error) {
	if c.closed {
		return false, types.ErrCursorClosed
	}
	if c.rows.nextErr != nil && c.read == c.rows.errAfter {
		return false, c.rows.nextErr
	}
	if c.pos+1 >= len(c.rows.rows) {
		c.pos = len(c.rows.rows)
		return false, nil
	}
	c.pos++
	c.read++
	return true, nil
}

// ColumnCount returns the number of columns
func (c *TestCursor) ColumnCount() int { return len(c.rows.columns) }

// ColumnName returns the name of column i
func (c *TestCursor) ColumnName(i int) string { return c.rows.columns[i] }

// IsNull reports whether column i of the current row is NULL
func (c *TestCursor) IsNull(i int) bool { return c.Value(i) == nil }

// Value returns column i of the current row, or nil when there is no current row.
func (c *TestCursor) Value(i int) any {
	if c.pos < 0 || c.pos >= len(c.rows.rows) {
		return nil
	}
	return c.rows.rows[c.pos][i]
}

// IsClosed reports whether Close was called.
func (c *TestCursor) IsClosed() bool {
	c.conn.mu.Lock()
	defer c.conn.mu.Unlock()
	return c.closed
}

// Close releases the cursor so the connection may open another one.
func (c *TestCursor) Close() error {
	c.conn.mu.Lock()
	defer c.conn.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.closeErr
}
