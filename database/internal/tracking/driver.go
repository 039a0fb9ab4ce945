package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gaborage/dbshape/database/types"
)

// errTransactionsUnsupported is returned by Begin when the wrapped connection cannot start transactions.
var errTransactionsUnsupported = errors.New("driver does not support transactions")

// Driver decorates a types.Driver with execution tracking.
type Driver struct {
	inner   types.Driver
	tracker *Tracker
}

// Ensure decorators implement the interfaces
var (
	_ types.Driver         = (*Driver)(nil)
	_ types.Connection     = (*Connection)(nil)
	_ types.Beginner       = (*Connection)(nil)
	_ types.Command        = (*Command)(nil)
	_ types.Preparer       = (*Command)(nil)
	_ types.NullableBinder = (*Command)(nil)
	_ types.Cursor         = (*Cursor)(nil)
)

// Wrap returns inner decorated with tracking.
func (t *Tracker) Wrap(inner types.Driver) *Driver {
	return &Driver{inner: inner, tracker: t}
}

// Name returns the wrapped driver's name.
func (d *Driver) Name() string {
	return d.inner.Name()
}

// Unwrap returns the decorated driver.
func (d *Driver) Unwrap() types.Driver {
	return d.inner
}

// Open opens a connection with the wrapped driver. The connection target is
// logged with any password masked.
func (d *Driver) Open(ctx context.Context, connectionString string) (types.Connection, error) {
	start := time.Now()
	conn, err := d.inner.Open(ctx, connectionString)

	log := d.tracker.log.WithFields(map[string]any{
		"vendor":      d.inner.Name(),
		"target":      d.tracker.filter.MaskConnectionString(connectionString),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database connection")
		return nil, err
	}
	log.Debug().Msg("Database connection opened")

	return d.tracker.Connection(conn, d.inner.Name()), nil
}

// Connection decorates a types.Connection so its commands are tracked.
type Connection struct {
	inner   types.Connection
	tracker *Tracker
	vendor  string
}

// Connection wraps an already open connection.
func (t *Tracker) Connection(inner types.Connection, vendor string) *Connection {
	return &Connection{inner: inner, tracker: t, vendor: vendor}
}

// Unwrap returns the decorated connection.
func (c *Connection) Unwrap() types.Connection {
	return c.inner
}

// State reports the wrapped connection's state.
func (c *Connection) State() types.ConnectionState {
	return c.inner.State()
}

// CreateCommand returns a tracked command.
func (c *Connection) CreateCommand() (types.Command, error) {
	cmd, err := c.inner.CreateCommand()
	if err != nil {
		return nil, err
	}
	return &Command{inner: cmd, conn: c}, nil
}

// Begin starts a transaction on the wrapped connection.
func (c *Connection) Begin(ctx context.Context) (types.TxController, error) {
	b, ok := c.inner.(types.Beginner)
	if !ok {
		return nil, errTransactionsUnsupported
	}
	return b.Begin(ctx)
}

// Close closes the wrapped connection.
func (c *Connection) Close() error {
	return c.inner.Close()
}

// Command decorates a types.Command. It records what the builder configured so
// the execution can be reported.
type Command struct {
	inner  types.Command
	conn   *Connection
	text   string
	kind   types.CommandKind
	params []*types.Parameter
}

// SetText sets the command text
func (c *Command) SetText(text string) {
	c.text = text
	c.inner.SetText(text)
}

// SetKind sets the command kind
func (c *Command) SetKind(kind types.CommandKind) {
	c.kind = kind
	c.inner.SetKind(kind)
}

// SetTimeout sets the timeout in seconds
func (c *Command) SetTimeout(seconds int) {
	c.inner.SetTimeout(seconds)
}

// SetTransaction enlists the command in tx
func (c *Command) SetTransaction(tx types.Transaction) error {
	return c.inner.SetTransaction(tx)
}

// AddParameter adds p to the wrapped command
func (c *Command) AddParameter(p *types.Parameter) error {
	if err := c.inner.AddParameter(p); err != nil {
		return err
	}
	c.params = append(c.params, p)
	return nil
}

// Prepare prepares the wrapped command; it is a no-op when the driver cannot prepare.
func (c *Command) Prepare(ctx context.Context) error {
	if p, ok := c.inner.(types.Preparer); ok {
		return p.Prepare(ctx)
	}
	return nil
}

// SetNullable forwards nullability; it is a no-op when the driver has no such flag.
func (c *Command) SetNullable(name string, nullable bool) error {
	if nb, ok := c.inner.(types.NullableBinder); ok {
		return nb.SetNullable(name, nullable)
	}
	return nil
}

// Query executes the command. The execution is reported when the cursor closes,
// so its duration covers fetching.
func (c *Command) Query(ctx context.Context) (types.Cursor, error) {
	id := uuid.NewString()
	start := time.Now()

	cur, err := c.inner.Query(ctx)
	if err != nil {
		c.report(ctx, id, &execution{duration: time.Since(start), err: err})
		return nil, err
	}
	return &Cursor{inner: cur, cmd: c, ctx: ctx, id: id, start: start}, nil
}

// ExecNonQuery executes the command and reports it immediately.
func (c *Command) ExecNonQuery(ctx context.Context) (int64, error) {
	id := uuid.NewString()
	start := time.Now()

	n, err := c.inner.ExecNonQuery(ctx)
	c.report(ctx, id, &execution{duration: time.Since(start), affected: n, err: err})
	return n, err
}

// Close closes the wrapped command
func (c *Command) Close() error {
	return c.inner.Close()
}

func (c *Command) report(ctx context.Context, id string, e *execution) {
	e.vendor = c.conn.vendor
	e.text = statementText(c.kind, c.text)
	c.conn.tracker.track(ctx, id, e, c.params)
}

// Cursor counts fetched rows and reports the execution on Close.
type Cursor struct {
	inner types.Cursor
	cmd   *Command
	ctx   context.Context //nolint:containedctx // reported with the execution on Close
	id    string
	start time.Time
	rows  int64
	err   error
	done  bool
}

// Next advances the wrapped cursor
func (c *Cursor) Next() (bool, error) {
	ok, err := c.inner.Next()
	if err != nil && c.err == nil {
		c.err = err
	}
	if ok {
		c.rows++
	}
	return ok, err
}

// ColumnCount returns the number of columns
func (c *Cursor) ColumnCount() int { return c.inner.ColumnCount() }

// ColumnName returns the name of column i
func (c *Cursor) ColumnName(i int) string { return c.inner.ColumnName(i) }

// IsNull reports whether column i is NULL
func (c *Cursor) IsNull(i int) bool { return c.inner.IsNull(i) }

// Value returns column i of the current row
func (c *Cursor) Value(i int) any { return c.inner.Value(i) }

// Close closes the wrapped cursor and reports the execution once.
func (c *Cursor) Close() error {
	err := c.inner.Close()
	if c.done {
		return err
	}
	c.done = true

	reported := c.err
	if reported == nil {
		reported = err
	}
	c.cmd.report(c.ctx, c.id, &execution{duration: time.Since(c.start), read: c.rows, err: reported})
	return err
}
