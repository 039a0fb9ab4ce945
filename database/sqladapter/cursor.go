package sqladapter

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gaborage/dbshape/database/types"
)

// Cursor adapts *sql.Rows to types.Cursor.
type Cursor struct {
	rows     *sql.Rows
	conn     *Connection
	cancel   context.CancelFunc
	names    []string
	zoneless []bool
	text     []bool
	numeric  []bool
	values   []any
	dest     []any
	closed   bool
}

// Ensure Cursor implements the interface
var _ types.Cursor = (*Cursor)(nil)

func newCursor(rows *sql.Rows, conn *Connection, cancel context.CancelFunc) (*Cursor, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	zoneless := make([]bool, len(names))
	text := make([]bool, len(names))
	numeric := make([]bool, len(names))
	if colTypes, err := rows.ColumnTypes(); err == nil {
		for i, ct := range colTypes {
			zoneless[i] = conn.dialect.zoneless(ct.DatabaseTypeName())
			text[i] = conn.dialect.text(ct.DatabaseTypeName())
			numeric[i] = conn.dialect.numericText(ct.DatabaseTypeName())
		}
	}

	c := &Cursor{
		rows:     rows,
		conn:     conn,
		cancel:   cancel,
		names:    names,
		zoneless: zoneless,
		text:     text,
		numeric:  numeric,
		values:   make([]any, len(names)),
		dest:     make([]any, len(names)),
	}
	for i := range c.values {
		c.dest[i] = &c.values[i]
	}
	return c, nil
}

// Next advances to the next row.
func (c *Cursor) Next() (bool, error) {
	if c.closed {
		return false, types.ErrCursorClosed
	}
	if !c.rows.Next() {
		return false, c.rows.Err()
	}
	clear(c.values)
	if err := c.rows.Scan(c.dest...); err != nil {
		return false, err
	}
	return true, nil
}

// ColumnCount returns the number of columns; zero when the command returned no result set.
func (c *Cursor) ColumnCount() int {
	return len(c.names)
}

// ColumnName returns the raw column name.
func (c *Cursor) ColumnName(i int) string {
	return c.names[i]
}

// IsNull reports whether column i of the current row is NULL.
func (c *Cursor) IsNull(i int) bool {
	return c.values[i] == nil
}

// Value returns column i of the current row. Time values from zone-less column
// types are returned as types.DateTime with an unspecified kind; bytes from
// character column types are returned as strings. Integral decimal text from
// numeric column types is returned as int64.
func (c *Cursor) Value(i int) any {
	switch v := c.values[i].(type) {
	case time.Time:
		if c.zoneless[i] {
			return types.Unspecified(v)
		}
	case []byte:
		if c.text[i] {
			return string(v)
		}
	case string:
		if c.numeric[i] {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	}
	return c.values[i]
}

// Close closes the rows and frees the connection for the next cursor.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.conn.cursor = false

	err := c.rows.Close()
	if rerr := c.rows.Err(); rerr != nil && !errors.Is(rerr, context.Canceled) {
		err = errors.Join(err, rerr)
	}
	c.cancel()
	return err
}
