package database

import (
	"fmt"
	"strings"

	"github.com/gaborage/dbshape/database/types"
)

// SingleValue reads exactly one row of exactly one column from cur and returns the
// cell, or nil for a NULL cell. It fails with NoRows, MultipleColumns or
// MultipleRows otherwise. cur is closed before SingleValue returns.
func SingleValue(cur types.Cursor) (value any, err error) {
	const op = "single_value"
	defer func() {
		if closeInto(op, cur, &err) {
			value = nil
		}
	}()

	ok, err := advance(op, cur)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, noRows(op)
	}

	if n := cur.ColumnCount(); n != 1 {
		return nil, multipleColumns(op, n)
	}
	value = cellValue(cur, 0)

	more, err := advance(op, cur)
	if err != nil {
		return nil, err
	}
	if more {
		return nil, multipleRows(op)
	}
	return value, nil
}

// SingleRow reads exactly one row from cur and returns it keyed by lower-cased,
// trimmed column name. Column names that collide after normalisation fail with
// DuplicateColumnName. cur is closed before SingleRow returns.
func SingleRow(cur types.Cursor) (row map[string]any, err error) {
	const op = "single_row"
	defer func() {
		if closeInto(op, cur, &err) {
			row = nil
		}
	}()

	ok, err := advance(op, cur)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, noRows(op)
	}

	n := cur.ColumnCount()
	names := make([]string, n)
	seen := make(map[string]int, n)
	for i := 0; i < n; i++ {
		name := NormalizeColumnName(cur.ColumnName(i))
		if first, dup := seen[name]; dup {
			return nil, &Error{
				Kind:    KindDuplicateColumnName,
				Op:      op,
				Column:  name,
				Message: fmt.Sprintf("columns %d and %d both normalise to %q", first, i, name),
			}
		}
		seen[name] = i
		names[i] = name
	}

	row = make(map[string]any, n)
	for i, name := range names {
		row[name] = cellValue(cur, i)
	}

	more, err := advance(op, cur)
	if err != nil {
		return nil, err
	}
	if more {
		return nil, multipleRows(op)
	}
	return row, nil
}

// SingleColumn reads every row of a one-column cursor and returns the cells in
// cursor order. NULL cells are nil. It fails with MultipleColumns when the cursor
// has more (or fewer) than one column and NoRows when it is empty.
// cur is closed before SingleColumn returns.
func SingleColumn(cur types.Cursor) (values []any, err error) {
	const op = "single_column"
	defer func() {
		if closeInto(op, cur, &err) {
			values = nil
		}
	}()

	if n := cur.ColumnCount(); n != 1 {
		return nil, multipleColumns(op, n)
	}

	for {
		ok, err := advance(op, cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		values = append(values, cellValue(cur, 0))
	}

	if len(values) == 0 {
		return nil, noRows(op)
	}
	return values, nil
}

// NormalizeColumnName is the key SingleRow uses for a column.
func NormalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func advance(op string, cur types.Cursor) (bool, error) {
	ok, err := cur.Next()
	if err != nil {
		return false, executionFault(op, err)
	}
	return ok, nil
}

// cellValue returns nil for NULL cells, whichever way the driver reports them.
func cellValue(cur types.Cursor, i int) any {
	if cur.IsNull(i) {
		return nil
	}
	v := cur.Value(i)
	if types.IsDBNull(v) {
		return nil
	}
	return v
}

func noRows(op string) *Error {
	return &Error{Kind: KindNoRows, Op: op, Message: "result has no rows", Expected: 1, Actual: 0}
}

func multipleRows(op string) *Error {
	return &Error{Kind: KindMultipleRows, Op: op, Message: "result has more than one row", Expected: 1, Actual: 2}
}

func multipleColumns(op string, n int) *Error {
	return &Error{
		Kind:     KindMultipleColumns,
		Op:       op,
		Message:  fmt.Sprintf("result has %d columns, expected 1", n),
		Expected: 1,
		Actual:   n,
	}
}
