package testing

import "fmt"

// RowSet represents the result set a TestCommand returns from Query.
// It provides a fluent API for building test data, plus hooks for cursor faults.
//
// Usage example:
//
//	rows := NewRowSet("id", "name").
//	    AddRow(1, "Alice").
//	    AddRow(2, nil)
//
//	db.ExpectQuery("SELECT").WillReturnRows(rows)
//
// A RowSet without columns stands for a command that produced no result set.
type RowSet struct {
	columns  []string
	rows     [][]any
	nextErr  error
	errAfter int
	closeErr error
}

// NewRowSet creates a new RowSet with the specified column names.
func NewRowSet(columns ...string) *RowSet {
	return &RowSet{
		columns:  columns,
		rows:     make([][]any, 0),
		errAfter: -1,
	}
}

// AddRow adds a single row of values to the RowSet. A nil value is a NULL cell.
// Returns the RowSet for method chaining.
//
// Panics if the number of values doesn't match the number of columns.
func (rs *RowSet) AddRow(values ...any) *RowSet {
	if len(values) != len(rs.columns) {
		panic(fmt.Sprintf("AddRow: expected %d values for columns %v, got %d",
			len(rs.columns), rs.columns, len(values)))
	}
	rs.rows = append(rs.rows, values)
	return rs
}

// AddRows adds count rows produced by generator (called with the 0-based index).
//
// Example (generate 100 test customers):
//
//	rs := NewRowSet("id", "name").
//	    AddRows(100, func(i int) []any {
//	        return []any{int64(i + 1), fmt.Sprintf("Customer%d", i+1)}
//	    })
func (rs *RowSet) AddRows(count int, generator func(i int) []any) *RowSet {
	for i := 0; i < count; i++ {
		rs.AddRow(generator(i)...)
	}
	return rs
}

// WillFailAfter makes Next return err once n rows were read.
//
// Example (the second Next call fails):
//
//	rs := NewRowSet("id").AddRow(1).AddRow(2).WillFailAfter(1, errors.New("connection reset"))
func (rs *RowSet) WillFailAfter(n int, err error) *RowSet {
	rs.errAfter = n
	rs.nextErr = err
	return rs
}

// WillFailClose makes the cursor's Close return err.
func (rs *RowSet) WillFailClose(err error) *RowSet {
	rs.closeErr = err
	return rs
}

// RowCount returns the number of rows in the RowSet.
func (rs *RowSet) RowCount() int {
	return len(rs.rows)
}

// Columns returns the column names for this RowSet.
func (rs *RowSet) Columns() []string {
	return append([]string{}, rs.columns...)
}
