// Package testing provides an in-memory fake implementation of the dbshape driver
// capability for unit tests. It needs no database server.
//
// Usage example:
//
//	db := dbtest.NewTestDB(types.PostgreSQL)
//	db.ExpectQuery("SELECT name FROM customers").
//	    WillReturnRows(dbtest.NewRowSet("name").AddRow("Alice"))
//
//	name, err := database.OpenQueryValue(ctx, db, "fake://", database.Text("SELECT name FROM customers"))
//
//	dbtest.AssertQueryExecuted(t, db, "SELECT name FROM customers")
//	dbtest.AssertAllClosed(t, db)
package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gaborage/dbshape/database/types"
)

// TestDB is a fake types.Driver. It holds query/exec expectations shared by all
// connections it opens and records every call for later assertions.
type TestDB struct {
	vendor      string
	queries     []*QueryExpectation
	execs       []*ExecExpectation
	calls       []Call
	connections []*TestConnection
	opened      []string
	strictMatch bool

	openErr      error
	createErr    error
	prepareErr   error
	paramErrs    map[string]error
	nullableErrs map[string]error

	mu sync.Mutex
}

// Ensure TestDB implements the interface
var _ types.Driver = (*TestDB)(nil)

// CallKind distinguishes the recorded executions.
type CallKind string

const (
	CallQuery CallKind = "query"
	CallExec  CallKind = "exec"
)

// Call is one recorded Query or ExecNonQuery invocation.
type Call struct {
	Kind        CallKind
	Text        string
	CommandKind types.CommandKind
	Timeout     int
	Params      []*types.Parameter
	Transaction types.Transaction
	Prepared    bool
}

// QueryExpectation defines what should happen when a matching query is executed.
type QueryExpectation struct {
	sql  string
	rows *RowSet
	err  error
}

// ExecExpectation defines what should happen when a matching non-query is executed.
type ExecExpectation struct {
	sql          string
	rowsAffected int64
	err          error
	outputs      map[string]any
}

// NewTestDB creates a fake driver reporting vendor as its name.
func NewTestDB(vendor string) *TestDB {
	return &TestDB{
		vendor:       vendor,
		paramErrs:    make(map[string]error),
		nullableErrs: make(map[string]error),
	}
}

// StrictSQLMatching enables exact (whitespace-trimmed) matching instead of substring matching.
// Returns the TestDB for method chaining.
func (db *TestDB) StrictSQLMatching() *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.strictMatch = true
	return db
}

// ExpectQuery registers a response for queries whose text matches sqlPattern.
// Expectations are matched first-come first-served and may be used repeatedly.
//
// Example:
//
//	db.ExpectQuery("SELECT * FROM customers WHERE id = @id").
//	    WillReturnRows(NewRowSet("id", "name").AddRow(1, "Alice"))
func (db *TestDB) ExpectQuery(sqlPattern string) *QueryExpectation {
	exp := &QueryExpectation{sql: sqlPattern, rows: NewRowSet()}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.queries = append(db.queries, exp)
	return exp
}

// ExpectExec registers a response for non-queries whose text matches sqlPattern.
//
// Example:
//
//	db.ExpectExec("INSERT INTO customers").WillReturnRowsAffected(1)
func (db *TestDB) ExpectExec(sqlPattern string) *ExecExpectation {
	exp := &ExecExpectation{sql: sqlPattern}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs = append(db.execs, exp)
	return exp
}

// WillFailOpen makes Open fail with err.
func (db *TestDB) WillFailOpen(err error) *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.openErr = err
	return db
}

// WillFailCreateCommand makes CreateCommand fail with err on every connection.
func (db *TestDB) WillFailCreateCommand(err error) *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.createErr = err
	return db
}

// WillFailPrepare makes Prepare fail with err.
func (db *TestDB) WillFailPrepare(err error) *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.prepareErr = err
	return db
}

// WillRejectParameter makes AddParameter fail with err for the parameter called name.
func (db *TestDB) WillRejectParameter(name string, err error) *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.paramErrs[name] = err
	return db
}

// WillRejectNullable makes SetNullable fail with err for the parameter called name.
func (db *TestDB) WillRejectNullable(name string, err error) *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nullableErrs[name] = err
	return db
}

// Name returns the vendor given to NewTestDB.
func (db *TestDB) Name() string {
	return db.vendor
}

// Open returns a new open TestConnection and records the connection string.
func (db *TestDB) Open(_ context.Context, connectionString string) (types.Connection, error) {
	conn, err := db.OpenConnection(connectionString)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// OpenConnection is Open returning the concrete connection.
func (db *TestDB) OpenConnection(connectionString string) (*TestConnection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.opened = append(db.opened, connectionString)
	if db.openErr != nil {
		return nil, db.openErr
	}
	conn := &TestConnection{db: db, state: types.StateOpen}
	db.connections = append(db.connections, conn)
	return conn, nil
}

// Calls returns every recorded execution in order.
func (db *TestDB) Calls() []Call {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]Call{}, db.calls...)
}

// Connections returns every connection opened so far.
func (db *TestDB) Connections() []*TestConnection {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]*TestConnection{}, db.connections...)
}

// OpenedWith returns the connection strings passed to Open.
func (db *TestDB) OpenedWith() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string{}, db.opened...)
}

// matchSQL uses substring matching unless StrictSQLMatching was called.
func (db *TestDB) matchSQL(expected, actual string) bool {
	if db.strictMatch {
		return strings.TrimSpace(expected) == strings.TrimSpace(actual)
	}
	return strings.Contains(actual, expected)
}

func (db *TestDB) record(c Call) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls = append(db.calls, c)
}

func (db *TestDB) findQuery(text string) (*QueryExpectation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, exp := range db.queries {
		if db.matchSQL(exp.sql, text) {
			return exp, nil
		}
	}
	return nil, fmt.Errorf("unexpected query: %s", text)
}

func (db *TestDB) findExec(text string) (*ExecExpectation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, exp := range db.execs {
		if db.matchSQL(exp.sql, text) {
			return exp, nil
		}
	}
	return nil, fmt.Errorf("unexpected exec: %s", text)
}

// WillReturnRows configures the rows returned by the query.
func (qe *QueryExpectation) WillReturnRows(rows *RowSet) *QueryExpectation {
	qe.rows = rows
	return qe
}

// WillReturnError makes the query fail with err.
func (qe *QueryExpectation) WillReturnError(err error) *QueryExpectation {
	qe.err = err
	return qe
}

// WillReturnRowsAffected configures the affected row count.
func (ee *ExecExpectation) WillReturnRowsAffected(n int64) *ExecExpectation {
	ee.rowsAffected = n
	return ee
}

// WillReturnError makes the execution fail with err.
func (ee *ExecExpectation) WillReturnError(err error) *ExecExpectation {
	ee.err = err
	return ee
}

// WillSetOutput writes value into the output parameter called name after execution.
func (ee *ExecExpectation) WillSetOutput(name string, value any) *ExecExpectation {
	if ee.outputs == nil {
		ee.outputs = make(map[string]any)
	}
	ee.outputs[name] = value
	return ee
}
