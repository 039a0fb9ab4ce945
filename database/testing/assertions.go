package testing

import (
	"fmt"
	"strings"
	"testing"
)

// AssertQueryExecuted asserts that a query matching the SQL pattern was executed on the TestDB.
// Uses partial matching by default (can be changed with db.StrictSQLMatching()).
//
// Example:
//
//	db := NewTestDB(types.PostgreSQL)
//	// ... execute test code ...
//	AssertQueryExecuted(t, db, "SELECT * FROM customers")
func AssertQueryExecuted(t *testing.T, db *TestDB, sqlPattern string) {
	t.Helper()
	if countCalls(db, CallQuery, sqlPattern) == 0 {
		t.Errorf("expected query not executed: %q\nActual calls:\n%s", sqlPattern, formatCalls(db.Calls()))
	}
}

// AssertExecExecuted asserts that a non-query matching the SQL pattern was executed.
func AssertExecExecuted(t *testing.T, db *TestDB, sqlPattern string) {
	t.Helper()
	if countCalls(db, CallExec, sqlPattern) == 0 {
		t.Errorf("expected exec not executed: %q\nActual calls:\n%s", sqlPattern, formatCalls(db.Calls()))
	}
}

// AssertExecCount asserts that exactly expected non-queries matching the SQL pattern were executed.
//
// Example (a batch of three statements):
//
//	AssertExecCount(t, db, "INSERT", 3)
func AssertExecCount(t *testing.T, db *TestDB, sqlPattern string, expected int) {
	t.Helper()
	if got := countCalls(db, CallExec, sqlPattern); got != expected {
		t.Errorf("expected %d execs matching %q, got %d\nActual calls:\n%s",
			expected, sqlPattern, got, formatCalls(db.Calls()))
	}
}

// AssertNothingExecuted asserts that no command reached the driver.
// Useful for checking that validation failed before execution.
func AssertNothingExecuted(t *testing.T, db *TestDB) {
	t.Helper()
	if calls := db.Calls(); len(calls) > 0 {
		t.Errorf("expected no executions, got %d:\n%s", len(calls), formatCalls(calls))
	}
}

// AssertAllClosed asserts that every connection, command and cursor the TestDB
// handed out was closed.
func AssertAllClosed(t *testing.T, db *TestDB) {
	t.Helper()
	for i, conn := range db.Connections() {
		if !conn.IsClosed() {
			t.Errorf("connection %d was not closed", i)
		}
		for j, cmd := range conn.Commands() {
			if !cmd.IsClosed() {
				t.Errorf("command %d on connection %d was not closed (%q)", j, i, cmd.Text())
			}
		}
		conn.mu.Lock()
		cur := conn.cursor
		conn.mu.Unlock()
		if cur != nil && !cur.IsClosed() {
			t.Errorf("cursor on connection %d was not closed", i)
		}
	}
}

// AssertCommitted asserts that the transaction was committed.
func AssertCommitted(t *testing.T, tx *TestTx) {
	t.Helper()
	if !tx.IsCommitted() {
		t.Error("expected transaction to be committed")
	}
}

// AssertRolledBack asserts that the transaction was rolled back.
func AssertRolledBack(t *testing.T, tx *TestTx) {
	t.Helper()
	if !tx.IsRolledBack() {
		t.Error("expected transaction to be rolled back")
	}
}

func countCalls(db *TestDB, kind CallKind, sqlPattern string) int {
	count := 0
	for _, call := range db.Calls() {
		if call.Kind == kind && db.matchSQL(sqlPattern, call.Text) {
			count++
		}
	}
	return count
}

func formatCalls(calls []Call) string {
	if len(calls) == 0 {
		return "  (none)"
	}
	var sb strings.Builder
	for i, call := range calls {
		fmt.Fprintf(&sb, "  %d. [%s] %s", i+1, call.Kind, call.Text)
		if len(call.Params) > 0 {
			sb.WriteString(" (")
			for j, p := range call.Params {
				if j > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "%s=%v", p.Name, p.Value)
			}
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
