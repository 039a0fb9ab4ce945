package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbtest "github.com/gaborage/dbshape/database/testing"
	"github.com/gaborage/dbshape/database/types"
)

func TestExec(t *testing.T) {
	t.Run("returns affected rows and closes the command", func(t *testing.T) {
		db := dbtest.NewTestDB(types.PostgreSQL)
		db.ExpectExec("DELETE FROM customers").WillReturnRowsAffected(2)
		conn := openFake(t, db)

		n, err := Exec(context.Background(), conn, Text("DELETE FROM customers WHERE id = @id", MustParameter("@id", 5)))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.True(t, conn.Commands()[0].IsClosed())
	})

	t.Run("driver fault", func(t *testing.T) {
		db := dbtest.NewTestDB(types.PostgreSQL)
		db.ExpectExec("DELETE").WillReturnError(errors.New("deadlock"))

		_, err := Exec(context.Background(), openFake(t, db), Text("DELETE FROM customers"))

		assert.ErrorIs(t, err, ErrExecutionFault)
		assert.EqualError(t, err, "exec: execution_fault: deadlock")
	})

	t.Run("output parameter written back", func(t *testing.T) {
		db := dbtest.NewTestDB(types.Oracle)
		db.ExpectExec("next_order_id").WillSetOutput("@id", int64(1001))
		out := MustParameter("@id", nil, WithDirection(types.DirectionOutput), WithType(types.DbTypeInt64))

		_, err := Exec(context.Background(), openFake(t, db), StoredProcedure("next_order_id", out))
		require.NoError(t, err)
		assert.Equal(t, int64(1001), out.Value)
	})
}

func TestQueryHelpers(t *testing.T) {
	db := dbtest.NewTestDB(types.PostgreSQL)
	db.ExpectQuery("SELECT COUNT").WillReturnRows(dbtest.NewRowSet("count").AddRow(int64(3)))
	db.ExpectQuery("SELECT id, name").WillReturnRows(dbtest.NewRowSet("ID", "Name").AddRow(int64(1), "Alice"))
	db.ExpectQuery("SELECT name").WillReturnRows(dbtest.NewRowSet("name").AddRow("Alice").AddRow("Bob"))
	conn := openFake(t, db)
	ctx := context.Background()

	v, err := QueryValue(ctx, conn, Text("SELECT COUNT(*) FROM customers"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	row, err := QueryRow(ctx, conn, Text("SELECT id, name FROM customers WHERE id = @id", MustParameter("@id", 1)))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "Alice"}, row)

	col, err := QueryColumn(ctx, conn, Text(selectCustomers))
	require.NoError(t, err)
	assert.Equal(t, []any{"Alice", "Bob"}, col)

	var buf bytes.Buffer
	require.NoError(t, ExportQueryCSV(ctx, conn, Text(selectCustomers), &buf, true))
	assert.Equal(t, "name\nAlice\nBob", buf.String())

	require.NoError(t, conn.Close())
	dbtest.AssertAllClosed(t, db)
}

func TestQueryShapeViolationClosesEverything(t *testing.T) {
	db := dbtest.NewTestDB(types.PostgreSQL)
	db.ExpectQuery("SELECT").WillReturnRows(dbtest.NewRowSet("a").AddRow(1).AddRow(2))
	conn := openFake(t, db)

	_, err := QueryValue(context.Background(), conn, Text("SELECT a FROM t"))
	assert.ErrorIs(t, err, ErrMultipleRows)

	// the connection stays usable
	_, err = QueryColumn(context.Background(), conn, Text("SELECT a FROM t"))
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	dbtest.AssertAllClosed(t, db)
}

func TestQueryDriverFault(t *testing.T) {
	db := dbtest.NewTestDB(types.PostgreSQL)
	db.ExpectQuery("SELECT").WillReturnError(errors.New("permission denied"))

	_, err := QueryRow(context.Background(), openFake(t, db), Text("SELECT * FROM secrets"))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindExecutionFault, e.Kind)
	assert.Equal(t, "query_row", e.Op)
}

func TestExportQueryCSVFile(t *testing.T) {
	t.Run("invalid path checked before execution", func(t *testing.T) {
		db := dbtest.NewTestDB(types.PostgreSQL)
		err := ExportQueryCSVFile(context.Background(), openFake(t, db), Text(selectCustomers), "", true)

		assert.ErrorIs(t, err, ErrInvalidOutputPath)
		dbtest.AssertNothingExecuted(t, db)
	})

	t.Run("writes the file", func(t *testing.T) {
		db := dbtest.NewTestDB(types.PostgreSQL)
		db.ExpectQuery("SELECT").WillReturnRows(dbtest.NewRowSet("name").AddRow("Alice"))
		path := filepath.Join(t.TempDir(), "customers.csv")

		require.NoError(t, ExportQueryCSVFile(context.Background(), openFake(t, db), Text(selectCustomers), path, false, WithCRLF()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "Alice", string(data))
	})
}

func TestOpenVariants(t *testing.T) {
	ctx := context.Background()

	t.Run("open and close around each call", func(t *testing.T) {
		db := dbtest.NewTestDB(types.MySQL)
		db.ExpectQuery("SELECT 1").WillReturnRows(dbtest.NewRowSet("v").AddRow(int64(1)))
		db.ExpectQuery("SELECT id").WillReturnRows(dbtest.NewRowSet("id").AddRow(int64(1)))
		db.ExpectQuery("SELECT name").WillReturnRows(dbtest.NewRowSet("name").AddRow("a"))
		db.ExpectExec("UPDATE").WillReturnRowsAffected(7)

		v, err := OpenQueryValue(ctx, db, "dsn-1", Text("SELECT 1"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		row, err := OpenQueryRow(ctx, db, "dsn-2", Text("SELECT id FROM t"))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": int64(1)}, row)

		col, err := OpenQueryColumn(ctx, db, "dsn-3", Text("SELECT name FROM t"))
		require.NoError(t, err)
		assert.Equal(t, []any{"a"}, col)

		n, err := OpenExec(ctx, db, "dsn-4", Text("UPDATE t SET x = 1"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)

		n, err = OpenExecuteBatch(ctx, db, "dsn-5", "UPDATE t SET x = 1\nGO\nUPDATE t SET x = 2", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(14), n)

		path := filepath.Join(t.TempDir(), "out.csv")
		require.NoError(t, OpenExportCSVFile(ctx, db, "dsn-6", Text("SELECT name FROM t"), path, true))

		assert.Equal(t, []string{"dsn-1", "dsn-2", "dsn-3", "dsn-4", "dsn-5", "dsn-6"}, db.OpenedWith())
		dbtest.AssertAllClosed(t, db)
	})

	t.Run("open failure", func(t *testing.T) {
		db := dbtest.NewTestDB(types.MySQL).WillFailOpen(errors.New("access denied"))

		_, err := OpenExec(ctx, db, "dsn", Text("UPDATE t SET x = 1"))

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, KindExecutionFault, e.Kind)
		assert.Equal(t, "open", e.Op)
	})

	t.Run("operation error wins over close error", func(t *testing.T) {
		db := dbtest.NewTestDB(types.MySQL)
		db.ExpectQuery("SELECT").WillReturnRows(dbtest.NewRowSet("v"))
		drv := &closeFailingDriver{TestDB: db}

		_, err := OpenQueryValue(ctx, drv, "dsn", Text("SELECT v FROM t"))
		assert.ErrorIs(t, err, ErrNoRows)
	})

	t.Run("close error reported after success", func(t *testing.T) {
		db := dbtest.NewTestDB(types.MySQL)
		db.ExpectExec("UPDATE").WillReturnRowsAffected(1)
		drv := &closeFailingDriver{TestDB: db}

		n, err := OpenExec(ctx, drv, "dsn", Text("UPDATE t SET x = 1"))
		assert.Zero(t, n)
		assert.ErrorIs(t, err, ErrExecutionFault)
		assert.ErrorContains(t, err, "broken pipe")
	})

	t.Run("preconditions checked before opening", func(t *testing.T) {
		db := dbtest.NewTestDB(types.MySQL)

		_, err := OpenExecuteBatch(ctx, db, "dsn", "GO", 0)
		assert.ErrorIs(t, err, ErrEmptyBatch)

		err = OpenExportCSVFile(ctx, db, "dsn", Text("SELECT 1"), t.TempDir(), true)
		assert.ErrorIs(t, err, ErrInvalidOutputPath)

		assert.Empty(t, db.OpenedWith())
	})
}

// closeFailingDriver opens connections whose Close fails.
type closeFailingDriver struct {
	*dbtest.TestDB
}

func (d *closeFailingDriver) Open(_ context.Context, connectionString string) (types.Connection, error) {
	conn, err := d.OpenConnection(connectionString)
	if err != nil {
		return nil, err
	}
	return conn.WillFailClose(errors.New("broken pipe")), nil
}

func TestOpenExportCSV(t *testing.T) {
	db := dbtest.NewTestDB(types.SQLite)
	db.ExpectQuery("SELECT").WillReturnRows(dbtest.NewRowSet("a", "b").AddRow(1, "x,y"))

	var buf bytes.Buffer
	require.NoError(t, OpenExportCSV(context.Background(), db, "dsn", Text("SELECT a, b FROM t"), &buf, true, WithCRLF()))

	assert.Equal(t, "a,b\r\n1,\"x,y\"", buf.String())
	dbtest.AssertAllClosed(t, db)
}
