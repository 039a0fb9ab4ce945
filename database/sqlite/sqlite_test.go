package sqlite_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dbshape/config"
	"github.com/gaborage/dbshape/database"
	"github.com/gaborage/dbshape/database/sqlite"
	"github.com/gaborage/dbshape/database/types"
)

const ordersBatch = `
CREATE TABLE orders (
    id       INTEGER PRIMARY KEY,
    customer TEXT NOT NULL,
    total    REAL,
    note     TEXT,
    placed   DATETIME
)
GO
INSERT INTO orders VALUES (1, 'ada', 12.5, 'He said "hi", twice', '2024-01-02 03:04:05')
go
INSERT INTO orders VALUES (2, 'bob', 7, NULL, '2024-02-03 04:05:06')
GO
`

func openOrders(t *testing.T) types.Connection {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewDriver().Open(ctx, sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	n, err := database.ExecuteBatch(ctx, conn, ordersBatch, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	return conn
}

func TestShapesAgainstSQLite(t *testing.T) {
	conn := openOrders(t)
	ctx := context.Background()

	count, err := database.QueryValue(ctx, conn, database.Text("SELECT COUNT(*) FROM orders"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	customer, err := database.QueryValue(ctx, conn, database.Text(
		"SELECT customer FROM orders WHERE id = @id", database.MustParameter("@id", 2)))
	require.NoError(t, err)
	assert.Equal(t, "bob", customer)

	row, err := database.QueryRow(ctx, conn, database.Text(
		`SELECT id, customer AS " Customer ", note FROM orders WHERE id = @id AND @id > 0`,
		database.MustParameter("@id", 2)))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(2), "customer": "bob", "note": nil}, row)

	customers, err := database.QueryColumn(ctx, conn, database.Text("SELECT customer FROM orders ORDER BY id"))
	require.NoError(t, err)
	assert.Equal(t, []any{"ada", "bob"}, customers)
}

func TestShapeViolationsAgainstSQLite(t *testing.T) {
	conn := openOrders(t)
	ctx := context.Background()

	_, err := database.QueryValue(ctx, conn, database.Text("SELECT id FROM orders WHERE id > 100"))
	assert.ErrorIs(t, err, database.ErrNoRows)

	_, err = database.QueryValue(ctx, conn, database.Text("SELECT id FROM orders"))
	assert.ErrorIs(t, err, database.ErrMultipleRows)

	_, err = database.QueryColumn(ctx, conn, database.Text("SELECT id, customer FROM orders"))
	assert.ErrorIs(t, err, database.ErrMultipleColumns)

	_, err = database.QueryRow(ctx, conn, database.Text("SELECT id, id AS ID FROM orders WHERE id = 1"))
	assert.ErrorIs(t, err, database.ErrDuplicateColumnName)

	// The connection stays usable after every failure above.
	_, err = database.QueryValue(ctx, conn, database.Text("SELECT 1"))
	assert.NoError(t, err)
}

func TestExportCSVAgainstSQLite(t *testing.T) {
	conn := openOrders(t)
	ctx := context.Background()
	cmd := database.Text("SELECT id, customer, total, note, placed FROM orders ORDER BY id")

	var buf bytes.Buffer
	require.NoError(t, database.ExportQueryCSV(ctx, conn, cmd, &buf, true))
	assert.Equal(t,
		"id,customer,total,note,placed\n"+
			`1,ada,12.5,"He said ""hi"", twice",2024-01-02 03:04:05.000`+"\n"+
			"2,bob,7,,2024-02-03 04:05:06.000",
		buf.String())

	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, database.ExportQueryCSVFile(ctx, conn, database.Text("SELECT customer FROM orders ORDER BY id"), path, false, database.WithCRLF()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ada\r\nbob", string(data))

	buf.Reset()
	err = database.ExportQueryCSV(ctx, conn, database.Text("UPDATE orders SET total = total"), &buf, true)
	assert.ErrorIs(t, err, database.ErrNoResultSet)
}

func TestTimeParametersRoundTripAgainstSQLite(t *testing.T) {
	conn := openOrders(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "unnamed fixed zone", value: time.Date(2024, 1, 2, 3, 4, 5, 678e6, time.FixedZone("", 2*3600)), want: "2024-01-02 03:04:05.678"},
		{name: "utc", value: time.Date(2024, 1, 2, 3, 4, 5, 678e6, time.UTC), want: "2024-01-02 03:04:05.678"},
		{name: "unspecified datetime", value: types.DateTime{Time: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)}, want: "2024-05-06 07:08:09.000"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := int64(100 + i)
			_, err := database.Exec(ctx, conn, database.Text(
				"INSERT INTO orders (id, customer, placed) VALUES (@id, 'tz', @placed)",
				database.MustParameter("@id", id), database.MustParameter("@placed", tt.value)))
			require.NoError(t, err)

			placed, err := database.QueryValue(ctx, conn, database.Text(
				"SELECT placed FROM orders WHERE id = @id", database.MustParameter("@id", id)))
			require.NoError(t, err)
			require.IsType(t, types.DateTime{}, placed)
			assert.Equal(t, tt.want, database.FormatCSVValue(placed))
		})
	}
}

func TestBatchFailureReportsStatementAgainstSQLite(t *testing.T) {
	conn := openOrders(t)
	ctx := context.Background()

	_, err := database.ExecuteBatch(ctx, conn, "UPDATE orders SET total = 0\nGO\nINSERT INTO missing VALUES (1)\nGO\nDELETE FROM orders", nil, 0)

	var dbErr *database.Error
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, database.KindExecutionFault, dbErr.Kind)
	assert.Equal(t, 2, dbErr.Statement)

	// The third statement never ran.
	count, err := database.QueryValue(ctx, conn, database.Text("SELECT COUNT(*) FROM orders"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTransactionRollbackAgainstSQLite(t *testing.T) {
	conn := openOrders(t)
	ctx := context.Background()

	tx, err := conn.(types.Beginner).Begin(ctx)
	require.NoError(t, err)

	n, err := database.ExecuteBatch(ctx, conn, "DELETE FROM orders WHERE id = 1\nGO\nDELETE FROM orders WHERE id = 2", tx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	inside, err := database.QueryValue(ctx, conn, database.Command{Text: "SELECT COUNT(*) FROM orders", Transaction: tx})
	require.NoError(t, err)
	assert.Equal(t, int64(0), inside)

	require.NoError(t, tx.Rollback())

	_, err = database.Exec(ctx, conn, database.Command{Text: "DELETE FROM orders", Transaction: tx})
	assert.ErrorIs(t, err, database.ErrInvalidTransaction)

	after, err := database.QueryValue(ctx, conn, database.Text("SELECT COUNT(*) FROM orders"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), after)
}

func TestPreparedAndParameterisedCommandsAgainstSQLite(t *testing.T) {
	conn := openOrders(t)
	ctx := context.Background()

	n, err := database.Exec(ctx, conn, database.Command{
		Text: "INSERT INTO orders (id, customer, note) VALUES (@id, @customer, @note)",
		Parameters: []*types.Parameter{
			database.MustParameter("@id", 3, database.WithType(types.DbTypeInt32)),
			database.MustParameter("@customer", "cy", database.WithType(types.DbTypeString)),
			database.MustParameter("@note", nil, database.WithNullable()),
		},
		Prepare: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	note, err := database.QueryValue(ctx, conn, database.Text("SELECT note FROM orders WHERE id = 3"))
	require.NoError(t, err)
	assert.Nil(t, note)

	_, err = database.Exec(ctx, conn, database.Text("SELECT @x",
		database.MustParameter("@x", 1, database.WithDirection(types.DirectionOutput))))
	assert.ErrorIs(t, err, database.ErrIncompatibleParameterProvider)

	_, err = database.Exec(ctx, conn, database.StoredProcedure("refresh_totals"))
	assert.Equal(t, database.KindExecutionFault, database.KindOf(err))
}

func TestOpenVariantsAgainstSQLiteFile(t *testing.T) {
	ctx := context.Background()
	dsn := sqlite.DSN(&config.DatabaseConfig{Database: filepath.Join(t.TempDir(), "orders.db")})
	drv := sqlite.NewDriver()

	n, err := database.OpenExecuteBatch(ctx, drv, dsn, ordersBatch, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	total, err := database.OpenQueryValue(ctx, drv, dsn, database.Text("SELECT SUM(total) FROM orders"))
	require.NoError(t, err)
	assert.Equal(t, 19.5, total)

	row, err := database.OpenQueryRow(ctx, drv, dsn, database.Text("SELECT customer FROM orders WHERE id = 1"))
	require.NoError(t, err)
	assert.Equal(t, "ada", row["customer"])

	ids, err := database.OpenQueryColumn(ctx, drv, dsn, database.TableDirect("orders"))
	require.ErrorIs(t, err, database.ErrMultipleColumns)
	assert.Nil(t, ids)

	deleted, err := database.OpenExec(ctx, drv, dsn, database.Text("DELETE FROM orders WHERE id = @id", database.MustParameter("@id", 1)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	out := filepath.Join(t.TempDir(), "rest.csv")
	require.NoError(t, database.OpenExportCSVFile(ctx, drv, dsn, database.Text("SELECT id, customer FROM orders"), out, true))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "id,customer\n2,bob", string(data))
}
