//go:build integration

package mysql_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dbshape/database"
	"github.com/gaborage/dbshape/database/internal/containers"
	"github.com/gaborage/dbshape/database/mysql"
	"github.com/gaborage/dbshape/database/types"
)

const ordersSchema = `CREATE TABLE orders (
	id INT PRIMARY KEY,
	customer VARCHAR(50) NOT NULL,
	total DOUBLE,
	note VARCHAR(50)
)
GO
INSERT INTO orders (id, customer, total, note) VALUES (1, 'alice', 10.5, NULL)
GO
INSERT INTO orders (id, customer, total, note) VALUES (2, 'bob', 20, 'rush')
GO
CREATE PROCEDURE add_order(IN p_id INT, IN p_customer VARCHAR(50))
	INSERT INTO orders (id, customer, total) VALUES (p_id, p_customer, 0)`

// setupTestConnection starts MySQL, opens a connection and loads the orders schema.
func setupTestConnection(t *testing.T) (types.Connection, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	db := containers.StartMySQL(ctx, t)
	dsn, err := mysql.DSN(&db.Config)
	require.NoError(t, err)

	conn, err := mysql.NewDriver().Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	n, err := database.ExecuteBatch(ctx, conn, ordersSchema, nil, 30)
	require.NoError(t, err, "Should create orders schema")
	assert.Equal(t, int64(2), n)
	return conn, ctx
}

func TestMySQLIntegration(t *testing.T) {
	conn, ctx := setupTestConnection(t)

	t.Run("query value", func(t *testing.T) {
		v, err := database.QueryValue(ctx, conn, database.Text(
			"SELECT COUNT(*) FROM orders WHERE total >= @min",
			database.MustParameter("@min", 15.0)))
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	})

	t.Run("query row with repeated parameter", func(t *testing.T) {
		row, err := database.QueryRow(ctx, conn, database.Text(
			"SELECT id, customer, note FROM orders WHERE id = @id AND @id > 0",
			database.MustParameter("@id", 1)))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": int64(1), "customer": "alice", "note": nil}, row)
	})

	t.Run("query column", func(t *testing.T) {
		col, err := database.QueryColumn(ctx, conn, database.Text("SELECT customer FROM orders ORDER BY id"))
		require.NoError(t, err)
		assert.Equal(t, []any{"alice", "bob"}, col)
	})

	t.Run("export csv", func(t *testing.T) {
		var buf bytes.Buffer
		err := database.ExportQueryCSV(ctx, conn, database.Text("SELECT id, customer, note FROM orders ORDER BY id"), &buf, true)
		require.NoError(t, err)
		assert.Equal(t, "id,customer,note\n1,alice,\n2,bob,rush", buf.String())
	})

	t.Run("stored procedure", func(t *testing.T) {
		_, err := database.Exec(ctx, conn, database.StoredProcedure("add_order",
			database.MustParameter("@id", 3),
			database.MustParameter("@customer", "carol")))
		require.NoError(t, err)

		v, err := database.QueryValue(ctx, conn, database.Text("SELECT customer FROM orders WHERE id = 3"))
		require.NoError(t, err)
		assert.Equal(t, "carol", v)
	})

	t.Run("output parameters are rejected", func(t *testing.T) {
		out := &types.Parameter{Name: "@total", Direction: types.DirectionOutput, Type: types.DbTypeInt64}
		_, err := database.Exec(ctx, conn, database.StoredProcedure("add_order", out))
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrUnsupportedParameter)
	})
}
