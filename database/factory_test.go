package database

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dbshape/config"
	"github.com/gaborage/dbshape/logger"
)

const errUnsupportedVendor = "unsupported database vendor"

func TestValidateVendor(t *testing.T) {
	for _, vendor := range []string{"postgresql", "oracle", "mysql", "sqlite"} {
		t.Run(vendor, func(t *testing.T) {
			assert.NoError(t, ValidateVendor(vendor))
		})
	}

	err := ValidateVendor("mongodb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), errUnsupportedVendor+": mongodb")
	assert.Equal(t, []string{PostgreSQL, Oracle, MySQL, SQLite}, SupportedVendors())
}

func TestNewDriver(t *testing.T) {
	for _, vendor := range SupportedVendors() {
		t.Run(vendor, func(t *testing.T) {
			drv, err := NewDriver(&config.DatabaseConfig{Vendor: vendor}, logger.Nop(), nil)
			require.NoError(t, err)
			assert.Equal(t, vendor, drv.Name())
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		drv, err := NewDriver(&config.DatabaseConfig{Vendor: "db2"}, logger.Nop(), nil)
		assert.Nil(t, drv)
		assert.ErrorContains(t, err, errUnsupportedVendor)
	})
}

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "explicit wins",
			cfg:  config.DatabaseConfig{Vendor: SQLite, ConnectionString: "file:test.db", Database: "other.db"},
			want: "file:test.db",
		},
		{
			name: "sqlite file",
			cfg:  config.DatabaseConfig{Vendor: SQLite, Database: "orders.db"},
			want: "orders.db",
		},
		{
			name: "postgresql fields",
			cfg:  config.DatabaseConfig{Vendor: PostgreSQL, Host: "db", Database: "app", Username: "u", Password: "p"},
			want: "host=db port=5432 user=u password=p dbname=app",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConnectionString(&tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	mysqlDSN, err := ConnectionString(&config.DatabaseConfig{Vendor: MySQL, Host: "db", Database: "app", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Contains(t, mysqlDSN, "u:p@tcp(db:3306)/app")
	assert.Contains(t, mysqlDSN, "parseTime=true")

	oracleDSN, err := ConnectionString(&config.DatabaseConfig{Vendor: Oracle, Host: "db", ServiceName: "ORCL", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Contains(t, oracleDSN, "oracle://")
	assert.Contains(t, oracleDSN, "db:1521/ORCL")

	_, err = ConnectionString(&config.DatabaseConfig{Vendor: "db2"})
	assert.ErrorContains(t, err, errUnsupportedVendor)
}

func TestNewDriverTracksSQLiteExecutions(t *testing.T) {
	var logs bytes.Buffer
	cfg := &config.DatabaseConfig{Vendor: SQLite, Database: ":memory:"}
	drv, err := NewDriver(cfg, logger.NewWithWriter(&logs, "debug", false, nil), nil)
	require.NoError(t, err)
	dsn, err := ConnectionString(cfg)
	require.NoError(t, err)

	v, err := OpenQueryValue(context.Background(), drv, dsn, Text("SELECT @a + 1", MustParameter("@a", 41)))
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)

	assert.Contains(t, logs.String(), "Database command executed")
	assert.Contains(t, logs.String(), "execution_id")
}
