package oracle

import (
	"database/sql"
	"net/url"
	"testing"

	go_ora "github.com/sijms/go-ora/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dbshape/config"
	"github.com/gaborage/dbshape/database/types"
)

func TestDSNUsesServiceName(t *testing.T) {
	dsn := DSN(&config.DatabaseConfig{
		Host:        "ora.internal",
		Username:    "app",
		Password:    "secret",
		ServiceName: "ORCLPDB1",
		Database:    "ignored",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "oracle", u.Scheme)
	assert.Equal(t, "ora.internal:1521", u.Host)
	assert.Equal(t, "/ORCLPDB1", u.Path)
	assert.Equal(t, "app", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "secret", pw)
}

func TestDSNFallsBackToDatabase(t *testing.T) {
	dsn := DSN(&config.DatabaseConfig{Host: "ora", Port: 1522, Database: "XE", Username: "u", Password: "p", SSLMode: "require"})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "ora:1522", u.Host)
	assert.Equal(t, "/XE", u.Path)
	assert.Equal(t, "enable", u.Query().Get("SSL"))
}

func TestDSNPrefersConnectionString(t *testing.T) {
	assert.Equal(t, "oracle://u:p@h:1521/S", DSN(&config.DatabaseConfig{ConnectionString: "oracle://u:p@h:1521/S", Host: "x"}))
}

func TestNewDriver(t *testing.T) {
	d := NewDriver()
	assert.Equal(t, types.Oracle, d.Name())
	assert.True(t, d.Dialect().OutputParameters)
	assert.Equal(t, "BEGIN pkg.run(:a, :b); END;", d.Dialect().ProcedureCall("pkg.run", []string{":a", ":b"}))
}

func TestOutArgReservesBuffer(t *testing.T) {
	dest := new(sql.NullString)

	arg := Dialect.OutArg(dest, &types.Parameter{Name: "@name", Direction: types.DirectionOutput, Type: types.DbTypeString})
	out, ok := arg.(go_ora.Out)
	require.True(t, ok)
	assert.Same(t, dest, out.Dest)
	assert.Equal(t, defaultOutputSize, out.Size)
	assert.False(t, out.In)

	arg = Dialect.OutArg(dest, &types.Parameter{Name: "@n", Direction: types.DirectionInputOutput, Size: 12})
	out = arg.(go_ora.Out)
	assert.Equal(t, 12, out.Size)
	assert.True(t, out.In)
}
