// Package mysql provides the MySQL driver for dbshape, backed by go-sql-driver/mysql.
package mysql

import (
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/gaborage/dbshape/config"
	"github.com/gaborage/dbshape/database/sqladapter"
	"github.com/gaborage/dbshape/database/types"
)

const defaultPort = 3306

// Dialect binds @name parameters as positional '?' and calls procedures with CALL.
// Output parameters are not supported by the MySQL driver.
var Dialect = sqladapter.Dialect{
	Name:              types.MySQL,
	SQLDriver:         "mysql",
	Placeholder:       sqladapter.PlaceholderQuestion,
	ProcedureCall:     sqladapter.CallStatement,
	ZonelessTimeTypes: []string{"DATETIME", "DATE", "TIMESTAMP"},
	TextTypes:         []string{"CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "SET", "JSON", "DECIMAL"},
}

// NewDriver returns the MySQL driver.
func NewDriver() *sqladapter.Driver {
	return sqladapter.New(Dialect)
}

// DSN returns the go-sql-driver DSN for cfg. An explicit connection string is
// parsed and re-emitted; either way parseTime is forced on so temporal columns
// scan as time values.
func DSN(cfg *config.DatabaseConfig) (string, error) {
	var mc *mysql.Config
	if cfg.ConnectionString != "" {
		parsed, err := mysql.ParseDSN(cfg.ConnectionString)
		if err != nil {
			return "", fmt.Errorf("failed to parse MySQL config: %w", err)
		}
		mc = parsed
	} else {
		port := cfg.Port
		if port == 0 {
			port = defaultPort
		}
		mc = mysql.NewConfig()
		mc.User = cfg.Username
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		mc.DBName = cfg.Database
		if cfg.SSLMode != "" && cfg.SSLMode != "disable" {
			mc.TLSConfig = tlsConfig(cfg.SSLMode)
		}
	}
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}

// tlsConfig maps libpq-style sslmode values onto go-sql-driver tls names.
func tlsConfig(sslMode string) string {
	switch sslMode {
	case "require", "allow", "prefer":
		return "skip-verify"
	case "verify-ca", "verify-full":
		return "true"
	default:
		return sslMode
	}
}
