// Package sqlite provides the SQLite driver for dbshape, backed by the pure Go
// modernc.org/sqlite engine. It needs no server, which makes it the driver of
// choice for local files and tests.
package sqlite

import (
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/gaborage/dbshape/config"
	"github.com/gaborage/dbshape/database/sqladapter"
	"github.com/gaborage/dbshape/database/types"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// TimeLayout is the text form time parameters are stored in. modernc.org/sqlite
// parses it back into time.Time for DATE, DATETIME and TIMESTAMP columns.
const TimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// Dialect keeps @name parameters as written and binds them by name.
// SQLite has no stored procedures.
var Dialect = sqladapter.Dialect{
	Name:              types.SQLite,
	SQLDriver:         "sqlite",
	Placeholder:       sqladapter.PlaceholderNamed,
	NamedPrefix:       "@",
	ZonelessTimeTypes: []string{"DATE", "DATETIME", "TIMESTAMP"},
	TimeLayout:        TimeLayout,
}

// NewDriver returns the SQLite driver.
func NewDriver() *sqladapter.Driver {
	return sqladapter.New(Dialect)
}

// DSN returns the connection string for cfg: the explicit connection string, or
// the database file path.
func DSN(cfg *config.DatabaseConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}
	return cfg.Database
}
