// Package postgresql provides the PostgreSQL driver for dbshape, backed by pgx's
// database/sql integration.
package postgresql

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/gaborage/dbshape/config"
	"github.com/gaborage/dbshape/database/sqladapter"
	"github.com/gaborage/dbshape/database/types"
)

const defaultPort = 5432

// Dialect binds @name parameters as $n and calls procedures with CALL.
var Dialect = sqladapter.Dialect{
	Name:              types.PostgreSQL,
	SQLDriver:         "pgx",
	Placeholder:       sqladapter.PlaceholderDollar,
	ProcedureCall:     sqladapter.CallStatement,
	ZonelessTimeTypes: []string{"TIMESTAMP", "DATE", "TIME"},
}

// NewDriver returns the PostgreSQL driver.
func NewDriver() *sqladapter.Driver {
	return sqladapter.New(Dialect)
}

// DSN returns the connection string for cfg. An explicit connection string wins;
// otherwise a libpq key/value string is assembled. The result is checked with pgx.
func DSN(cfg *config.DatabaseConfig) (string, error) {
	dsn := cfg.ConnectionString
	if dsn == "" {
		port := cfg.Port
		if port == 0 {
			port = defaultPort
		}
		parts := []string{
			fmt.Sprintf("host=%s", quoteDSN(cfg.Host)),
			fmt.Sprintf("port=%d", port),
			fmt.Sprintf("user=%s", quoteDSN(cfg.Username)),
			fmt.Sprintf("password=%s", quoteDSN(cfg.Password)),
			fmt.Sprintf("dbname=%s", quoteDSN(cfg.Database)),
		}
		if cfg.SSLMode != "" {
			parts = append(parts, fmt.Sprintf("sslmode=%s", quoteDSN(cfg.SSLMode)))
		}
		dsn = strings.Join(parts, " ")
	}

	if _, err := pgx.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}
	return dsn, nil
}

// quoteDSN quotes a value for a libpq key/value connection string. Empty values
// become '', and values with characters other than letters, digits, '.', '_' and
// '-' are single-quoted with backslashes and quotes escaped.
func quoteDSN(value string) string {
	if value == "" {
		return "''"
	}
	plain := strings.IndexFunc(value, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') && r != '.' && r != '_' && r != '-'
	}) < 0
	if plain {
		return value
	}
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "'", `\'`)
	return "'" + escaped + "'"
}
