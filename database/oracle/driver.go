// Package oracle provides the Oracle driver for dbshape, backed by the pure Go go-ora client.
package oracle

import (
	go_ora "github.com/sijms/go-ora/v2" // also registers the "oracle" database/sql driver

	"github.com/gaborage/dbshape/config"
	"github.com/gaborage/dbshape/database/sqladapter"
	"github.com/gaborage/dbshape/database/types"
)

const (
	defaultPort = 1521

	// defaultOutputSize is the buffer reserved for output parameters declared without a size.
	defaultOutputSize = 4000
)

// Dialect binds @name parameters as :name, supports output parameters and calls
// procedures through an anonymous PL/SQL block.
var Dialect = sqladapter.Dialect{
	Name:              types.Oracle,
	SQLDriver:         "oracle",
	Placeholder:       sqladapter.PlaceholderNamed,
	NamedPrefix:       ":",
	OutputParameters:  true,
	ProcedureCall:     sqladapter.BeginEndBlock,
	ZonelessTimeTypes: []string{"DATE", "TIMESTAMP"},
	NumericTextTypes:  []string{"NUMBER"},
	OutArg:            outArg,
}

// outArg binds output parameters as go_ora.Out so character and raw outputs get a buffer size.
func outArg(dest any, p *types.Parameter) any {
	size := int(p.Size)
	if size == 0 {
		size = defaultOutputSize
	}
	return go_ora.Out{Dest: dest, Size: size, In: p.Direction == types.DirectionInputOutput}
}

// NewDriver returns the Oracle driver.
func NewDriver() *sqladapter.Driver {
	return sqladapter.New(Dialect)
}

// DSN returns the connection string for cfg. An explicit connection string wins;
// otherwise an oracle:// URL is built, addressing ServiceName or, failing that, Database.
func DSN(cfg *config.DatabaseConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	service := cfg.ServiceName
	if service == "" {
		service = cfg.Database
	}
	var opts map[string]string
	if cfg.SSLMode != "" && cfg.SSLMode != "disable" {
		opts = map[string]string{"SSL": "enable"}
	}
	return go_ora.BuildUrl(cfg.Host, port, service, cfg.Username, cfg.Password, opts)
}
