package database

import (
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/dbshape/config"
	"github.com/gaborage/dbshape/database/internal/tracking"
	"github.com/gaborage/dbshape/database/mysql"
	"github.com/gaborage/dbshape/database/oracle"
	"github.com/gaborage/dbshape/database/postgresql"
	"github.com/gaborage/dbshape/database/sqlite"
	"github.com/gaborage/dbshape/database/types"
	"github.com/gaborage/dbshape/logger"
)

// Re-export database vendor identifiers; the single source of truth lives in types.
const (
	PostgreSQL = types.PostgreSQL
	Oracle     = types.Oracle
	MySQL      = types.MySQL
	SQLite     = types.SQLite
)

// NewDriver returns the driver for cfg.Vendor wrapped with execution tracking.
// Executions are logged through log and recorded on mp; a nil mp uses the global
// OpenTelemetry meter provider.
func NewDriver(cfg *config.DatabaseConfig, log logger.Logger, mp metric.MeterProvider) (types.Driver, error) {
	var drv types.Driver

	switch cfg.Vendor {
	case PostgreSQL:
		drv = postgresql.NewDriver()
	case Oracle:
		drv = oracle.NewDriver()
	case MySQL:
		drv = mysql.NewDriver()
	case SQLite:
		drv = sqlite.NewDriver()
	default:
		return nil, unsupportedVendor(cfg.Vendor)
	}

	tracker := tracking.New(log, tracking.NewSettings(&cfg.Tracking), mp)
	return tracker.Wrap(drv), nil
}

// ConnectionString returns the vendor connection string for cfg: the configured
// connection string when set, otherwise one assembled from the discrete fields.
func ConnectionString(cfg *config.DatabaseConfig) (string, error) {
	switch cfg.Vendor {
	case PostgreSQL:
		return postgresql.DSN(cfg)
	case Oracle:
		return oracle.DSN(cfg), nil
	case MySQL:
		return mysql.DSN(cfg)
	case SQLite:
		return sqlite.DSN(cfg), nil
	default:
		return "", unsupportedVendor(cfg.Vendor)
	}
}

// ValidateVendor returns nil if vendor is one of the supported vendors.
func ValidateVendor(vendor string) error {
	if !slices.Contains(SupportedVendors(), vendor) {
		return unsupportedVendor(vendor)
	}
	return nil
}

// SupportedVendors returns a list of supported database vendors
func SupportedVendors() []string {
	return []string{PostgreSQL, Oracle, MySQL, SQLite}
}

func unsupportedVendor(vendor string) error {
	return fmt.Errorf("unsupported database vendor: %s (supported: %v)", vendor, SupportedVendors())
}
