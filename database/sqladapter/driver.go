package sqladapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gaborage/dbshape/database/types"
)

var (
	openSQLDB = func(driverName, dsn string) (*sql.DB, error) {
		return sql.Open(driverName, dsn)
	}
)

// Driver opens database/sql backed connections for one Dialect.
type Driver struct {
	dialect Dialect
}

// Ensure Driver implements the interface
var _ types.Driver = (*Driver)(nil)

// New returns a Driver for dialect. The dialect's SQLDriver must be registered
// with database/sql (normally by importing the vendor package).
func New(dialect Dialect) *Driver {
	return &Driver{dialect: dialect}
}

// Name returns the dialect name.
func (d *Driver) Name() string {
	return d.dialect.Name
}

// Dialect returns the dialect the driver binds with.
func (d *Driver) Dialect() Dialect {
	return d.dialect
}

// Open opens a dedicated single-connection pool for dsn and pins its connection.
// Closing the returned Connection closes the pool as well.
func (d *Driver) Open(ctx context.Context, dsn string) (types.Connection, error) {
	db, err := openSQLDB(d.dialect.SQLDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", d.dialect.Name, err)
	}
	// One physical session per Connection; pooling belongs to the caller.
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.dialect.Name, err)
	}

	return &Connection{dialect: d.dialect, db: db, conn: conn, state: types.StateOpen}, nil
}
