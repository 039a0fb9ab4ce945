// Package sqladapter implements the dbshape driver capability on top of database/sql.
// Vendor packages (postgresql, oracle, mysql, sqlite) only supply a Dialect and a DSN.
package sqladapter

import (
	"slices"
	"strings"

	"github.com/gaborage/dbshape/database/types"
)

// PlaceholderStyle is how a vendor spells bind parameters.
type PlaceholderStyle int

const (
	// PlaceholderQuestion rewrites every @name occurrence to "?" (MySQL).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar rewrites @name to $n, numbered by first occurrence (PostgreSQL).
	PlaceholderDollar
	// PlaceholderNamed keeps names and binds sql.Named arguments; Dialect.NamedPrefix
	// replaces '@' (":" for Oracle, "@" for SQLite).
	PlaceholderNamed
)

// Dialect captures the per-vendor differences the adapter cares about.
type Dialect struct {
	// Name is the vendor identifier reported by Driver.Name.
	Name string

	// SQLDriver is the database/sql driver name passed to sql.Open.
	SQLDriver string

	Placeholder PlaceholderStyle
	NamedPrefix string

	// OutputParameters reports whether the driver supports sql.Out bindings.
	OutputParameters bool

	// ProcedureCall renders the statement that invokes a stored procedure with the
	// given (already rewritten) placeholders. Nil means stored procedures are unsupported.
	ProcedureCall func(name string, placeholders []string) string

	// ZonelessTimeTypes lists DatabaseTypeName values (upper case) whose time values
	// carry no zone; cursors report them as types.DateTime with kind unspecified.
	ZonelessTimeTypes []string

	// TextTypes lists DatabaseTypeName values (upper case) whose []byte values are
	// character data; cursors return them as strings.
	TextTypes []string

	// NumericTextTypes lists DatabaseTypeName values (upper case) the driver returns
	// as decimal text; cursors return integral values as int64 and keep the rest as text.
	NumericTextTypes []string

	// OutArg wraps the destination of an output parameter into the driver's
	// argument type. Nil means sql.Out.
	OutArg func(dest any, p *types.Parameter) any

	// TimeLayout, when set, binds time values as text in this layout. The engine
	// must be able to parse the layout back when reading typed columns.
	TimeLayout string
}

// CallStatement renders "CALL name(a, b)", the ANSI form used by PostgreSQL and MySQL.
func CallStatement(name string, placeholders []string) string {
	return "CALL " + name + "(" + strings.Join(placeholders, ", ") + ")"
}

// BeginEndBlock renders "BEGIN name(a, b); END;", the PL/SQL anonymous block form.
func BeginEndBlock(name string, placeholders []string) string {
	return "BEGIN " + name + "(" + strings.Join(placeholders, ", ") + "); END;"
}

func (d Dialect) zoneless(typeName string) bool {
	return slices.Contains(d.ZonelessTimeTypes, strings.ToUpper(typeName))
}

func (d Dialect) text(typeName string) bool {
	return slices.Contains(d.TextTypes, strings.ToUpper(typeName))
}

func (d Dialect) numericText(typeName string) bool {
	return slices.Contains(d.NumericTextTypes, strings.ToUpper(typeName))
}
