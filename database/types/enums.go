//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

// ConnectionState reports whether a connection can accept commands.
type ConnectionState int

const (
	StateClosed ConnectionState = iota
	StateOpen
	StateBroken
)

// String allow string conversion to ConnectionState
func (s ConnectionState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// CommandKind tells the driver how to interpret the command text.
type CommandKind int

const (
	// KindText is a plain SQL statement.
	KindText CommandKind = iota
	// KindStoredProcedure is the name of a stored procedure.
	KindStoredProcedure
	// KindTableDirect is the name of a table whose rows are returned in full.
	KindTableDirect
)

func (k CommandKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindStoredProcedure:
		return "stored_procedure"
	case KindTableDirect:
		return "table_direct"
	default:
		return "unknown"
	}
}

// ParameterDirection describes the flow of a parameter value.
type ParameterDirection int

const (
	DirectionInput ParameterDirection = iota
	DirectionOutput
	DirectionInputOutput
	DirectionReturnValue
)

func (d ParameterDirection) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	case DirectionInputOutput:
		return "input_output"
	case DirectionReturnValue:
		return "return_value"
	default:
		return "unknown"
	}
}

// DbType is the provider-independent type tag of a parameter.
// DbTypeAuto lets the driver infer the type from the value.
type DbType int

const (
	DbTypeAuto DbType = iota
	DbTypeString
	DbTypeInt32
	DbTypeInt64
	DbTypeDecimal
	DbTypeDouble
	DbTypeBoolean
	DbTypeDateTime
	DbTypeBinary
	DbTypeGUID
	DbTypeRefCursor
)

var dbTypeNames = [...]string{
	DbTypeAuto:      "auto",
	DbTypeString:    "string",
	DbTypeInt32:     "int32",
	DbTypeInt64:     "int64",
	DbTypeDecimal:   "decimal",
	DbTypeDouble:    "double",
	DbTypeBoolean:   "boolean",
	DbTypeDateTime:  "datetime",
	DbTypeBinary:    "binary",
	DbTypeGUID:      "guid",
	DbTypeRefCursor: "ref_cursor",
}

func (t DbType) String() string {
	if t < 0 || int(t) >= len(dbTypeNames) {
		return "unknown"
	}
	return dbTypeNames[t]
}
