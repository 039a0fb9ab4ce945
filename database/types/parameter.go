//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

// Parameter is a provider-independent command parameter.
// Size, Precision and Scale are optional; zero means "not set".
type Parameter struct {
	Name      string
	Direction ParameterDirection
	Type      DbType
	Size      uint32
	Precision uint8
	Scale     uint8
	Nullable  bool
	Value     any
}

// IsOutput reports whether the driver must reserve space for a value written back by the database.
func (p *Parameter) IsOutput() bool {
	return p.Direction != DirectionInput
}

// Placeholder returns the parameter name without the leading '@'.
func (p *Parameter) Placeholder() string {
	if len(p.Name) > 0 && p.Name[0] == '@' {
		return p.Name[1:]
	}
	return p.Name
}

// dbNull is the type of DBNull.
type dbNull struct{}

func (dbNull) String() string { return "DBNull" }

// DBNull is the explicit "database null" parameter value.
// It is distinct from a parameter being absent from the command.
var DBNull any = dbNull{}

// IsDBNull reports whether v is the DBNull sentinel.
func IsDBNull(v any) bool {
	_, ok := v.(dbNull)
	return ok
}
