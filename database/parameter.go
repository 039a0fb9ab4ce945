package database

import (
	"fmt"

	"github.com/gaborage/dbshape/database/types"
)

// ParameterOption customises a parameter created by NewParameter.
type ParameterOption func(*types.Parameter)

// WithDirection sets the parameter direction (default input).
func WithDirection(d types.ParameterDirection) ParameterOption {
	return func(p *types.Parameter) { p.Direction = d }
}

// WithType sets the provider-independent type tag (default DbTypeAuto).
func WithType(t types.DbType) ParameterOption {
	return func(p *types.Parameter) { p.Type = t }
}

// WithSize sets the parameter size, e.g. the maximum length of a string output parameter.
func WithSize(size uint32) ParameterOption {
	return func(p *types.Parameter) { p.Size = size }
}

// WithPrecision sets precision and scale for decimal parameters.
func WithPrecision(precision, scale uint8) ParameterOption {
	return func(p *types.Parameter) {
		p.Precision = precision
		p.Scale = scale
	}
}

// WithNullable marks the parameter as accepting NULL on drivers that track it.
func WithNullable() ParameterOption {
	return func(p *types.Parameter) { p.Nullable = true }
}

// NewParameter validates name and returns a parameter holding value.
// A nil value is stored as types.DBNull.
func NewParameter(name string, value any, opts ...ParameterOption) (*types.Parameter, error) {
	if err := ValidateParameterName(name); err != nil {
		return nil, err
	}
	p := &types.Parameter{
		Name:      name,
		Direction: types.DirectionInput,
		Value:     value,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.Value == nil {
		p.Value = types.DBNull
	}
	return p, nil
}

// MustParameter is NewParameter for statically known names; it panics on an invalid name.
func MustParameter(name string, value any, opts ...ParameterOption) *types.Parameter {
	p, err := NewParameter(name, value, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// ValidateParameterName checks the '@' naming convention: at least two characters,
// a leading '@', and ASCII letters or digits for the rest.
func ValidateParameterName(name string) error {
	if len(name) < 2 {
		return &Error{
			Kind:      KindInvalidParameterName,
			Op:        "parameter",
			Parameter: name,
			Message:   fmt.Sprintf("parameter name %q must be at least 2 characters", name),
		}
	}
	if name[0] != '@' {
		return &Error{
			Kind:      KindInvalidParameterName,
			Op:        "parameter",
			Parameter: name,
			Message:   fmt.Sprintf("parameter name %q must start with '@'", name),
		}
	}
	for i := 1; i < len(name); i++ {
		if !isAlphanumeric(name[i]) {
			return &Error{
				Kind:      KindInvalidParameterName,
				Op:        "parameter",
				Parameter: name,
				Message:   fmt.Sprintf("parameter name %q may only contain letters and digits after '@'", name),
			}
		}
	}
	return nil
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
