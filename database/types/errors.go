//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import "errors"

// Sentinel errors returned by driver implementations.
// These can be used with errors.Is() for programmatic error checking.
var (
	// ErrUnsupportedParameter is returned by Command.AddParameter when the driver
	// cannot represent the parameter's type, direction or value.
	ErrUnsupportedParameter = errors.New("parameter not supported by driver")

	// ErrCommandClosed is returned when a closed command is used again.
	ErrCommandClosed = errors.New("command is closed")

	// ErrCursorClosed is returned when a closed cursor is advanced.
	ErrCursorClosed = errors.New("cursor is closed")

	// ErrCursorOpen is returned when a second cursor is requested on a connection
	// that still has one outstanding.
	ErrCursorOpen = errors.New("connection already has an open cursor")

	// ErrConnectionClosed is returned when a closed connection is used.
	ErrConnectionClosed = errors.New("connection is closed")
)
