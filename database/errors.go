package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gaborage/dbshape/database/types"
)

// ErrorKind identifies one enumerable failure condition.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota

	// Preconditions: malformed caller input, detected before any driver call.
	KindInvalidCommandText
	KindInvalidTimeout
	KindInvalidConnectionState
	KindInvalidTransaction
	KindTransactionConnectionMismatch
	KindInvalidParameterName
	KindEmptyBatch
	KindInvalidOutputPath

	// Shape violations: the executed result did not match the requested shape.
	KindNoRows
	KindMultipleRows
	KindMultipleColumns
	KindDuplicateColumnName
	KindNoResultSet

	// Driver faults.
	KindIncompatibleParameterProvider
	KindCommandPreparationFailed
	KindExecutionFault
)

var kindNames = [...]string{
	KindUnknown:                       "unknown",
	KindInvalidCommandText:            "invalid_command_text",
	KindInvalidTimeout:                "invalid_timeout",
	KindInvalidConnectionState:        "invalid_connection_state",
	KindInvalidTransaction:            "invalid_transaction",
	KindTransactionConnectionMismatch: "transaction_connection_mismatch",
	KindInvalidParameterName:          "invalid_parameter_name",
	KindEmptyBatch:                    "empty_batch",
	KindInvalidOutputPath:             "invalid_output_path",
	KindNoRows:                        "no_rows",
	KindMultipleRows:                  "multiple_rows",
	KindMultipleColumns:               "multiple_columns",
	KindDuplicateColumnName:           "duplicate_column_name",
	KindNoResultSet:                   "no_result_set",
	KindIncompatibleParameterProvider: "incompatible_parameter_provider",
	KindCommandPreparationFailed:      "command_preparation_failed",
	KindExecutionFault:                "execution_fault",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Category groups error kinds by who is at fault.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryPrecondition
	CategoryShapeViolation
	CategoryDriverFault
)

func (c Category) String() string {
	switch c {
	case CategoryPrecondition:
		return "precondition"
	case CategoryShapeViolation:
		return "shape_violation"
	case CategoryDriverFault:
		return "driver_fault"
	default:
		return "unknown"
	}
}

// Category returns the category the kind belongs to.
func (k ErrorKind) Category() Category {
	switch {
	case k >= KindInvalidCommandText && k <= KindInvalidOutputPath:
		return CategoryPrecondition
	case k >= KindNoRows && k <= KindNoResultSet:
		return CategoryShapeViolation
	case k >= KindIncompatibleParameterProvider && k <= KindExecutionFault:
		return CategoryDriverFault
	default:
		return CategoryUnknown
	}
}

// Error is the structured error returned by every operation in this package.
// Callers branch on Kind (or errors.Is against the Err* sentinels) and read the
// detail fields instead of parsing messages.
type Error struct {
	Kind ErrorKind
	Op   string // operation that failed: "build", "single_value", "export_csv", ...

	Message string

	Parameter string       // offending parameter name
	DbType    types.DbType // declared type of the offending parameter
	Column    string       // offending column name
	Expected  int          // expected row/column count
	Actual    int          // observed row/column count (a lower bound for MultipleRows)
	Statement int          // 1-based statement index inside a batch, 0 when not batched

	Err error // underlying driver or I/O fault
}

// Error implements the error interface with lowercase formatting.
func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	if e.Op != "" {
		parts = append(parts, e.Op+":")
	}
	parts = append(parts, e.Kind.String()+":")
	if e.Statement > 0 {
		parts = append(parts, fmt.Sprintf("statement %d:", e.Statement))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	msg := strings.TrimSuffix(strings.Join(parts, " "), ":")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying fault.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the Err* sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Category returns the category of the error's kind.
func (e *Error) Category() Category {
	return e.Kind.Category()
}

// Sentinel errors for errors.Is checks. They carry only a kind.
var (
	ErrInvalidCommandText            = &Error{Kind: KindInvalidCommandText}
	ErrInvalidTimeout                = &Error{Kind: KindInvalidTimeout}
	ErrInvalidConnectionState        = &Error{Kind: KindInvalidConnectionState}
	ErrInvalidTransaction            = &Error{Kind: KindInvalidTransaction}
	ErrTransactionConnectionMismatch = &Error{Kind: KindTransactionConnectionMismatch}
	ErrInvalidParameterName          = &Error{Kind: KindInvalidParameterName}
	ErrEmptyBatch                    = &Error{Kind: KindEmptyBatch}
	ErrInvalidOutputPath             = &Error{Kind: KindInvalidOutputPath}
	ErrNoRows                        = &Error{Kind: KindNoRows}
	ErrMultipleRows                  = &Error{Kind: KindMultipleRows}
	ErrMultipleColumns               = &Error{Kind: KindMultipleColumns}
	ErrDuplicateColumnName           = &Error{Kind: KindDuplicateColumnName}
	ErrNoResultSet                   = &Error{Kind: KindNoResultSet}
	ErrIncompatibleParameterProvider = &Error{Kind: KindIncompatibleParameterProvider}
	ErrCommandPreparationFailed      = &Error{Kind: KindCommandPreparationFailed}
	ErrExecutionFault                = &Error{Kind: KindExecutionFault}
)

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(op string, kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// executionFault wraps a driver fault. Errors that already carry a kind pass through unchanged.
func executionFault(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindExecutionFault, Op: op, Err: err}
}

// closeInto closes c and reports its error through errp only when nothing failed
// before. It returns true when it set *errp.
func closeInto(op string, c interface{ Close() error }, errp *error) bool {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = &Error{Kind: KindExecutionFault, Op: op, Message: "close failed", Err: cerr}
		return true
	}
	return false
}
