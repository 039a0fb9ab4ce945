package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gaborage/dbshape/database/types"
)

// Command describes one executable unit: text, kind, parameters and execution options.
// It is a plain value built per call; BuildCommand turns it into a driver command.
type Command struct {
	Text string
	Kind types.CommandKind

	// Parameters are bound in order. Nil entries are skipped.
	Parameters []*types.Parameter

	// TimeoutSeconds is passed to the driver. Zero means the driver default (no limit).
	TimeoutSeconds int

	// Prepare asks the driver to precompile the command before execution.
	Prepare bool

	// Transaction, when set, must be active and bound to the connection the command runs on.
	Transaction types.Transaction
}

// Text is shorthand for a plain SQL command with optional parameters.
func Text(sql string, params ...*types.Parameter) Command {
	return Command{Text: sql, Kind: types.KindText, Parameters: params}
}

// StoredProcedure is shorthand for a stored procedure call.
func StoredProcedure(name string, params ...*types.Parameter) Command {
	return Command{Text: name, Kind: types.KindStoredProcedure, Parameters: params}
}

// TableDirect is shorthand for reading every row of a table.
func TableDirect(table string) Command {
	return Command{Text: table, Kind: types.KindTableDirect}
}

// BuildCommand validates cmd against conn and returns a configured driver command.
// The caller owns the returned command and must close it.
//
// Preconditions (connection state, text, timeout, transaction binding, parameter
// names) are checked before the driver is asked for a command object. Input parameters
// with a nil value are bound as a copy carrying types.DBNull; cmd's descriptors are
// never modified. If anything fails after the command object was created, it is closed
// before the error is returned.
func BuildCommand(ctx context.Context, conn types.Connection, cmd Command) (types.Command, error) {
	const op = "build"

	if err := validateCommand(op, conn, &cmd); err != nil {
		return nil, err
	}

	dc, err := conn.CreateCommand()
	if err != nil {
		return nil, executionFault(op, err)
	}

	if err := configureCommand(ctx, op, dc, &cmd); err != nil {
		// The configuration error wins over anything Close reports.
		_ = dc.Close()
		return nil, err
	}
	return dc, nil
}

func validateCommand(op string, conn types.Connection, cmd *Command) error {
	if conn == nil {
		return newError(op, KindInvalidConnectionState, "connection is nil")
	}
	if state := conn.State(); state != types.StateOpen {
		return newError(op, KindInvalidConnectionState, fmt.Sprintf("connection is %s, must be open", state))
	}
	if strings.TrimSpace(cmd.Text) == "" {
		return newError(op, KindInvalidCommandText, "command text is empty")
	}
	if cmd.TimeoutSeconds < 0 {
		return &Error{
			Kind:     KindInvalidTimeout,
			Op:       op,
			Message:  fmt.Sprintf("timeout %d must be zero or positive", cmd.TimeoutSeconds),
			Expected: 0,
			Actual:   cmd.TimeoutSeconds,
		}
	}
	if cmd.Transaction != nil {
		txConn := cmd.Transaction.Connection()
		if txConn == nil {
			return newError(op, KindInvalidTransaction, "transaction has no connection (already committed or rolled back)")
		}
		if !SameConnection(txConn, conn) {
			return newError(op, KindTransactionConnectionMismatch, "transaction belongs to a different connection")
		}
	}
	for _, p := range cmd.Parameters {
		if p == nil {
			continue
		}
		if err := ValidateParameterName(p.Name); err != nil {
			var e *Error
			if errors.As(err, &e) {
				e.Op = op
			}
			return err
		}
	}
	return nil
}

func configureCommand(ctx context.Context, op string, dc types.Command, cmd *Command) error {
	dc.SetText(cmd.Text)
	dc.SetKind(cmd.Kind)
	dc.SetTimeout(cmd.TimeoutSeconds)

	if cmd.Transaction != nil {
		if err := dc.SetTransaction(cmd.Transaction); err != nil {
			return &Error{Kind: KindInvalidTransaction, Op: op, Message: "driver rejected transaction", Err: err}
		}
	}

	nb, nullable := dc.(types.NullableBinder)
	for _, p := range cmd.Parameters {
		if p == nil {
			continue
		}
		if err := dc.AddParameter(bindable(p)); err != nil {
			return &Error{
				Kind:      KindIncompatibleParameterProvider,
				Op:        op,
				Parameter: p.Name,
				DbType:    p.Type,
				Message:   fmt.Sprintf("driver rejected parameter %s of type %s", p.Name, p.Type),
				Err:       err,
			}
		}
		if nullable && p.Nullable {
			if err := nb.SetNullable(p.Name, true); err != nil {
				return &Error{
					Kind:      KindIncompatibleParameterProvider,
					Op:        op,
					Parameter: p.Name,
					DbType:    p.Type,
					Message:   fmt.Sprintf("driver rejected nullability of parameter %s", p.Name),
					Err:       err,
				}
			}
		}
	}

	if cmd.Prepare {
		if pr, ok := dc.(types.Preparer); ok {
			if err := pr.Prepare(ctx); err != nil {
				return &Error{Kind: KindCommandPreparationFailed, Op: op, Message: "driver failed to prepare command", Err: err}
			}
		}
	}
	return nil
}

// bindable returns the parameter handed to the driver. An input parameter with
// no value is bound as a copy carrying DBNull; output parameters keep the
// caller's descriptor so values can be written back.
func bindable(p *types.Parameter) *types.Parameter {
	if p.Value != nil || p.IsOutput() {
		return p
	}
	bound := *p
	bound.Value = types.DBNull
	return &bound
}

// SameConnection reports whether a and b are the same connection once any
// decorators (connections exposing Unwrap() types.Connection) are peeled off.
func SameConnection(a, b types.Connection) bool {
	return unwrapConnection(a) == unwrapConnection(b)
}

func unwrapConnection(c types.Connection) types.Connection {
	for {
		u, ok := c.(interface{ Unwrap() types.Connection })
		if !ok {
			return c
		}
		inner := u.Unwrap()
		if inner == nil {
			return c
		}
		c = inner
	}
}
