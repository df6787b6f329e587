package slotgrid

import (
	"fmt"

	"github.com/abhisek/weekplan/internal/plan"
)

// InvalidMoveError reports a gesture that cannot be turned into a command.
// Nothing is mutated when it is returned.
type InvalidMoveError struct {
	Op     string
	Reason string
	Err    error
}

func (e *InvalidMoveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InvalidMoveError) Unwrap() error { return e.Err }

func invalid(op, format string, args ...any) *InvalidMoveError {
	return &InvalidMoveError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports two moves of one gesture landing on the same
// position of the same session.
type ConflictError struct {
	SessionID string
	Index     int
	SlotID    string // the move already holding the position
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting moves: position %d of session %s is already taken by slot %s",
		e.Index, e.SessionID, e.SlotID)
}

// InvalidTransitionError reports a session status change the lifecycle does
// not allow.
type InvalidTransitionError struct {
	SessionID string
	From, To  plan.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("session %s cannot go from %s to %s", e.SessionID, e.From, e.To)
}
