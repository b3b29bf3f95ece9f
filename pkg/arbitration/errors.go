package arbitration

import (
	"errors"
	"fmt"
)

// ErrSessionLimit is returned by StartSession when the number of active
// sessions has reached the configured maximum.
var ErrSessionLimit = errors.New("maximum concurrent sessions reached")

// ErrVerdictExists is returned by GenerateVerdict when the session
// already carries a verdict.
var ErrVerdictExists = errors.New("verdict already generated")

// ErrWaiversDisabled is returned when the waiver sub-lifecycle is
// disabled by configuration.
var ErrWaiversDisabled = errors.New("waivers are disabled")

// ErrAppealsDisabled is returned when the appeal sub-lifecycle is
// disabled by configuration.
var ErrAppealsDisabled = errors.New("appeals are disabled")

// SessionNotFoundError indicates that no session exists for the given
// id.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.SessionID)
}

// StateError indicates that an operation is illegal in the session's
// current state. The session is left untouched.
type StateError struct {
	// SessionID is the session the operation targeted.
	SessionID string

	// Op names the rejected operation.
	Op string

	// State is the session state at the time of the call.
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.State)
}

// NoVerdictError indicates that a waiver or appeal operation was
// attempted on a session that has no verdict yet.
type NoVerdictError struct {
	SessionID string
}

func (e *NoVerdictError) Error() string {
	return fmt.Sprintf("session %s has no verdict", e.SessionID)
}
