package service

import "errors"

// Recoverable domain errors. Handlers match these with errors.As and map them
// to HTTP statuses; the caller is expected to show the condition to the human
// operator and retry with corrected input. Anything outside this taxonomy is
// an infrastructure failure and propagates as-is — financial transitions are
// never silently re-attempted.

// ValidationError: malformed or out-of-range input.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// StateError: the operation is invalid for the session's current status.
type StateError struct{ Msg string }

func (e *StateError) Error() string { return e.Msg }

// ConflictError: uniqueness violation (session already open).
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string { return e.Msg }

// AuthorizationError: the actor's role is insufficient for the transition.
type AuthorizationError struct{ Msg string }

func (e *AuthorizationError) Error() string { return e.Msg }

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("registro não encontrado")
