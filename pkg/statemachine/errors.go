package statemachine

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid transition: from, to, or event cannot be nil")
	ErrInvalidEvent      = errors.New("invalid event: state and event cannot be nil")

	// ErrNoTransition is returned when the table has no entry for the state and event.
	ErrNoTransition = errors.New("no transition available")

	// ErrTransitionRejected is returned when every candidate transition was vetoed by a guard.
	ErrTransitionRejected = errors.New("transition rejected by guards")
)
