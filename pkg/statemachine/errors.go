package statemachine

import (
	"errors"
	"fmt"
)

// NoTransitionError indicates no transition exists for the state/event pair.
type NoTransitionError struct {
	State any
	Event any
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition available from state '%v' for event '%v'", e.State, e.Event)
}

// RejectedError indicates every candidate transition was vetoed by a guard.
type RejectedError struct {
	State any
	Event any
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transition from state '%v' for event '%v' was rejected by guards", e.State, e.Event)
}

func IsNoTransition(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

func IsRejected(err error) bool {
	var e *RejectedError
	return errors.As(err, &e)
}
