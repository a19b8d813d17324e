package lifecycle

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("lifecycle: transition needs from, to and event")

// NoTransitionError reports that the current state has no transition for the event.
type NoTransitionError struct {
	State State
	Event Event
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("lifecycle: no transition from %q on %q", e.State, e.Event)
}

// RejectedError reports that guards blocked every candidate transition.
type RejectedError struct {
	State State
	Event Event
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("lifecycle: transition from %q on %q rejected by guards", e.State, e.Event)
}

func IsNoTransition(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

func IsRejected(err error) bool {
	var e *RejectedError
	return errors.As(err, &e)
}
