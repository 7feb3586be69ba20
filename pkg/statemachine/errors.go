package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("statemachine: transition needs from, to and event")
	ErrInvalidEvent      = errors.New("statemachine: nil event")
	ErrInvalidState      = errors.New("statemachine: nil state")

	// ErrNoTransition matches a TransitionError for an event that is not
	// allowed in the state at all.
	ErrNoTransition = errors.New("statemachine: no transition")
	// ErrRejected matches a TransitionError where every candidate
	// transition was vetoed by its guards.
	ErrRejected = errors.New("statemachine: rejected by guards")
)

// TransitionError reports a Fire that did not move the record.
type TransitionError struct {
	State    string
	Event    string
	Rejected bool
}

func (e *TransitionError) Error() string {
	if e.Rejected {
		return fmt.Sprintf("statemachine: %s on %s rejected by guards", e.Event, e.State)
	}
	return fmt.Sprintf("statemachine: no transition from %s on %s", e.State, e.Event)
}

func (e *TransitionError) Is(target error) bool {
	return (target == ErrRejected && e.Rejected) || (target == ErrNoTransition && !e.Rejected)
}

func IsNoTransitionAvailableError(err error) bool { return errors.Is(err, ErrNoTransition) }

func IsTransitionRejectedError(err error) bool { return errors.Is(err, ErrRejected) }
