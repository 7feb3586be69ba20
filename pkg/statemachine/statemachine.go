package statemachine

import (
	"context"
)

// State is a named status of a stored record.
type State interface{ Name() string }

// Event is a named trigger.
type Event interface{ Name() string }

// Action runs when its transition is taken; an error aborts Fire.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard vetoes a transition by returning false.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Transition moves From to To on Event when every guard passes.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

type StringState string

func (s StringState) Name() string { return string(s) }

type StringEvent string

func (e StringEvent) Name() string { return string(e) }
