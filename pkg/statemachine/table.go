package statemachine

import (
	"context"
	"fmt"
)

// Table is an immutable transition table.
// Lookups use a nested map [fromState][event][]Transition. A table is
// never modified after construction, so it is safe for concurrent use
// without locking.
type Table struct {
	transitions map[string]map[string][]Transition
	order       map[string][]Event // events per state in registration order
}

func newTable() *Table {
	return &Table{
		transitions: make(map[string]map[string][]Transition),
		order:       make(map[string][]Event),
	}
}

func (t *Table) add(tr Transition) error {
	if tr.From == nil || tr.To == nil || tr.Event == nil {
		return ErrInvalidTransition
	}

	from := tr.From.Name()
	event := tr.Event.Name()

	if _, ok := t.transitions[from]; !ok {
		t.transitions[from] = make(map[string][]Transition)
	}
	if _, seen := t.transitions[from][event]; !seen {
		t.order[from] = append(t.order[from], tr.Event)
	}

	// Multiple transitions allowed for same from/event to support guard-based branching
	t.transitions[from][event] = append(t.transitions[from][event], tr)
	return nil
}

// Fire runs guards and actions for the event fired in state from and
// returns the target state. The caller is responsible for storing it.
func (t *Table) Fire(ctx context.Context, from State, event Event, data any) (State, error) {
	if event == nil {
		return nil, ErrInvalidEvent
	}
	if from == nil {
		return nil, ErrInvalidState
	}

	candidates := t.transitions[from.Name()][event.Name()]
	if len(candidates) == 0 {
		return nil, &TransitionError{State: from.Name(), Event: event.Name()}
	}

	tr := firstAllowed(ctx, candidates, from, event, data)
	if tr == nil {
		return nil, &TransitionError{State: from.Name(), Event: event.Name(), Rejected: true}
	}

	for _, action := range tr.Actions {
		if err := action(ctx, from, tr.To, event, data); err != nil {
			return nil, fmt.Errorf("action failed: %w", err)
		}
	}

	return tr.To, nil
}

// CanFire reports whether Fire would find a transition whose guards pass.
// Actions are not executed.
func (t *Table) CanFire(ctx context.Context, from State, event Event, data any) bool {
	if from == nil || event == nil {
		return false
	}
	return firstAllowed(ctx, t.transitions[from.Name()][event.Name()], from, event, data) != nil
}

// Events returns the events defined for a state, ignoring guards.
func (t *Table) Events(from State) []Event {
	if from == nil {
		return nil
	}
	return append([]Event(nil), t.order[from.Name()]...)
}

// IsTerminal reports whether no event leaves the state.
func (t *Table) IsTerminal(state State) bool {
	return len(t.Events(state)) == 0
}

// First transition with passing guards wins (enables priority ordering)
func firstAllowed(ctx context.Context, candidates []Transition, from State, event Event, data any) *Transition {
	for i, tr := range candidates {
		allowed := true
		for _, guard := range tr.Guards {
			if !guard(ctx, from, event, data) {
				allowed = false
				break
			}
		}
		if allowed {
			return &candidates[i]
		}
	}
	return nil
}
