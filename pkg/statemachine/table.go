package statemachine

import (
	"context"
	"fmt"
)

// Table is an immutable transition table. It holds no current state: the
// caller passes the state it loaded from storage and persists the returned
// one, so a single Table is shared by every record and every goroutine.
type Table struct {
	// [fromState][event][]Transition
	transitions map[string]map[string][]Transition
}

// New builds a transition table from the given options.
func New(opts ...Option) (*Table, error) {
	t := &Table{transitions: make(map[string]map[string][]Transition)}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is like New but panics on invalid configuration.
func MustNew(opts ...Option) *Table {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return t
}

func (t *Table) add(from, to State, event Event, guards []Guard) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	fromName := from.Name()
	if _, ok := t.transitions[fromName]; !ok {
		t.transitions[fromName] = make(map[string][]Transition)
	}

	// Multiple transitions for the same from/event are evaluated in insertion order.
	t.transitions[fromName][event.Name()] = append(t.transitions[fromName][event.Name()], Transition{
		From:   from,
		To:     to,
		Event:  event,
		Guards: guards,
	})
	return nil
}

// Fire evaluates event against state from and returns the resulting state.
// The first transition whose guards all pass wins.
func (t *Table) Fire(ctx context.Context, from State, event Event, data any) (State, error) {
	if from == nil || event == nil {
		return nil, ErrInvalidEvent
	}

	transition, err := t.match(ctx, from, event, data)
	if err != nil {
		return nil, err
	}
	return transition.To, nil
}

// CanFire reports whether event would be accepted in state from.
func (t *Table) CanFire(ctx context.Context, from State, event Event, data any) bool {
	if from == nil || event == nil {
		return false
	}
	_, err := t.match(ctx, from, event, data)
	return err == nil
}

func (t *Table) match(ctx context.Context, from State, event Event, data any) (*Transition, error) {
	candidates := t.transitions[from.Name()][event.Name()]
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoTransition, from.Name(), event.Name())
	}

	for i := range candidates {
		if guardsPass(ctx, candidates[i].Guards, from, event, data) {
			return &candidates[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s on %s", ErrTransitionRejected, from.Name(), event.Name())
}

func guardsPass(ctx context.Context, guards []Guard, from State, event Event, data any) bool {
	for _, guard := range guards {
		if guard != nil && !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}
