// Package statemachine provides an immutable, guard-aware transition table.
//
// Unlike an in-memory machine that owns its current state, a Table is
// evaluated against a state supplied by the caller. This fits records whose
// state lives in a database: load the record, fire an event, persist the
// returned state.
//
//	const (
//	    Trial  = statemachine.StringState("trial")
//	    Active = statemachine.StringState("active")
//	    Pay    = statemachine.StringEvent("pay")
//	)
//
//	table := statemachine.MustNew(
//	    statemachine.WithTransition(Trial, Active, Pay),
//	)
//
//	next, err := table.Fire(ctx, Trial, Pay, nil) // next == Active
//
// Guards veto transitions based on runtime data; the first transition whose
// guards all pass wins, so several transitions may share a from/event pair
// and act as ordered branches.
//
// Unknown state/event pairs fail with ErrNoTransition and vetoed ones with
// ErrTransitionRejected; both are wrapped with the state and event names.
package statemachine
