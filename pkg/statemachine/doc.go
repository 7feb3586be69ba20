// Package statemachine provides declarative transition tables for records
// whose state lives in storage rather than in memory.
//
// A Table maps (state, event) pairs to a target state, optionally gated by
// Guards and accompanied by Actions. It keeps no current state: the caller
// loads a record, asks the table where the event leads, and persists the
// returned state. One table therefore serves every record of a kind and is
// safe for concurrent use.
//
// # Usage
//
//	const (
//	    Pending = statemachine.StringState("pending")
//	    Active  = statemachine.StringState("active")
//	    Expired = statemachine.StringState("expired")
//
//	    Activate = statemachine.StringEvent("activate")
//	    Expire   = statemachine.StringEvent("expire")
//	)
//
//	table := statemachine.MustNew(
//	    statemachine.WithTransition(Pending, Active, Activate),
//	    statemachine.WithTransition(Active, Expired, Expire),
//	)
//
//	next, err := table.Fire(ctx, record.State, Expire, record)
//
// Guards veto a transition based on the data passed to Fire; the first
// transition whose guards all pass wins, so several transitions may share a
// (state, event) pair to express branching.
//
// # Errors
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* event not allowed in this state */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* guards said no */ }
package statemachine
