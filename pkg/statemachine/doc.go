// Package statemachine implements a small generic finite state machine.
//
// States and events are any comparable types, typically string-backed
// enums declared by the caller:
//
//	type Phase string
//	type Trigger string
//
//	m := statemachine.New[Phase, Trigger]("idle",
//	    statemachine.WithTransition[Phase, Trigger]("idle", "connecting", "connect"),
//	    statemachine.WithHook[Phase, Trigger](func(from, to Phase, ev Trigger) { log.Println(from, "->", to) }),
//	)
//	next, err := m.Fire("connect")
//
// Fire returns *NoTransitionError when the pair is not defined and
// *RejectedError when guards vetoed every candidate. Hooks run after the
// state is updated, outside the lock.
package statemachine
