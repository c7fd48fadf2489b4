package statemachine

import (
	"sync"
)

// Guard decides at fire time whether a transition may proceed.
type Guard[S, E comparable] func(from S, event E) bool

// Hook observes a completed transition. Hooks run after the state has
// changed and without the machine lock held, so they may query the machine.
type Hook[S, E comparable] func(from, to S, event E)

// Transition defines a state change triggered by an event.
type Transition[S, E comparable] struct {
	From   S
	To     S
	Event  E
	Guards []Guard[S, E] // All must pass for the transition to proceed
}

// Machine is a thread-safe finite state machine over comparable state and
// event types. Transitions are looked up by [from][event]; when several
// transitions share a key the first one whose guards pass wins.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	initial     S
	current     S
	transitions map[S]map[E][]Transition[S, E]
	hooks       []Hook[S, E]
}

func newMachine[S, E comparable](initial S) *Machine[S, E] {
	return &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
	}
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the current state is one of states.
func (m *Machine[S, E]) Is(states ...S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range states {
		if m.current == s {
			return true
		}
	}
	return false
}

func (m *Machine[S, E]) addTransition(t Transition[S, E]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
}

// Fire applies event to the current state and returns the resulting state.
func (m *Machine[S, E]) Fire(event E) (S, error) {
	m.mu.Lock()
	from := m.current
	t, err := m.lookup(from, event)
	if err != nil {
		m.mu.Unlock()
		return from, err
	}
	m.current = t.To
	hooks := m.hooks
	m.mu.Unlock()

	for _, h := range hooks {
		h(from, t.To, event)
	}
	return t.To, nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine[S, E]) CanFire(event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.lookup(m.current, event)
	return err == nil
}

// Reset returns the machine to its initial state without running hooks.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	m.current = m.initial
	m.mu.Unlock()
}

// lookup must be called with m.mu held.
func (m *Machine[S, E]) lookup(from S, event E) (*Transition[S, E], error) {
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return nil, &NoTransitionError{State: from, Event: event}
	}

	for i, t := range candidates {
		passed := true
		for _, g := range t.Guards {
			if !g(from, event) {
				passed = false
				break
			}
		}
		if passed {
			return &candidates[i], nil
		}
	}
	return nil, &RejectedError{State: from, Event: event}
}
