package statemachine

import "fmt"

// Option configures a machine during construction.
type Option[S, E comparable] func(*Machine[S, E])

// New creates a machine in the initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m := newMachine[S, E](initial)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTransition adds a single transition.
func WithTransition[S, E comparable](from, to S, event E, guards ...Guard[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		clean := make([]Guard[S, E], 0, len(guards))
		for _, g := range guards {
			if g != nil {
				clean = append(clean, g)
			}
		}
		m.addTransition(Transition[S, E]{From: from, To: to, Event: event, Guards: clean})
	}
}

// WithTransitionsFrom adds the same event/target pair for every listed source state.
func WithTransitionsFrom[S, E comparable](froms []S, to S, event E) Option[S, E] {
	return func(m *Machine[S, E]) {
		for _, from := range froms {
			m.addTransition(Transition[S, E]{From: from, To: to, Event: event})
		}
	}
}

// WithHook registers a hook called after every successful transition.
func WithHook[S, E comparable](h Hook[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
	}
}

// Describe renders the transition table, one "from --event--> to" per line.
// Order follows map iteration and is not stable.
func (m *Machine[S, E]) Describe() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var lines []string
	for from, byEvent := range m.transitions {
		for event, ts := range byEvent {
			for _, t := range ts {
				lines = append(lines, fmt.Sprintf("%v --%v--> %v", from, event, t.To))
			}
		}
	}
	return lines
}
