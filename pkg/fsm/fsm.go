// Package fsm implements a small finite state machine used to track the state of a pipeline register
package fsm

import (
	"fmt"
	"sort"
)

// State is a named state of the machine
type State string

// Machine is a basic finite state machine.  Transitions must be declared up front with
// WithTransitions; self transitions are not implied and must be declared too.
type Machine struct {
	current   State
	initial   State
	allowable map[State]map[State]struct{}
}

// NewMachine returns a machine starting in initial.  Without options the machine has no
// allowable transitions.
func NewMachine(initial State, opts ...MachineOption) (*Machine, error) {
	if initial == "" {
		return nil, TransitionNotAllowed{Msg: "initial state must be named"}
	}
	m := &Machine{
		current:   initial,
		initial:   initial,
		allowable: map[State]map[State]struct{}{},
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// Allowable reports whether the edge from -> to was declared
func (m *Machine) Allowable(from, to State) bool {
	_, ok := m.allowable[from][to]
	return ok
}

// States returns every state named by the initial state or a declared edge, sorted
func (m *Machine) States() []State {
	seen := map[State]struct{}{m.initial: {}}
	for from, tos := range m.allowable {
		seen[from] = struct{}{}
		for to := range tos {
			seen[to] = struct{}{}
		}
	}
	out := make([]State, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Transition moves the machine to the state to if the edge is allowable
func (m *Machine) Transition(to State) error {
	if !m.Allowable(m.current, to) {
		return TransitionNotAllowed{Msg: fmt.Sprintf("cannot transition from state %s to %s", m.current, to)}
	}
	m.current = to
	return nil
}

// Reset returns the machine to its initial state
func (m *Machine) Reset() {
	m.current = m.initial
}

func (m *Machine) allow(t Transition) error {
	if t.From == "" || t.To == "" {
		return TransitionNotAllowed{Msg: fmt.Sprintf("transition %q -> %q has an unnamed state", t.From, t.To)}
	}
	tos, ok := m.allowable[t.From]
	if !ok {
		tos = map[State]struct{}{}
		m.allowable[t.From] = tos
	}
	tos[t.To] = struct{}{}
	return nil
}
