package stat

import (
	"fmt"

	"github.com/sallywang147/ETU/pkg/fsm"
)

const (
	// Idle means the output register holds an invalid result, as after reset or after an
	// invalid input was latched
	Idle = fsm.State("idle")
	// ResultPending means the output register holds a valid decision that the next step
	// will present
	ResultPending = fsm.State("result_pending")
)

var pipeline = [][]fsm.Transition{
	fsm.T(Idle, Idle, ResultPending),
	fsm.T(ResultPending, Idle, ResultPending),
}

// every step re-enters one of the two states based only on the incoming valid bit, so every
// edge between known states must be declared
func newMachine(transitions ...[]fsm.Transition) (*fsm.Machine, error) {
	m, err := fsm.NewMachine(Idle, fsm.WithTransitions(transitions...))
	if err != nil {
		return nil, err
	}
	for _, from := range m.States() {
		for _, to := range m.States() {
			if !m.Allowable(from, to) {
				return nil, fsm.TransitionNotAllowed{Msg: fmt.Sprintf("pipeline table is missing %s -> %s", from, to)}
			}
		}
	}
	return m, nil
}
