package stat

import (
	"github.com/sallywang147/ETU/pkg/fsm"
	"github.com/sallywang147/ETU/pkg/metric"
)

// Output is the stage result for the input latched one step earlier.  EarlyTerminate is
// always false when Valid is false.
type Output struct {
	Valid          bool
	EarlyTerminate bool
}

// Stage wraps an Evaluator in a one step pipeline register.  The result for the input given
// to Step at step T is returned by Step at step T+1, never earlier and never later.  A Stage
// is one register and is not safe for concurrent use; evaluate different neurons with
// different stages sharing one Evaluator.
type Stage struct {
	eval     *Evaluator
	reg      Output
	machine  *fsm.Machine
	counters *metric.StageCounters
}

// StageOption configures a stage
type StageOption func(s *Stage) error

// WithCounters records every step in c.  Counters may be shared between stages.
func WithCounters(c *metric.StageCounters) StageOption {
	return func(s *Stage) error {
		s.counters = c
		return nil
	}
}

// NewStage returns a stage in its reset state
func NewStage(e *Evaluator, opts ...StageOption) (*Stage, error) {
	if e == nil {
		return nil, WidthError{Msg: "stage requires an evaluator"}
	}
	machine, err := newMachine(pipeline...)
	if err != nil {
		return nil, err
	}
	s := &Stage{eval: e, machine: machine}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Step latches in and returns the output register as it was before this step, which is the
// result for the input given to the previous Step
func (s *Stage) Step(in Input) Output {
	out, _ := s.StepTrace(in)
	return out
}

// StepTrace is Step that also returns the intermediates of the evaluation it latched.  The
// trace belongs to in, not to the returned output, and is zero for an invalid input.
func (s *Stage) StepTrace(in Input) (Output, Trace) {
	out := s.reg

	next, to := Output{}, Idle
	var t Trace
	if in.Valid {
		t = s.eval.Trace(in)
		next, to = Output{Valid: true, EarlyTerminate: t.EarlyTerminate}, ResultPending
	}
	s.reg = next
	if err := s.machine.Transition(to); err != nil {
		// unreachable, newMachine rejects incomplete tables
		s.eval.log.Error().Err(err).Msg("pipeline state")
	}

	if c := s.counters; c != nil {
		c.Steps.Inc()
		switch {
		case !in.Valid:
			c.Invalid.Inc()
		case t.Degenerate:
			c.Valid.Inc()
			c.Degenerate.Inc()
		default:
			c.Valid.Inc()
		}
		if next.EarlyTerminate {
			c.EarlyTerminate.Inc()
		}
	}
	return out, t
}

// Output returns the register without stepping, i.e. what the next Step will return
func (s *Stage) Output() Output {
	return s.reg
}

// State returns Idle or ResultPending
func (s *Stage) State() fsm.State {
	return s.machine.State()
}

// Evaluator returns the evaluator behind the stage
func (s *Stage) Evaluator() *Evaluator {
	return s.eval
}

// Reset clears the register to an invalid, non-terminating output regardless of any input
func (s *Stage) Reset() {
	s.reg = Output{}
	s.machine.Reset()
}
