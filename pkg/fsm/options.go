package fsm

// MachineOption configures a machine at construction
type MachineOption func(m *Machine) error

// WithTransitions declares edges using the T(from, to...) shorthand, for example
// `NewMachine(Idle, WithTransitions(T(Idle, Idle, Busy), T(Busy, Idle)))`
func WithTransitions(transitions ...[]Transition) MachineOption {
	return func(m *Machine) error {
		for _, t := range flatten(transitions) {
			if err := m.allow(t); err != nil {
				return err
			}
		}
		return nil
	}
}
