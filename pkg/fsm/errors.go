package fsm

// TransitionNotAllowed is returned when a transition edge was never declared
type TransitionNotAllowed struct {
	Msg string
}

func (e TransitionNotAllowed) Error() string {
	return e.Msg
}
