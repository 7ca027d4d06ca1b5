package eventbus

// EventType tells subscribers how to interpret Data
type EventType string

// Event is delivered to every subscriber of the topics it is dispatched on
type Event struct {
	Type EventType
	Data interface{}
}

// NewEvent returns an event of type t carrying data
func NewEvent(t EventType, data interface{}) Event {
	return Event{Type: t, Data: data}
}
