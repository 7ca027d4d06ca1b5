package metric

import "sync/atomic"

// Counter is a monotonically increasing counter safe for concurrent use.  The zero value is
// ready to use; a Counter must not be copied after first use.
type Counter struct {
	value atomic.Uint64
}

// Value returns the current count
func (c *Counter) Value() uint64 {
	return c.value.Load()
}

// Add increases the count by i
func (c *Counter) Add(i uint64) {
	c.value.Add(i)
}

// Inc increases the count by one
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Reset sets the count to zero
func (c *Counter) Reset() {
	c.value.Store(0)
}

// StageCounters records activity of one or more pipeline stages.  Stages evaluating different
// entities may share a single StageCounters.
type StageCounters struct {
	name Name

	// Steps counts every step, valid or not
	Steps Counter
	// Valid counts steps that latched a valid input
	Valid Counter
	// Invalid counts steps that latched an invalid input
	Invalid Counter
	// Degenerate counts valid inputs with no samples
	Degenerate Counter
	// EarlyTerminate counts valid inputs that decided to stop sampling
	EarlyTerminate Counter
}

// NewStageCounters returns zeroed counters reported under name
func NewStageCounters(name Name) *StageCounters {
	return &StageCounters{name: name}
}

// Reset zeroes every counter
func (s *StageCounters) Reset() {
	for _, c := range s.counters() {
		c.counter.Reset()
	}
}

// Metric returns the current counts keyed by the name annotated with the counter kind, e.g.
// etu_stage[neuron=7 value=early_terminate]
func (s *StageCounters) Metric() map[string]float64 {
	out := make(map[string]float64, 5)
	for _, c := range s.counters() {
		n := s.name.With("value", c.kind)
		out[n.String()] = float64(c.counter.Value())
	}
	return out
}

type kindCounter struct {
	kind    string
	counter *Counter
}

func (s *StageCounters) counters() []kindCounter {
	return []kindCounter{
		{kind: "steps", counter: &s.Steps},
		{kind: "valid", counter: &s.Valid},
		{kind: "invalid", counter: &s.Invalid},
		{kind: "degenerate", counter: &s.Degenerate},
		{kind: "early_terminate", counter: &s.EarlyTerminate},
	}
}
