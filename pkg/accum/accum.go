// Package accum is a reference upstream accumulator.  It folds fixed-point samples of one
// neuron into the running sum, running sum of squares and sample count presented to the
// early termination stage, refusing any sample that would overflow a port width.
package accum

import (
	"fmt"
	"math/bits"

	"github.com/sallywang147/ETU/pkg/stat"
)

// OverflowError is returned when a sample would not fit the configured port widths.  The
// accumulator is left unchanged.
type OverflowError struct {
	Msg string
}

func (e OverflowError) Error() string {
	return e.Msg
}

// Neuron accumulates the statistics of a single neuron
type Neuron struct {
	widths stat.Widths
	sum    int64
	sumSq  uint64
	n      uint64
}

// New returns an empty accumulator for the given widths
func New(w stat.Widths) (*Neuron, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Neuron{widths: w}, nil
}

// Add folds one sample in.  Samples must themselves fit the value width.
func (a *Neuron) Add(x int64) error {
	w := a.widths
	if x < w.MinCumVal() || x > w.MaxCumVal() {
		return OverflowError{Msg: fmt.Sprintf("sample %d does not fit %d bits", x, w.Value)}
	}
	if a.n == w.MaxCount() {
		return OverflowError{Msg: fmt.Sprintf("sample count would exceed %d bits", w.Count)}
	}
	sum := a.sum + x
	if sum < w.MinCumVal() || sum > w.MaxCumVal() {
		return OverflowError{Msg: fmt.Sprintf("running sum %d does not fit %d bits", sum, w.Value)}
	}
	mag := uint64(x)
	if x < 0 {
		mag = uint64(-x)
	}
	sumSq, carry := bits.Add64(a.sumSq, mag*mag, 0)
	if carry != 0 || sumSq > w.MaxCumSq() {
		return OverflowError{Msg: fmt.Sprintf("running sum of squares does not fit %d bits", w.SumSq)}
	}

	a.sum, a.sumSq, a.n = sum, sumSq, a.n+1
	return nil
}

// N returns the number of samples folded in
func (a *Neuron) N() uint64 {
	return a.n
}

// Input returns the current statistics as a valid stage input
func (a *Neuron) Input(boundSq uint64) stat.Input {
	return stat.Input{
		Valid:   true,
		CumVal:  a.sum,
		CumSq:   a.sumSq,
		N:       a.n,
		BoundSq: boundSq,
	}
}

// Reset discards every sample
func (a *Neuron) Reset() {
	a.sum, a.sumSq, a.n = 0, 0, 0
}
