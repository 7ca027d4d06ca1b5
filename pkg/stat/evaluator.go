// Package stat implements the early termination confidence test.  Given the running sum,
// running sum of squares and sample count of one neuron it estimates the mean and variance
// with fixed-width integer arithmetic and decides whether sampling can stop:
//
//	early_terminate = n * mean^2 < bound_sq * variance
//
// All arithmetic reproduces a fixed-width datapath: both divisions truncate toward zero and
// e_x2 and m2 are narrowed to the value width before their difference is taken.  The
// narrowing is lossy on purpose and Truncate mode reproduces it bit for bit.
package stat

import (
	"github.com/rs/zerolog"
)

// Input is one tuple presented to the stage.  Fields wider than their configured width are
// reduced the way a register port would see them: CumVal keeps its low value-width bits
// and is sign extended, the unsigned fields keep their low bits.
type Input struct {
	Valid   bool
	CumVal  int64
	CumSq   uint64
	N       uint64
	BoundSq uint64
}

// Trace holds every intermediate of one evaluation
type Trace struct {
	// Degenerate is set when n == 0.  Nothing else is computed and the decision is false.
	Degenerate bool
	Mean       int64
	MeanAbs    uint64
	M2         uint64
	EX2        uint64
	EX2Narrow  uint64
	M2Narrow   uint64
	Variance   uint64
	Left       Uint128
	Right      uint64

	EarlyTerminate bool
}

// Evaluator is the combinational part of the stage.  It is immutable and safe for
// concurrent use by any number of stages.
type Evaluator struct {
	widths Widths
	mode   Mode
	log    zerolog.Logger
}

// Option configures an evaluator
type Option func(e *Evaluator) error

// WithWidths sets the value, sum of squares and count widths
func WithWidths(value, sumSq, count uint) Option {
	return func(e *Evaluator) error {
		w := Widths{Value: value, SumSq: sumSq, Count: count}
		if err := w.Validate(); err != nil {
			return err
		}
		e.widths = w
		return nil
	}
}

// WithMode sets the narrowing mode
func WithMode(m Mode) Option {
	return func(e *Evaluator) error {
		if _, ok := modeNames[m]; !ok {
			return WidthError{Msg: "unknown narrowing mode " + m.String()}
		}
		e.mode = m
		return nil
	}
}

// WithLogger logs degenerate inputs at debug level and every trace at trace level
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) error {
		e.log = l
		return nil
	}
}

// New returns an evaluator using DefaultWidths and Truncate unless overridden
func New(opts ...Option) (*Evaluator, error) {
	e := &Evaluator{
		widths: DefaultWidths,
		mode:   Truncate,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Widths returns the configured port widths
func (e *Evaluator) Widths() Widths {
	return e.widths
}

// Mode returns the active narrowing mode
func (e *Evaluator) Mode() Mode {
	return e.mode
}

// Decide returns the early termination decision for in, ignoring in.Valid
func (e *Evaluator) Decide(in Input) bool {
	return e.Trace(in).EarlyTerminate
}

// Trace evaluates in, ignoring in.Valid, and returns every intermediate
func (e *Evaluator) Trace(in Input) Trace {
	w := e.widths
	cumVal := signExtend(in.CumVal, w.Value)
	cumSq := in.CumSq & mask(w.SumSq)
	n := in.N & mask(w.Count)
	boundSq := in.BoundSq & mask(w.Value)

	if n == 0 {
		e.log.Debug().Int64("cum_val", cumVal).Uint64("cum_sq", cumSq).Msg("no samples, not terminating")
		return Trace{Degenerate: true}
	}

	var t Trace
	round := e.mode == Round

	// The quotient is formed on the magnitude.  Truncation and half-away rounding are both
	// symmetric about zero, so |cum_val / n| == |cum_val| / n.  The magnitude is unsigned
	// and one bit wider than a signed value, which makes |-2^(W-1)| exact.
	neg := cumVal < 0
	mag := uint64(cumVal)
	if neg {
		mag = uint64(-cumVal)
	}
	t.MeanAbs = quotient(mag, n, round)
	t.Mean = int64(t.MeanAbs)
	if neg {
		t.Mean = -t.Mean
	}

	t.M2 = t.MeanAbs * t.MeanAbs
	t.EX2 = quotient(cumSq, n, round)
	t.EX2Narrow = narrow(t.EX2, w.Value, e.mode)
	t.M2Narrow = narrow(t.M2, w.Value, e.mode)
	if t.EX2Narrow > t.M2Narrow {
		t.Variance = t.EX2Narrow - t.M2Narrow
	}

	t.Left = mul128(t.M2, n)
	t.Right = boundSq * t.Variance
	t.EarlyTerminate = t.Left.Less(t.Right)

	if e.log.GetLevel() <= zerolog.TraceLevel {
		e.log.Trace().
			Int64("cum_val", cumVal).
			Uint64("cum_sq", cumSq).
			Uint64("n", n).
			Uint64("bound_sq", boundSq).
			Int64("mean", t.Mean).
			Uint64("m2", t.M2).
			Uint64("e_x2", t.EX2).
			Uint64("variance", t.Variance).
			Stringer("left", t.Left).
			Uint64("right", t.Right).
			Bool("early_terminate", t.EarlyTerminate).
			Str("mode", e.mode.String()).
			Msg("evaluated")
	}
	return t
}
