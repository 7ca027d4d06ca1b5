package stat

import "fmt"

const (
	// MaxValueWidth keeps m2 and bound_sq*variance inside 64 bits
	MaxValueWidth uint = 32
	// MaxSumSqWidth is the widest running sum of squares
	MaxSumSqWidth uint = 64
	// MaxCountWidth is the widest sample count
	MaxCountWidth uint = 64
)

// Widths are the bit widths of the stage ports.  Value is the width of cum_val and bound_sq
// and the width both narrowing points reduce to.  SumSq is the width of cum_sq and must
// exceed Value.  Count is the width of n.
type Widths struct {
	Value uint
	SumSq uint
	Count uint
}

// DefaultWidths is a 16 bit value port with a 32 bit sum of squares and a 16 bit count
var DefaultWidths = Widths{Value: 16, SumSq: 32, Count: 16}

// Validate checks that every intermediate product fits the fixed-width arithmetic
func (w Widths) Validate() error {
	switch {
	case w.Value < 2 || w.Value > MaxValueWidth:
		return WidthError{Msg: fmt.Sprintf("value width %d outside [2, %d]", w.Value, MaxValueWidth)}
	case w.SumSq <= w.Value || w.SumSq > MaxSumSqWidth:
		return WidthError{Msg: fmt.Sprintf("sum of squares width %d must exceed value width %d and be at most %d", w.SumSq, w.Value, MaxSumSqWidth)}
	case w.Count < 1 || w.Count > MaxCountWidth:
		return WidthError{Msg: fmt.Sprintf("count width %d outside [1, %d]", w.Count, MaxCountWidth)}
	}
	return nil
}

// MaxCumVal is the largest representable cum_val
func (w Widths) MaxCumVal() int64 {
	return int64(mask(w.Value - 1))
}

// MinCumVal is the most negative representable cum_val
func (w Widths) MinCumVal() int64 {
	return -int64(mask(w.Value-1)) - 1
}

// MaxCumSq is the largest representable cum_sq
func (w Widths) MaxCumSq() uint64 {
	return mask(w.SumSq)
}

// MaxCount is the largest representable n
func (w Widths) MaxCount() uint64 {
	return mask(w.Count)
}

// MaxBoundSq is the largest representable bound_sq
func (w Widths) MaxBoundSq() uint64 {
	return mask(w.Value)
}

func (w Widths) String() string {
	return fmt.Sprintf("value=%d sumsq=%d count=%d", w.Value, w.SumSq, w.Count)
}
