package stat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvaluator(t testing.TB, opts ...Option) *Evaluator {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func TestScenarios(t *testing.T) {
	e := newEvaluator(t)
	tt := []struct {
		name  string
		in    Input
		trace Trace
	}{
		{
			name:  "zero evidence does not terminate",
			in:    Input{CumVal: 0, CumSq: 0, N: 4, BoundSq: 100},
			trace: Trace{Left: Uint128{}, Right: 0},
		},
		{
			name: "evidence above bound",
			in:   Input{CumVal: 8, CumSq: 40, N: 4, BoundSq: 2},
			trace: Trace{Mean: 2, MeanAbs: 2, M2: 4, EX2: 10, EX2Narrow: 10, M2Narrow: 4, Variance: 6,
				Left: Uint128{Lo: 16}, Right: 12},
		},
		{
			name: "evidence below bound",
			in:   Input{CumVal: 8, CumSq: 40, N: 4, BoundSq: 10},
			trace: Trace{Mean: 2, MeanAbs: 2, M2: 4, EX2: 10, EX2Narrow: 10, M2Narrow: 4, Variance: 6,
				Left: Uint128{Lo: 16}, Right: 60, EarlyTerminate: true},
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.trace, e.Trace(tc.in))
			assert.Equal(t, tc.trace.EarlyTerminate, e.Decide(tc.in))
		})
	}
}

func TestNoSamplesNeverTerminates(t *testing.T) {
	e := newEvaluator(t)
	tt := []Input{
		{},
		{CumVal: 100, CumSq: 1 << 20, BoundSq: 65535},
		{CumVal: -32768, CumSq: 1<<32 - 1, BoundSq: 1},
		// count bits above the count width are not seen by the stage
		{CumVal: 5, CumSq: 50, N: 1 << 16, BoundSq: 1000},
	}
	for _, in := range tt {
		tr := e.Trace(in)
		assert.True(t, tr.Degenerate)
		assert.False(t, tr.EarlyTerminate)
		assert.False(t, e.Decide(in))
	}
}

func TestMeanTruncatesTowardZero(t *testing.T) {
	e := newEvaluator(t)
	tt := []struct {
		cumVal  int64
		n       uint64
		mean    int64
		meanAbs uint64
	}{
		{cumVal: 7, n: 2, mean: 3, meanAbs: 3},
		{cumVal: -7, n: 2, mean: -3, meanAbs: 3},
		{cumVal: -1, n: 4, mean: 0, meanAbs: 0},
		{cumVal: -9, n: 3, mean: -3, meanAbs: 3},
	}
	for _, tc := range tt {
		tr := e.Trace(Input{CumVal: tc.cumVal, N: tc.n})
		assert.Equal(t, tc.mean, tr.Mean, "cum_val=%d n=%d", tc.cumVal, tc.n)
		assert.Equal(t, tc.meanAbs, tr.MeanAbs, "cum_val=%d n=%d", tc.cumVal, tc.n)
	}
}

func TestRoundMode(t *testing.T) {
	e := newEvaluator(t, WithMode(Round))
	tt := []struct {
		in   Input
		mean int64
		ex2  uint64
	}{
		{in: Input{CumVal: 7, CumSq: 5, N: 2}, mean: 4, ex2: 3},
		{in: Input{CumVal: -7, CumSq: 4, N: 2}, mean: -4, ex2: 2},
		{in: Input{CumVal: 10, CumSq: 10, N: 3}, mean: 3, ex2: 3},
		{in: Input{CumVal: -11, CumSq: 11, N: 3}, mean: -4, ex2: 4},
	}
	for _, tc := range tt {
		tr := e.Trace(tc.in)
		assert.Equal(t, tc.mean, tr.Mean, "%+v", tc.in)
		assert.Equal(t, tc.ex2, tr.EX2, "%+v", tc.in)
	}
}

func TestNarrowingPoints(t *testing.T) {
	tt := []struct {
		name      string
		mode      Mode
		in        Input
		ex2Narrow uint64
		m2Narrow  uint64
		variance  uint64
	}{
		{name: "truncate e_x2", mode: Truncate, in: Input{CumVal: 2, CumSq: 65536 + 10, N: 1}, ex2Narrow: 10, m2Narrow: 4, variance: 6},
		{name: "saturate e_x2", mode: Saturate, in: Input{CumVal: 2, CumSq: 65536 + 10, N: 1}, ex2Narrow: 65535, m2Narrow: 4, variance: 65531},
		{name: "truncate m2", mode: Truncate, in: Input{CumVal: 300, CumSq: 100000, N: 1}, ex2Narrow: 34464, m2Narrow: 24464, variance: 10000},
		{name: "saturate m2", mode: Saturate, in: Input{CumVal: 300, CumSq: 100000, N: 1}, ex2Narrow: 65535, m2Narrow: 65535, variance: 0},
		{name: "round clamps", mode: Round, in: Input{CumVal: 300, CumSq: 100000, N: 1}, ex2Narrow: 65535, m2Narrow: 65535, variance: 0},
		{name: "m2 wraps to zero", mode: Truncate, in: Input{CumVal: 256, CumSq: 65536 + 5, N: 1}, ex2Narrow: 5, m2Narrow: 0, variance: 5},
		{name: "difference clamps at zero", mode: Truncate, in: Input{CumVal: 2, CumSq: 65536 + 1, N: 1}, ex2Narrow: 1, m2Narrow: 4, variance: 0},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			tr := newEvaluator(t, WithMode(tc.mode)).Trace(tc.in)
			assert.Equal(t, tc.ex2Narrow, tr.EX2Narrow)
			assert.Equal(t, tc.m2Narrow, tr.M2Narrow)
			assert.Equal(t, tc.variance, tr.Variance)
		})
	}
}

func TestDegenerateVarianceNeverTerminates(t *testing.T) {
	e := newEvaluator(t)
	// mean 3, e_x2 9: the estimated variance is zero so right is zero
	in := Input{CumVal: 12, CumSq: 36, N: 4, BoundSq: e.Widths().MaxBoundSq()}
	tr := e.Trace(in)
	assert.Equal(t, uint64(0), tr.Variance)
	assert.Equal(t, uint64(0), tr.Right)
	assert.False(t, tr.EarlyTerminate)

	// a single sample never has variance
	tr = e.Trace(Input{CumVal: -5, CumSq: 25, N: 1, BoundSq: 100})
	assert.False(t, tr.EarlyTerminate)
}

func TestWideProducts(t *testing.T) {
	e := newEvaluator(t, WithWidths(32, 64, 64))
	w := e.Widths()

	tr := e.Trace(Input{CumVal: w.MinCumVal(), CumSq: 1 << 63, N: 1})
	assert.Equal(t, int64(-1)<<31, tr.Mean)
	assert.Equal(t, uint64(1)<<31, tr.MeanAbs)
	assert.Equal(t, uint64(1)<<62, tr.M2)
	assert.Equal(t, Uint128{Lo: 1 << 62}, tr.Left)

	tr = e.Trace(Input{CumVal: w.MaxCumVal(), CumSq: 1 << 63, N: 1})
	assert.Equal(t, uint64(4611686014132420609), tr.M2)

	tr = e.Trace(Input{CumVal: w.MaxCumVal(), CumSq: 1 << 63, N: 3})
	assert.Equal(t, uint64(715827882), tr.MeanAbs)
	assert.Equal(t, uint64(512409556648605924), tr.M2)
	assert.Equal(t, "1537228669945817772", tr.Left.String())

	// bound_sq * variance at full width stays exact
	tr = e.Trace(Input{CumVal: 0, CumSq: 1<<32 - 1, N: 1, BoundSq: 1<<32 - 1})
	assert.Equal(t, uint64(1<<32-1), tr.Variance)
	assert.Equal(t, uint64(1<<32-1)*uint64(1<<32-1), tr.Right)
	assert.True(t, tr.EarlyTerminate)
}

func TestMostNegativeMeanIsExact(t *testing.T) {
	for _, width := range []uint{2, 8, 16, 32} {
		e := newEvaluator(t, WithWidths(width, width+1, 8))
		w := e.Widths()
		tr := e.Trace(Input{CumVal: w.MinCumVal(), N: 1})
		assert.Equal(t, uint64(1)<<(width-1), tr.MeanAbs, "width %d", width)
		assert.Equal(t, uint64(1)<<(2*width-2), tr.M2, "width %d", width)
	}
}

func TestInputsReducedToPortWidths(t *testing.T) {
	e := newEvaluator(t)
	base := e.Trace(Input{CumVal: 8, CumSq: 40, N: 4, BoundSq: 10})
	wide := e.Trace(Input{CumVal: 1<<16 | 8, CumSq: 1<<32 | 40, N: 1<<16 | 4, BoundSq: 1<<16 | 10})
	assert.Equal(t, base, wide)

	// 0xFFFF is -1 in a 16 bit port
	tr := e.Trace(Input{CumVal: 0xFFFF, CumSq: 1, N: 1})
	assert.Equal(t, int64(-1), tr.Mean)
}

func TestSymmetry(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, mode := range []Mode{Truncate, Saturate, Round} {
		e := newEvaluator(t, WithMode(mode))
		w := e.Widths()
		for i := 0; i < 5000; i++ {
			cumVal := r.Int63n(w.MaxCumVal()) + 1
			in := Input{
				CumVal:  cumVal,
				CumSq:   uint64(r.Int63n(int64(w.MaxCumSq()))),
				N:       uint64(r.Int63n(int64(w.MaxCount()))),
				BoundSq: uint64(r.Int63n(int64(w.MaxBoundSq()))),
			}
			neg := in
			neg.CumVal = -cumVal
			assert.Equal(t, e.Decide(in), e.Decide(neg), "%s %+v", mode, in)
		}
	}
}

func TestMonotonicInBound(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	e := newEvaluator(t)
	w := e.Widths()
	for i := 0; i < 500; i++ {
		n := uint64(r.Int63n(64)) + 1
		in := Input{
			CumVal: r.Int63n(2*w.MaxCumVal()) - w.MaxCumVal(),
			CumSq:  uint64(r.Int63n(int64(w.MaxCumSq()))),
			N:      n,
		}
		terminated := false
		for b := uint64(0); b <= w.MaxBoundSq(); b += 257 {
			in.BoundSq = b
			d := e.Decide(in)
			// a larger bound can only turn a continue into a terminate
			assert.False(t, terminated && !d, "%+v", in)
			terminated = terminated || d
		}
	}
}

func TestOptions(t *testing.T) {
	tt := []struct {
		name string
		opt  Option
		err  bool
	}{
		{name: "defaults", opt: WithWidths(16, 32, 16)},
		{name: "widest", opt: WithWidths(32, 64, 64)},
		{name: "narrowest", opt: WithWidths(2, 3, 1)},
		{name: "value too narrow", opt: WithWidths(1, 32, 16), err: true},
		{name: "value too wide", opt: WithWidths(33, 64, 16), err: true},
		{name: "sum of squares not wider", opt: WithWidths(16, 16, 16), err: true},
		{name: "sum of squares too wide", opt: WithWidths(16, 65, 16), err: true},
		{name: "no count bits", opt: WithWidths(16, 32, 0), err: true},
		{name: "count too wide", opt: WithWidths(16, 32, 65), err: true},
		{name: "unknown mode", opt: WithMode(Mode(9)), err: true},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.opt)
			if tc.err {
				assert.IsType(t, WidthError{}, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Truncate, Saturate, Round} {
		parsed, err := ParseMode(m.String())
		assert.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMode("nearest")
	assert.Error(t, err)
	assert.Equal(t, "mode(9)", Mode(9).String())
}

func BenchmarkDecide(b *testing.B) {
	e := newEvaluator(b)
	in := Input{CumVal: -1234, CumSq: 987654, N: 97, BoundSq: 4}
	for i := 0; i < b.N; i++ {
		e.Decide(in)
	}
}
