package rng

import (
	"math"
	"math/rand"
	"time"
)

var _ Source = &Normal{}

// Normal draws normally distributed reals and encodes them at a fixed-point scale, rounding
// to the nearest integer and clamping to [min, max]
type Normal struct {
	mean     float64
	stdev    float64
	scale    float64
	min, max int64
	r        *rand.Rand
}

// Sample returns round(x * scale) for x ~ N(mean, stdev), clamped to the sample range
func (n *Normal) Sample() int64 {
	x := math.Round((n.r.NormFloat64()*n.stdev + n.mean) * n.scale)
	switch {
	case x <= float64(n.min):
		return n.min
	case x >= float64(n.max):
		return n.max
	}
	return int64(x)
}

// NormalOption configures a Normal source
type NormalOption func(n *Normal)

// WithSeed makes the sequence reproducible
func WithSeed(seed int64) NormalOption {
	return func(n *Normal) {
		n.r = rand.New(rand.NewSource(seed))
	}
}

// WithRange clamps samples to [min, max], typically the value width of a port
func WithRange(min, max int64) NormalOption {
	return func(n *Normal) {
		n.min, n.max = min, max
	}
}

// NewNormal returns a source of N(mean, stdev) reals encoded at scale.  Without WithSeed the
// sequence is seeded from the clock.
func NewNormal(mean, stdev, scale float64, opts ...NormalOption) *Normal {
	n := &Normal{
		mean:  mean,
		stdev: stdev,
		scale: scale,
		min:   math.MinInt64,
		max:   math.MaxInt64,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.r == nil {
		n.r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return n
}
