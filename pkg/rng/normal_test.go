package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormal(t *testing.T) {
	r := NewNormal(2.0, 0.5, 100, WithSeed(1))
	const count = 20000
	val := make([]float64, count)
	for i := range val {
		val[i] = float64(r.Sample()) / 100
	}

	sum := 0.0
	for _, v := range val {
		sum += v
	}
	mean := sum / count
	assert.InDelta(t, 2.0, mean, 0.02)

	variance := 0.0
	for _, v := range val {
		variance += math.Pow(v-mean, 2.0)
	}
	variance = variance / (count - 1)
	assert.InDelta(t, 0.5, math.Sqrt(variance), 0.02)
}

func TestNormalSeeded(t *testing.T) {
	a := NewNormal(0, 1, 16, WithSeed(42))
	b := NewNormal(0, 1, 16, WithSeed(42))
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Sample(), b.Sample())
	}
}

func TestNormalRange(t *testing.T) {
	r := NewNormal(0, 100, 1, WithSeed(5), WithRange(-8, 7))
	for i := 0; i < 1000; i++ {
		s := r.Sample()
		assert.True(t, s >= -8 && s <= 7, "sample %d", s)
	}
}
