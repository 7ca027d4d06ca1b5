// Package rng generates fixed-point samples for driving the early termination stage
package rng

// Source yields one fixed-point sample per call
type Source interface {
	Sample() int64
}
