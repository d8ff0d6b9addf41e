package hmm

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Ergodic returns a fully connected topology: uniform initial distribution
// and uniform transitions.
func Ergodic(states int) (init []float64, trans [][]float64) {
	init = make([]float64, states)
	trans = make([][]float64, states)
	for i := range init {
		init[i] = 1 / float64(states)
		trans[i] = make([]float64, states)
		for j := range trans[i] {
			trans[i][j] = 1 / float64(states)
		}
	}
	return init, trans
}

// LeftToRight returns a forward-only (Bakis) topology. The chain always
// starts in state 0 and state i may move to any of the next deep states
// (itself included) with equal probability. deep <= 0 means "all remaining
// states".
func LeftToRight(states, deep int) (init []float64, trans [][]float64) {
	if deep <= 0 || deep > states {
		deep = states
	}
	init = make([]float64, states)
	if states > 0 {
		init[0] = 1
	}
	trans = make([][]float64, states)
	for i := range trans {
		trans[i] = make([]float64, states)
		reach := min(deep, states-i)
		for j := i; j < i+reach; j++ {
			trans[i][j] = 1 / float64(reach)
		}
	}
	return init, trans
}

// UniformEmissions returns an S×K emission matrix with every entry 1/K.
func UniformEmissions(states, symbols int) [][]float64 {
	out := make([][]float64, states)
	for i := range out {
		out[i] = make([]float64, symbols)
		for k := range out[i] {
			out[i][k] = 1 / float64(symbols)
		}
	}
	return out
}

// RandomEmissions returns a seeded random S×K emission matrix. Rows are
// drawn away from zero so training can move every entry.
func RandomEmissions(states, symbols int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]float64, states)
	for i := range out {
		out[i] = make([]float64, symbols)
		for k := range out[i] {
			out[i][k] = 0.5 + rng.Float64()
		}
		floats.Scale(1/floats.Sum(out[i]), out[i])
	}
	return out
}
