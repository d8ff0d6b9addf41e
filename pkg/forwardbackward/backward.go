package forwardbackward

import (
	"fmt"
	"math"

	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Backward runs the scaled backward recurrence using the scaling constants
// produced by Forward on the same inputs:
//
//	β̂[T-1][i] = 1
//	β̂[t][i]   = Σ_j exp(φ(i, j, t+1))·β̂[t+1][j] / c[t+1]
//
// Sharing the constants keeps the two tables commensurable, so
// α̂[t][i]·β̂[t][i] is the state posterior at t. A constant that underflowed
// to 0 in scaling is treated as impossible; BackwardFrom reads the log
// constants instead and has no such limit.
func Backward[O any](fn potential.Function[O], seq []O, class int, scaling []float64) (*Table, error) {
	return backward(fn, seq, class, logspace.LogAll(scaling))
}

// BackwardFrom runs the scaled backward recurrence with the log scaling
// constants of fwd.
func BackwardFrom[O any](fn potential.Function[O], seq []O, class int, fwd *Result) (*Table, error) {
	if fwd == nil {
		return nil, ErrShapeMismatch
	}
	return backward(fn, seq, class, fwd.LogScaling)
}

func backward[O any](fn potential.Function[O], seq []O, class int, logScaling []float64) (*Table, error) {
	if err := potential.Validate(fn, seq, class); err != nil {
		return nil, err
	}
	T, S := len(seq), fn.States()
	if len(logScaling) != T {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrScalingLength, len(logScaling), T)
	}
	bwd := NewTable(T, S)
	last := bwd.Row(T - 1)
	for i := range last {
		last[i] = 1
	}
	terms := make([]float64, S)
	for t := T - 2; t >= 0; t-- {
		next, cur := bwd.Row(t+1), bwd.Row(t)
		lnC := logScaling[t+1]
		if math.IsInf(lnC, -1) {
			lnC = 0
		}
		for i := 0; i < S; i++ {
			for j := 0; j < S; j++ {
				terms[j] = fn.LogPotential(i, j, seq, t+1, class) + logspace.SafeLog(next[j])
			}
			cur[i] = math.Exp(logspace.LogSumExp(terms) - lnC)
		}
	}
	return bwd, nil
}

// BackwardUnscaled runs the backward recurrence without scaling.
func BackwardUnscaled[O any](fn potential.Function[O], seq []O, class int) (*Table, error) {
	ones := make([]float64, len(seq))
	for i := range ones {
		ones[i] = 1
	}
	return Backward(fn, seq, class, ones)
}

// LogBackward runs the backward recurrence in log space:
//
//	lnβ[T-1][i] = 0
//	lnβ[t][i]   = logsumexp_j(φ(i, j, t+1) + lnβ[t+1][j])
func LogBackward[O any](fn potential.Function[O], seq []O, class int) (*Table, error) {
	if err := potential.Validate(fn, seq, class); err != nil {
		return nil, err
	}
	T, S := len(seq), fn.States()
	lnBwd := NewTable(T, S)
	terms := make([]float64, S)
	for t := T - 2; t >= 0; t-- {
		next, cur := lnBwd.Row(t+1), lnBwd.Row(t)
		for i := 0; i < S; i++ {
			for j := 0; j < S; j++ {
				terms[j] = fn.LogPotential(i, j, seq, t+1, class) + next[j]
			}
			cur[i] = logspace.LogSumExp(terms)
		}
	}
	return lnBwd, nil
}

// ForwardBackward runs the scaled forward pass followed by the matching
// backward pass.
func ForwardBackward[O any](fn potential.Function[O], seq []O, class int) (*Result, *Table, error) {
	fwd, err := Forward(fn, seq, class)
	if err != nil {
		return nil, nil, err
	}
	bwd, err := BackwardFrom(fn, seq, class, fwd)
	if err != nil {
		return nil, nil, err
	}
	return fwd, bwd, nil
}
