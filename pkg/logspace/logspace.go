// Package logspace holds the small set of log-probability helpers shared by
// the forward-backward, HMM and CRF packages.
//
// Every function follows the usual log-probability conventions: log(0) is
// -Inf, and a sum over nothing but -Inf terms is -Inf rather than NaN.
package logspace

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// NegInf is log(0).
var NegInf = math.Inf(-1)

// LogSumExp returns log(Σ exp(xs[i])) without overflow or underflow.
// An empty slice or one made only of -Inf values yields -Inf.
func LogSumExp(xs []float64) float64 {
	if len(xs) == 0 {
		return NegInf
	}
	// floats.LogSumExp short-circuits on an infinite maximum, which covers
	// the all -Inf case as well as +Inf.
	return floats.LogSumExp(xs)
}

// LogAdd returns log(exp(a) + exp(b)).
func LogAdd(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// SafeLog returns log(p), with log(0) mapped to -Inf and negative inputs
// mapped to NaN.
func SafeLog(p float64) float64 {
	if p == 0 {
		return NegInf
	}
	return math.Log(p)
}

// LogAll returns a new slice with SafeLog applied to each element.
func LogAll(ps []float64) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = SafeLog(p)
	}
	return out
}

// Normalize shifts xs in place so that LogSumExp(xs) == 0 and returns the
// log normalizer that was subtracted. If every entry is -Inf the slice is
// left untouched and -Inf is returned.
func Normalize(xs []float64) float64 {
	z := LogSumExp(xs)
	if math.IsInf(z, 0) {
		return z
	}
	floats.AddConst(-z, xs)
	return z
}

// Exp returns a new slice holding exp(xs[i]).
func Exp(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Exp(x)
	}
	return out
}

// Softmax returns the probability vector exp(xs - LogSumExp(xs)).
// When every entry is -Inf the result is all zeros.
func Softmax(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	z := Normalize(out)
	if math.IsInf(z, -1) {
		for i := range out {
			out[i] = 0
		}
		return out
	}
	for i := range out {
		out[i] = math.Exp(out[i])
	}
	return out
}

// ArgMax returns the index of the largest value, preferring the lowest index
// on ties. It returns -1 for an empty slice.
func ArgMax(xs []float64) int {
	if len(xs) == 0 {
		return -1
	}
	return floats.MaxIdx(xs)
}

// Sum returns the sum of xs.
func Sum(xs []float64) float64 {
	return floats.Sum(xs)
}
