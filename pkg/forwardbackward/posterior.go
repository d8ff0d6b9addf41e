package forwardbackward

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/samcharles93/lattice/pkg/potential"
)

// Posteriors combines a scaled forward table and the matching scaled
// backward table into state posteriors γ[t][i] = α̂[t][i]·β̂[t][i].
// Each row is renormalized to absorb rounding; an impossible row stays zero.
func Posteriors(fwd, bwd *Table) (*Table, error) {
	if !fwd.sameShape(bwd) {
		return nil, ErrShapeMismatch
	}
	gamma := NewTable(fwd.Rows, fwd.Cols)
	for t := 0; t < fwd.Rows; t++ {
		row := gamma.Row(t)
		floats.MulTo(row, fwd.Row(t), bwd.Row(t))
		scaleRow(row)
	}
	return gamma, nil
}

// LogPosteriors returns lnγ[t][i] = lnα[t][i] + lnβ[t][i] - logLikelihood.
// When logLikelihood is -Inf every entry is -Inf.
func LogPosteriors(lnFwd, lnBwd *Table, logLikelihood float64) (*Table, error) {
	if !lnFwd.sameShape(lnBwd) {
		return nil, ErrShapeMismatch
	}
	out := NewTable(lnFwd.Rows, lnFwd.Cols)
	if math.IsInf(logLikelihood, -1) {
		for i := range out.Data {
			out.Data[i] = math.Inf(-1)
		}
		return out, nil
	}
	for i := range out.Data {
		out.Data[i] = lnFwd.Data[i] + lnBwd.Data[i] - logLikelihood
	}
	return out, nil
}

// ExpectedTransitions accumulates ξ[i][j] = Σ_t P(s_t = i, s_{t+1} = j | seq)
// from a scaled forward result and its backward table:
//
//	ξ_t(i, j) = α̂[t][i]·exp(φ(i, j, t+1))·β̂[t+1][j] / c[t+1]
//
// Each term is formed in log space against log c[t+1], so it stays finite
// when c[t+1] itself is below the float64 range.
// The returned S×S table is the re-estimation numerator for transitions.
func ExpectedTransitions[O any](fn potential.Function[O], seq []O, class int, fwd *Result, bwd *Table) (*Table, error) {
	if err := potential.Validate(fn, seq, class); err != nil {
		return nil, err
	}
	if fwd == nil || !fwd.Table.sameShape(bwd) || fwd.Table.Rows != len(seq) {
		return nil, ErrShapeMismatch
	}
	if len(fwd.LogScaling) != len(seq) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrScalingLength, len(fwd.LogScaling), len(seq))
	}
	S := fn.States()
	xi := NewTable(S, S)
	for t := 0; t < len(seq)-1; t++ {
		lnC := fwd.LogScaling[t+1]
		if math.IsInf(lnC, -1) {
			continue
		}
		a, b := fwd.Table.Row(t), bwd.Row(t+1)
		for i := 0; i < S; i++ {
			if a[i] == 0 {
				continue
			}
			lnA := math.Log(a[i])
			row := xi.Row(i)
			for j := 0; j < S; j++ {
				if b[j] == 0 {
					continue
				}
				row[j] += math.Exp(lnA+fn.LogPotential(i, j, seq, t+1, class)-lnC) * b[j]
			}
		}
	}
	return xi, nil
}
