package forwardbackward

import (
	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Viterbi returns the most likely state path and its log score.
//
//	δ[0][j] = φ(Initial, j, 0)
//	δ[t][j] = max_i δ[t-1][i] + φ(i, j, t),  ψ[t][j] = argmax_i
//
// Ties resolve to the lowest state index. When every path is impossible the
// score is -Inf and the returned path is the all-zero path.
func Viterbi[O any](fn potential.Function[O], seq []O, class int) ([]int, float64, error) {
	if err := potential.Validate(fn, seq, class); err != nil {
		return nil, 0, err
	}
	T, S := len(seq), fn.States()
	delta := NewTable(T, S)
	psi := make([]int, T*S)

	row := delta.Row(0)
	for j := range row {
		row[j] = fn.LogPotential(potential.Initial, j, seq, 0, class)
	}
	for t := 1; t < T; t++ {
		prev, cur := delta.Row(t-1), delta.Row(t)
		for j := 0; j < S; j++ {
			best, arg := logspace.NegInf, 0
			for i := 0; i < S; i++ {
				v := prev[i] + fn.LogPotential(i, j, seq, t, class)
				if v > best {
					best, arg = v, i
				}
			}
			cur[j] = best
			psi[t*S+j] = arg
		}
	}

	path := make([]int, T)
	last := delta.Row(T - 1)
	path[T-1] = logspace.ArgMax(last)
	score := last[path[T-1]]
	for t := T - 1; t > 0; t-- {
		path[t-1] = psi[t*S+path[t]]
	}
	return path, score, nil
}
