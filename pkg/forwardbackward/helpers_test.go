package forwardbackward_test

import (
	"math"

	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
)

// discrete builds an HMM-shaped potential from linear-space parameters.
func discrete(pi []float64, a, b [][]float64) potential.Func[int] {
	return potential.Func[int]{
		NumStates: len(pi),
		Score: func(prev, cur int, seq []int, t, class int) float64 {
			e := logspace.SafeLog(b[cur][seq[t]])
			if prev == potential.Initial {
				return logspace.SafeLog(pi[cur]) + e
			}
			return logspace.SafeLog(a[prev][cur]) + e
		},
	}
}

// weather is the classic two-state, three-symbol example.
func weather() potential.Func[int] {
	return discrete(
		[]float64{0.6, 0.4},
		[][]float64{{0.7, 0.3}, {0.4, 0.6}},
		[][]float64{{0.1, 0.4, 0.5}, {0.6, 0.3, 0.1}},
	)
}

// bruteForce enumerates every state path and returns the log of the summed
// path weights and the best single path.
func bruteForce(fn potential.Function[int], seq []int) (float64, []int, float64) {
	S, T := fn.States(), len(seq)
	path := make([]int, T)
	best := math.Inf(-1)
	var bestPath []int
	var scores []float64
	var walk func(t int)
	walk = func(t int) {
		if t == T {
			s := fn.LogPotential(potential.Initial, path[0], seq, 0, 0)
			for k := 1; k < T; k++ {
				s += fn.LogPotential(path[k-1], path[k], seq, k, 0)
			}
			scores = append(scores, s)
			if s > best {
				best = s
				bestPath = append([]int(nil), path...)
			}
			return
		}
		for j := 0; j < S; j++ {
			path[t] = j
			walk(t + 1)
		}
	}
	walk(0)
	return logspace.LogSumExp(scores), bestPath, best
}
