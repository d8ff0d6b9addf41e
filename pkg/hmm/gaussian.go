package hmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	fb "github.com/samcharles93/lattice/pkg/forwardbackward"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Gaussian is an HMM whose states emit real vectors with independent normal
// components (diagonal covariance).
type Gaussian struct {
	chain
	emit [][]distuv.Normal
}

var _ potential.Function[[]float64] = (*Gaussian)(nil)

// NewGaussian builds a model from the initial distribution, transitions, and
// per-state means and standard deviations (S×D each). Standard deviations
// must be positive.
func NewGaussian(init []float64, trans, means, stddevs [][]float64) (*Gaussian, error) {
	c, err := newChain(init, trans)
	if err != nil {
		return nil, err
	}
	n := c.States()
	if len(means) != n || len(stddevs) != n {
		return nil, fmt.Errorf("%w: need %d rows of means and standard deviations", ErrShape, n)
	}
	dims := len(means[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: emission dimension is zero", ErrShape)
	}
	m := &Gaussian{chain: c, emit: make([][]distuv.Normal, n)}
	for i := 0; i < n; i++ {
		if len(means[i]) != dims || len(stddevs[i]) != dims {
			return nil, fmt.Errorf("%w: state %d emission dimension, want %d", ErrShape, i, dims)
		}
		m.emit[i] = make([]distuv.Normal, dims)
		for d := 0; d < dims; d++ {
			sd := stddevs[i][d]
			if !(sd > 0) || math.IsInf(sd, 0) {
				return nil, fmt.Errorf("%w: state %d dimension %d has standard deviation %v", potential.ErrInvalidArgument, i, d, sd)
			}
			m.emit[i][d] = distuv.Normal{Mu: means[i][d], Sigma: sd}
		}
	}
	return m, nil
}

// Dimensions is the length of every observation vector.
func (m *Gaussian) Dimensions() int { return len(m.emit[0]) }

// Means returns a copy of the per-state means.
func (m *Gaussian) Means() [][]float64 {
	out := make([][]float64, len(m.emit))
	for i, row := range m.emit {
		out[i] = make([]float64, len(row))
		for d, n := range row {
			out[i][d] = n.Mu
		}
	}
	return out
}

// StdDevs returns a copy of the per-state standard deviations.
func (m *Gaussian) StdDevs() [][]float64 {
	out := make([][]float64, len(m.emit))
	for i, row := range m.emit {
		out[i] = make([]float64, len(row))
		for d, n := range row {
			out[i][d] = n.Sigma
		}
	}
	return out
}

// LogEmission returns log N(x | state).
func (m *Gaussian) LogEmission(state int, x []float64) float64 {
	var lp float64
	for d, n := range m.emit[state] {
		lp += n.LogProb(x[d])
	}
	return lp
}

// LogPotential implements potential.Function. Vectors of the wrong length
// score -Inf; public methods reject them first.
func (m *Gaussian) LogPotential(prev, cur int, seq [][]float64, t, _ int) float64 {
	if len(seq[t]) != len(m.emit[cur]) {
		return math.Inf(-1)
	}
	return m.transition(prev, cur) + m.LogEmission(cur, seq[t])
}

// CheckSequence reports whether seq is non-empty and every vector has the
// model's dimension.
func (m *Gaussian) CheckSequence(seq [][]float64) error {
	if len(seq) == 0 {
		return potential.ErrEmptySequence
	}
	d := m.Dimensions()
	for t, x := range seq {
		if len(x) != d {
			return fmt.Errorf("%w: observation %d has %d components, want %d", ErrDimension, t, len(x), d)
		}
	}
	return nil
}

// LogLikelihood returns log p(seq | model).
func (m *Gaussian) LogLikelihood(seq [][]float64) (float64, error) {
	if err := m.CheckSequence(seq); err != nil {
		return 0, err
	}
	return fb.LogLikelihood[[]float64](m, seq, 0)
}

// Decode returns the Viterbi path and its log density.
func (m *Gaussian) Decode(seq [][]float64) ([]int, float64, error) {
	if err := m.CheckSequence(seq); err != nil {
		return nil, 0, err
	}
	return fb.Viterbi[[]float64](m, seq, 0)
}

// Posterior returns the state posteriors.
func (m *Gaussian) Posterior(seq [][]float64) (*fb.Table, error) {
	if err := m.CheckSequence(seq); err != nil {
		return nil, err
	}
	fwd, bwd, err := fb.ForwardBackward[[]float64](m, seq, 0)
	if err != nil {
		return nil, err
	}
	return fb.Posteriors(fwd.Table, bwd)
}
