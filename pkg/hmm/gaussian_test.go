package hmm_test

import (
	"math"
	"testing"

	fb "github.com/samcharles93/lattice/pkg/forwardbackward"
	"github.com/samcharles93/lattice/pkg/hmm"
	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBlobs(t *testing.T) *hmm.Gaussian {
	t.Helper()
	init, trans := hmm.Ergodic(2)
	m, err := hmm.NewGaussian(init, trans,
		[][]float64{{0, 0}, {5, 5}},
		[][]float64{{1, 1}, {1, 1}},
	)
	require.NoError(t, err)
	return m
}

func TestGaussianSingleStepLikelihood(t *testing.T) {
	m := twoBlobs(t)
	x := []float64{0.5, -0.5}
	ll, err := m.LogLikelihood([][]float64{x})
	require.NoError(t, err)

	gauss := func(v, mu float64) float64 {
		return math.Exp(-0.5*(v-mu)*(v-mu)) / math.Sqrt(2*math.Pi)
	}
	want := 0.5*gauss(0.5, 0)*gauss(-0.5, 0) + 0.5*gauss(0.5, 5)*gauss(-0.5, 5)
	assert.InDelta(t, math.Log(want), ll, 1e-10)
}

func TestGaussianDecodeFollowsBlobs(t *testing.T) {
	m := twoBlobs(t)
	seq := [][]float64{{0.1, 0.2}, {4.9, 5.1}, {5.2, 4.8}, {-0.3, 0.1}}
	path, _, err := m.Decode(seq)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1, 0}, path)

	gamma, err := m.Posterior(seq)
	require.NoError(t, err)
	for i := 0; i < gamma.Rows; i++ {
		assert.InDelta(t, 1.0, logspace.Sum(gamma.Row(i)), 1e-9)
	}
}

func TestGaussianDimensionMismatch(t *testing.T) {
	m := twoBlobs(t)
	_, err := m.LogLikelihood([][]float64{{1, 2}, {1}})
	assert.ErrorIs(t, err, hmm.ErrDimension)
	assert.ErrorIs(t, err, potential.ErrInvalidArgument)
}

func TestNewGaussianValidation(t *testing.T) {
	init, trans := hmm.Ergodic(2)
	_, err := hmm.NewGaussian(init, trans, [][]float64{{0}, {1}}, [][]float64{{1}, {0}})
	assert.ErrorIs(t, err, potential.ErrInvalidArgument)

	_, err = hmm.NewGaussian(init, trans, [][]float64{{0}}, [][]float64{{1}})
	assert.ErrorIs(t, err, hmm.ErrShape)

	m, err := hmm.NewGaussian(init, trans, [][]float64{{0}, {1}}, [][]float64{{1}, {2}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {2}}, m.StdDevs())
	assert.Equal(t, [][]float64{{0}, {1}}, m.Means())
	assert.Equal(t, 1, m.Dimensions())
}

// A single far outlier has a density below the float64 range. The scaled
// recurrences must still match log space and keep posteriors normalized.
func TestGaussianOutlierKeepsPosteriors(t *testing.T) {
	m, err := hmm.NewGaussian([]float64{1}, [][]float64{{1}}, [][]float64{{0}}, [][]float64{{1}})
	require.NoError(t, err)
	seq := [][]float64{{0}, {40}, {0}}

	ll, err := m.LogLikelihood(seq)
	require.NoError(t, err)
	want := 3*(-0.5*math.Log(2*math.Pi)) - 0.5*40*40
	assert.InDelta(t, want, ll, 1e-9)

	fwd, err := fb.Forward[[]float64](m, seq, 0)
	require.NoError(t, err)
	assert.InDelta(t, ll, fwd.LogLikelihood, 1e-9)

	gamma, err := m.Posterior(seq)
	require.NoError(t, err)
	for tt := range seq {
		assert.InDelta(t, 1.0, gamma.At(tt, 0), 1e-12)
	}
}
