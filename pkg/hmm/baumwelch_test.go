package hmm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samcharles93/lattice/pkg/hmm"
	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSequences(t *testing.T, m *hmm.Discrete, n, length int, seed int64) [][]int {
	t.Helper()
	s := logspace.NewSampler(seed)
	out := make([][]int, n)
	for i := range out {
		obs, _, err := m.Generate(length, s)
		require.NoError(t, err)
		out[i] = obs
	}
	return out
}

func totalLogLikelihood(t *testing.T, m *hmm.Discrete, seqs [][]int) float64 {
	t.Helper()
	var sum float64
	for _, s := range seqs {
		ll, err := m.LogLikelihood(s)
		require.NoError(t, err)
		sum += ll
	}
	return sum
}

func TestBaumWelchImprovesLikelihood(t *testing.T) {
	truth := weather(t)
	data := sampleSequences(t, truth, 30, 40, 5)

	init, trans := hmm.Ergodic(2)
	start, err := hmm.NewDiscrete(init, trans, hmm.RandomEmissions(2, 3, 1))
	require.NoError(t, err)

	var lls []float64
	bw := hmm.BaumWelch{
		MaxIterations: 50,
		Tolerance:     1e-6,
		Progress:      func(_ int, ll float64) { lls = append(lls, ll) },
	}
	fitted, res, err := bw.Fit(context.Background(), start, data)
	require.NoError(t, err)
	require.NotEmpty(t, lls)
	assert.Equal(t, res.Iterations, len(lls))

	// EM never decreases the likelihood.
	for i := 1; i < len(lls); i++ {
		assert.GreaterOrEqual(t, lls[i], lls[i-1]-1e-8)
	}
	assert.Greater(t, totalLogLikelihood(t, fitted, data), totalLogLikelihood(t, start, data))

	// The starting model is not modified.
	want := hmm.RandomEmissions(2, 3, 1)
	for i, row := range start.Emissions() {
		assert.InDeltaSlice(t, want[i], row, 1e-12)
	}
}

func TestBaumWelchKeepsTopology(t *testing.T) {
	init, trans := hmm.LeftToRight(3, 2)
	start, err := hmm.NewDiscrete(init, trans, hmm.RandomEmissions(3, 2, 4))
	require.NoError(t, err)
	data := [][]int{{0, 0, 1, 1, 1}, {0, 1, 1}, {0, 0, 0, 1}}

	fitted, _, err := hmm.BaumWelch{MaxIterations: 10, PseudoCount: 0.01}.Fit(context.Background(), start, data)
	require.NoError(t, err)
	got := fitted.Transitions()
	assert.Equal(t, 0.0, got[1][0])
	assert.Equal(t, 0.0, got[2][0])
	assert.Equal(t, 0.0, got[2][1])
	for _, row := range fitted.Emissions() {
		for _, p := range row {
			assert.Greater(t, p, 0.0)
		}
	}
}

func TestBaumWelchErrors(t *testing.T) {
	m := weather(t)
	_, _, err := hmm.BaumWelch{}.Fit(context.Background(), m, nil)
	assert.ErrorIs(t, err, hmm.ErrNoSequences)

	_, _, err = hmm.BaumWelch{}.Fit(context.Background(), m, [][]int{{0, 7}})
	assert.ErrorIs(t, err, hmm.ErrSymbolOutOfRange)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = hmm.BaumWelch{}.Fit(ctx, m, [][]int{{0, 1}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBaumWelchImpossibleSequence(t *testing.T) {
	m, err := hmm.NewDiscrete([]float64{1}, [][]float64{{1}}, [][]float64{{1, 0}})
	require.NoError(t, err)
	_, _, err = hmm.BaumWelch{}.Fit(context.Background(), m, [][]int{{0, 1}})
	assert.ErrorIs(t, err, hmm.ErrImpossibleSequence)
}
