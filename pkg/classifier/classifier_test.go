package classifier_test

import (
	"context"
	"math"
	"testing"

	"github.com/samcharles93/lattice/pkg/classifier"
	"github.com/samcharles93/lattice/pkg/hmm"
	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lowHigh returns two models: class 0 prefers symbol 0, class 1 symbol 2.
func lowHigh(t *testing.T) []*hmm.Discrete {
	t.Helper()
	init, trans := hmm.Ergodic(2)
	low, err := hmm.NewDiscrete(init, trans, [][]float64{{0.8, 0.15, 0.05}, {0.6, 0.3, 0.1}})
	require.NoError(t, err)
	high, err := hmm.NewDiscrete(init, trans, [][]float64{{0.05, 0.15, 0.8}, {0.1, 0.3, 0.6}})
	require.NoError(t, err)
	return []*hmm.Discrete{low, high}
}

func constant(v float64) classifier.Scorer[int] {
	return classifier.ScorerFunc[int](func([]int) (float64, error) { return v, nil })
}

func TestDecidePicksMatchingClass(t *testing.T) {
	c, err := classifier.New(classifier.AsScorers[int](lowHigh(t)), nil)
	require.NoError(t, err)

	got, err := c.Decide([]int{0, 0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = c.Decide([]int{2, 2, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestProbabilitiesSumToOneWithoutThreshold(t *testing.T) {
	c, err := classifier.New(classifier.AsScorers[int](lowHigh(t)), []float64{0.3, 0.7})
	require.NoError(t, err)
	for _, seq := range [][]int{{0}, {2, 1}, {0, 1, 2, 1, 0, 2, 2}} {
		p, err := c.Probabilities(seq)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, logspace.Sum(p), 1e-12)
	}
	assert.InDeltaSlice(t, []float64{0.3, 0.7}, c.Priors(), 1e-12)
	assert.False(t, c.HasThreshold())
}

func TestPriorsShiftDecision(t *testing.T) {
	models := classifier.AsScorers[int](lowHigh(t))
	seq := []int{1}
	even, err := classifier.New(models, nil)
	require.NoError(t, err)
	skewed, err := classifier.New(models, []float64{0.999, 0.001})
	require.NoError(t, err)

	pe, _ := even.Probabilities(seq)
	ps, _ := skewed.Probabilities(seq)
	assert.Greater(t, ps[0], pe[0])
	got, _ := skewed.Decide(seq)
	assert.Equal(t, 0, got)
}

func TestThresholdRejects(t *testing.T) {
	c, err := classifier.New(
		[]classifier.Scorer[int]{constant(-10), constant(-12)},
		[]float64{0.5, 0.5},
		classifier.WithThreshold[int](constant(-1)),
	)
	require.NoError(t, err)
	d, err := c.Compute([]int{0})
	require.NoError(t, err)
	assert.Equal(t, classifier.Rejected, d.Class)
	assert.True(t, d.Rejected())
	assert.InDelta(t, 1.0, logspace.Sum(d.Probabilities)+d.Rejection, 1e-12)
	assert.Greater(t, d.Rejection, 0.99)
}

func TestThresholdLosesToStrongClass(t *testing.T) {
	c, err := classifier.New(
		[]classifier.Scorer[int]{constant(-1), constant(-12)},
		nil,
		classifier.WithThreshold[int](constant(-5)),
	)
	require.NoError(t, err)
	got, err := c.Decide([]int{0})
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestSensitivityTipsDecision(t *testing.T) {
	models := []classifier.Scorer[int]{constant(math.Log(0.5)), constant(math.Log(0.5))}
	lenient, err := classifier.New(models, nil,
		classifier.WithThreshold[int](constant(math.Log(0.2))),
		classifier.WithSensitivity[int](0.5))
	require.NoError(t, err)
	got, _ := lenient.Decide([]int{1})
	assert.Equal(t, 0, got)

	strict, err := classifier.New(models, nil,
		classifier.WithThreshold[int](constant(math.Log(0.2))),
		classifier.WithSensitivity[int](10))
	require.NoError(t, err)
	got, _ = strict.Decide([]int{1})
	assert.Equal(t, classifier.Rejected, got)
	assert.InDelta(t, 10, strict.Sensitivity(), 1e-12)

	_, err = classifier.New(models, nil, classifier.WithSensitivity[int](0))
	assert.ErrorIs(t, err, classifier.ErrSensitivity)
}

func TestConstructionErrors(t *testing.T) {
	_, err := classifier.New[int](nil, nil)
	assert.ErrorIs(t, err, classifier.ErrNoModels)

	models := []classifier.Scorer[int]{constant(0), constant(0)}
	for _, priors := range [][]float64{{1}, {0.6, 0.6}, {-0.5, 1.5}} {
		_, err = classifier.New(models, priors)
		assert.ErrorIs(t, err, classifier.ErrPriors, "priors=%v", priors)
		assert.ErrorIs(t, err, potential.ErrInvalidArgument)
	}
}

func TestDimensionMismatchIsInvalidArgument(t *testing.T) {
	c, err := classifier.New(classifier.AsScorers[int](lowHigh(t)), nil)
	require.NoError(t, err)
	_, err = c.Decide([]int{0, 5})
	assert.ErrorIs(t, err, hmm.ErrSymbolOutOfRange)
	assert.ErrorIs(t, err, potential.ErrInvalidArgument)

	_, err = c.Decide(nil)
	assert.ErrorIs(t, err, potential.ErrEmptySequence)
}

func TestSingleStateSingleStepClassifier(t *testing.T) {
	m, err := hmm.NewDiscrete([]float64{1}, [][]float64{{1}}, [][]float64{{0.25, 0.75}})
	require.NoError(t, err)
	c, err := classifier.New(classifier.AsScorers[int]([]*hmm.Discrete{m}), []float64{1})
	require.NoError(t, err)
	d, err := c.Compute([]int{1})
	require.NoError(t, err)
	assert.Equal(t, 0, d.Class)
	require.Len(t, d.Probabilities, 1)
	assert.InDelta(t, 1.0, d.Probabilities[0], 1e-15)
	assert.InDelta(t, math.Log(0.75), d.LogLikelihoods[0], 1e-15)
}

func TestImpossibleEverywhereIsRejected(t *testing.T) {
	c, err := classifier.New([]classifier.Scorer[int]{constant(math.Inf(-1))}, nil)
	require.NoError(t, err)
	d, err := c.Compute([]int{0})
	require.NoError(t, err)
	assert.Equal(t, classifier.Rejected, d.Class)
	assert.Equal(t, []float64{0}, d.Probabilities)
}

func TestDecideBatchKeepsOrder(t *testing.T) {
	c, err := classifier.New(classifier.AsScorers[int](lowHigh(t)), nil)
	require.NoError(t, err)
	seqs := [][]int{{0, 0}, {2, 2}, {0}, {2}, {2, 2, 2}}
	ds, err := c.DecideBatch(context.Background(), seqs, 2)
	require.NoError(t, err)
	got := make([]int, len(ds))
	for i, d := range ds {
		got[i] = d.Class
	}
	assert.Equal(t, []int{0, 1, 0, 1, 1}, got)

	_, err = c.DecideBatch(context.Background(), [][]int{{0}, {9}}, 0)
	assert.ErrorIs(t, err, hmm.ErrSymbolOutOfRange)
}
