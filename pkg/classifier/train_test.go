package classifier_test

import (
	"context"
	"sync"
	"testing"

	"github.com/samcharles93/lattice/pkg/classifier"
	"github.com/samcharles93/lattice/pkg/hmm"
	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdModelShape(t *testing.T) {
	models := lowHigh(t)
	th, err := classifier.Threshold(models)
	require.NoError(t, err)
	assert.Equal(t, 4, th.States())
	assert.Equal(t, 3, th.Symbols())

	a := th.Transitions()
	// Self transitions are copied from the ergodic class models.
	assert.InDelta(t, 0.5, a[0][0], 1e-12)
	assert.InDelta(t, 0.5/3, a[0][3], 1e-12)
	assert.InDeltaSlice(t, models[1].Emissions()[0], th.Emissions()[2], 1e-12)
	assert.InDelta(t, 1.0, logspace.Sum(th.Initial()), 1e-12)
}

func TestThresholdRequiresMatchingAlphabets(t *testing.T) {
	a, err := hmm.NewDiscrete([]float64{1}, [][]float64{{1}}, [][]float64{{1}})
	require.NoError(t, err)
	b, err := hmm.NewDiscrete([]float64{1}, [][]float64{{1}}, [][]float64{{0.5, 0.5}})
	require.NoError(t, err)
	_, err = classifier.Threshold([]*hmm.Discrete{a, b})
	assert.ErrorIs(t, err, hmm.ErrShape)

	_, err = classifier.Threshold(nil)
	assert.ErrorIs(t, err, classifier.ErrNoModels)
}

func TestTrainSeparatesClasses(t *testing.T) {
	truth := lowHigh(t)
	s := logspace.NewSampler(21)
	var seqs [][]int
	var labels []int
	for c, m := range truth {
		for i := 0; i < 15; i++ {
			obs, _, err := m.Generate(20, s)
			require.NoError(t, err)
			seqs = append(seqs, obs)
			labels = append(labels, c)
		}
	}

	var mu sync.Mutex
	calls := map[int]int{}
	trained, err := classifier.Train(context.Background(), classifier.TrainConfig{
		Classes:   2,
		States:    2,
		Symbols:   3,
		Seed:      3,
		Threshold: true,
		BaumWelch: hmm.BaumWelch{MaxIterations: 20, PseudoCount: 0.01},
		Progress: func(class, _ int, _ float64) {
			mu.Lock()
			calls[class]++
			mu.Unlock()
		},
	}, seqs, labels)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, trained.Priors, 1e-12)
	assert.NotNil(t, trained.Threshold)
	assert.Positive(t, calls[0])
	assert.Positive(t, calls[1])

	c, err := trained.Classifier()
	require.NoError(t, err)
	assert.True(t, c.HasThreshold())

	correct := 0
	for i, seq := range seqs {
		d, err := c.Compute(seq)
		require.NoError(t, err)
		if d.Class == labels[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, correct, len(seqs)*7/10)
}

func TestTrainValidation(t *testing.T) {
	cfg := classifier.TrainConfig{Classes: 2, States: 2, Symbols: 2}
	_, err := classifier.Train(context.Background(), cfg, nil, nil)
	assert.ErrorIs(t, err, hmm.ErrNoSequences)

	_, err = classifier.Train(context.Background(), cfg, [][]int{{0}}, []int{0, 1})
	assert.ErrorIs(t, err, potential.ErrInvalidArgument)

	_, err = classifier.Train(context.Background(), cfg, [][]int{{0}}, []int{5})
	assert.ErrorIs(t, err, potential.ErrClassOutOfRange)

	_, err = classifier.Train(context.Background(), cfg, [][]int{{0}}, []int{0})
	assert.ErrorIs(t, err, classifier.ErrEmptyClass)

	cfg.Topology = "spiral"
	_, err = classifier.Train(context.Background(), cfg, [][]int{{0}, {1}}, []int{0, 1})
	assert.ErrorIs(t, err, potential.ErrInvalidArgument)
}
