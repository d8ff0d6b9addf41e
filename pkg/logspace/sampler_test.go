package logspace_test

import (
	"math"
	"testing"

	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/stretchr/testify/assert"
)

// Two samplers with the same seed must agree draw for draw.
func TestSamplerDeterminism(t *testing.T) {
	w := []float64{0.1, 0.2, 0.3, 0.4}
	s1 := logspace.NewSampler(42)
	s2 := logspace.NewSampler(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, s1.Draw(w), s2.Draw(w))
	}
}

func TestSamplerSkipsZeroWeights(t *testing.T) {
	s := logspace.NewSampler(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, 2, s.Draw([]float64{0, 0, 1, 0}))
	}
}

func TestSamplerDrawLog(t *testing.T) {
	s := logspace.NewSampler(3)
	lw := []float64{math.Inf(-1), 0, math.Inf(-1)}
	for i := 0; i < 20; i++ {
		assert.Equal(t, 1, s.DrawLog(lw))
	}
	assert.Equal(t, 0, s.DrawLog([]float64{math.Inf(-1), math.Inf(-1)}))
}

func TestSamplerFrequencies(t *testing.T) {
	s := logspace.NewSampler(11)
	counts := make([]int, 2)
	const n = 20000
	for i := 0; i < n; i++ {
		counts[s.Draw([]float64{0.25, 0.75})]++
	}
	assert.InDelta(t, 0.25, float64(counts[0])/n, 0.02)
}
