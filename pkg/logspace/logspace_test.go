package logspace_test

import (
	"math"
	"testing"

	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSumExp(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"empty", nil, math.Inf(-1)},
		{"single", []float64{-3.5}, -3.5},
		{"pair", []float64{math.Log(0.25), math.Log(0.75)}, 0},
		{"all neg inf", []float64{math.Inf(-1), math.Inf(-1)}, math.Inf(-1)},
		{"mixed neg inf", []float64{math.Inf(-1), math.Log(2)}, math.Log(2)},
		{"large values", []float64{1000, 1000}, 1000 + math.Log(2)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := logspace.LogSumExp(tc.in)
			if math.IsInf(tc.want, 0) {
				assert.Equal(t, tc.want, got)
				return
			}
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestLogAdd(t *testing.T) {
	assert.InDelta(t, math.Log(0.5), logspace.LogAdd(math.Log(0.2), math.Log(0.3)), 1e-12)
	assert.Equal(t, 1.5, logspace.LogAdd(math.Inf(-1), 1.5))
	assert.Equal(t, 1.5, logspace.LogAdd(1.5, math.Inf(-1)))
	assert.True(t, math.IsInf(logspace.LogAdd(math.Inf(-1), math.Inf(-1)), -1))
}

func TestSafeLogZero(t *testing.T) {
	assert.True(t, math.IsInf(logspace.SafeLog(0), -1))
	assert.InDelta(t, 0.0, logspace.SafeLog(1), 1e-15)
}

func TestNormalize(t *testing.T) {
	xs := []float64{math.Log(2), math.Log(6)}
	z := logspace.Normalize(xs)
	assert.InDelta(t, math.Log(8), z, 1e-12)
	assert.InDelta(t, math.Log(0.25), xs[0], 1e-12)
	assert.InDelta(t, math.Log(0.75), xs[1], 1e-12)

	dead := []float64{math.Inf(-1), math.Inf(-1)}
	z = logspace.Normalize(dead)
	assert.True(t, math.IsInf(z, -1))
	assert.True(t, math.IsInf(dead[0], -1))
}

func TestSoftmaxSumsToOne(t *testing.T) {
	p := logspace.Softmax([]float64{-1, 0, 3, -20})
	require.Len(t, p, 4)
	assert.InDelta(t, 1.0, logspace.Sum(p), 1e-12)
	assert.Equal(t, 2, logspace.ArgMax(p))

	zero := logspace.Softmax([]float64{math.Inf(-1)})
	assert.Equal(t, []float64{0}, zero)
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, -1, logspace.ArgMax(nil))
	assert.Equal(t, 1, logspace.ArgMax([]float64{1, 3, 3}))
}
