package logspace

import (
	"math"
	"math/rand"
)

// Sampler draws indices from categorical distributions. It is seeded so that
// generated sequences are reproducible. A Sampler is not safe for concurrent
// use.
type Sampler struct {
	rng  *rand.Rand
	prob []float64
}

// NewSampler returns a sampler seeded with seed.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Draw picks an index with probability proportional to weights[i].
// Negative weights are treated as zero. If every weight is zero the first
// index is returned.
func (s *Sampler) Draw(weights []float64) int {
	if len(weights) == 0 {
		panic("logspace: draw from empty distribution")
	}
	var sum float64
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum == 0 {
		return 0
	}
	r := s.rng.Float64() * sum
	var c float64
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		c += w
		last = i
		if r < c {
			return i
		}
	}
	return last
}

// DrawLog picks an index from a vector of unnormalized log-probabilities.
// The values are shifted by their maximum before exponentiation.
func (s *Sampler) DrawLog(logWeights []float64) int {
	if len(logWeights) == 0 {
		panic("logspace: draw from empty distribution")
	}
	if cap(s.prob) < len(logWeights) {
		s.prob = make([]float64, len(logWeights))
	}
	prob := s.prob[:len(logWeights)]
	maxv := math.Inf(-1)
	for _, v := range logWeights {
		if v > maxv {
			maxv = v
		}
	}
	if math.IsInf(maxv, -1) {
		return 0
	}
	for i, v := range logWeights {
		prob[i] = math.Exp(v - maxv)
	}
	return s.Draw(prob)
}
