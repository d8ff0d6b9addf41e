package crf

import (
	"fmt"
	"math"

	fb "github.com/samcharles93/lattice/pkg/forwardbackward"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Chain is a linear-chain conditional random field: the hidden states are
// the labels and there is a single output. It labels every position of a
// sequence rather than the sequence as a whole.
type Chain struct {
	w *Weights
}

// NewChain wraps single-output weights.
func NewChain(w *Weights) (*Chain, error) {
	if w.Outputs() != 1 {
		return nil, fmt.Errorf("%w: linear chain needs one output, got %d", ErrShape, w.Outputs())
	}
	return &Chain{w: w}, nil
}

// Labels returns the number of labels.
func (c *Chain) Labels() int { return c.w.States() }

// Decode returns the highest scoring label sequence and its unnormalized
// log score.
func (c *Chain) Decode(seq []int) ([]int, float64, error) {
	if err := c.w.CheckSequence(seq); err != nil {
		return nil, 0, err
	}
	return fb.Viterbi[int](c.w, seq, 0)
}

// LogPartition returns log Z(seq) summed over every label sequence.
func (c *Chain) LogPartition(seq []int) (float64, error) {
	if err := c.w.CheckSequence(seq); err != nil {
		return 0, err
	}
	return fb.LogLikelihood[int](c.w, seq, 0)
}

// Marginals returns P(y_t = j | seq) as a T×labels table. Rows of an
// impossible sequence are all zero.
func (c *Chain) Marginals(seq []int) (*fb.Table, error) {
	if err := c.w.CheckSequence(seq); err != nil {
		return nil, err
	}
	lnF, z, err := fb.LogForward[int](c.w, seq, 0)
	if err != nil {
		return nil, err
	}
	lnB, err := fb.LogBackward[int](c.w, seq, 0)
	if err != nil {
		return nil, err
	}
	post, err := fb.LogPosteriors(lnF, lnB, z)
	if err != nil {
		return nil, err
	}
	for i, v := range post.Data {
		post.Data[i] = math.Exp(v)
	}
	return post, nil
}

// Score returns the unnormalized log score of labels for seq.
func (c *Chain) Score(seq, labels []int) (float64, error) {
	if err := c.w.CheckSequence(seq); err != nil {
		return 0, err
	}
	if len(labels) != len(seq) {
		return 0, fmt.Errorf("%w: %d labels for %d observations", ErrLabels, len(labels), len(seq))
	}
	prev, score := potential.Initial, 0.0
	for t, y := range labels {
		if y < 0 || y >= c.Labels() {
			return 0, fmt.Errorf("%w: label %d at position %d", ErrLabels, y, t)
		}
		score += c.w.LogPotential(prev, y, seq, t, 0)
		prev = y
	}
	return score, nil
}

// LogLikelihood returns log P(labels | seq).
func (c *Chain) LogLikelihood(seq, labels []int) (float64, error) {
	s, err := c.Score(seq, labels)
	if err != nil {
		return 0, err
	}
	z, err := c.LogPartition(seq)
	if err != nil {
		return 0, err
	}
	if math.IsInf(z, -1) {
		return math.Inf(-1), nil
	}
	return s - z, nil
}
