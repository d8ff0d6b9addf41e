package crf

import (
	"fmt"
	"math"

	fb "github.com/samcharles93/lattice/pkg/forwardbackward"
	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Rejected is returned by Decide when no class has a finite partition.
const Rejected = -1

// Hidden is a hidden-state conditional random field classifier. Each output
// class owns its own chain of hidden states; the class score is the log
// partition function of that chain and
//
//	P(c | seq) = Z_c(seq) / Σ_k Z_k(seq)
//
// A Hidden is read-only and safe for concurrent use.
type Hidden struct {
	w *Weights
}

// NewHidden wraps w as a classifier.
func NewHidden(w *Weights) *Hidden { return &Hidden{w: w} }

// Weights returns the underlying potentials.
func (h *Hidden) Weights() *Weights { return h.w }

// Classes returns the number of output classes.
func (h *Hidden) Classes() int { return h.w.Outputs() }

// Partition returns log Z_class(seq), computed by the log-space forward pass.
func (h *Hidden) Partition(seq []int, class int) (float64, error) {
	if err := h.w.CheckSequence(seq); err != nil {
		return 0, err
	}
	_, z, err := fb.LogForward[int](h.w, seq, class)
	return z, err
}

// LogPartitions returns log Z_c(seq) for every class.
func (h *Hidden) LogPartitions(seq []int) ([]float64, error) {
	if err := h.w.CheckSequence(seq); err != nil {
		return nil, err
	}
	out := make([]float64, h.Classes())
	for c := range out {
		z, err := fb.LogLikelihood[int](h.w, seq, c)
		if err != nil {
			return nil, err
		}
		out[c] = z
	}
	return out, nil
}

// Probabilities returns P(c | seq) for every class. When every partition is
// zero the result is all zeros.
func (h *Hidden) Probabilities(seq []int) ([]float64, error) {
	z, err := h.LogPartitions(seq)
	if err != nil {
		return nil, err
	}
	return logspace.Softmax(z), nil
}

// Decide returns the most probable class, or Rejected when every class
// assigns the sequence zero weight.
func (h *Hidden) Decide(seq []int) (int, error) {
	z, err := h.LogPartitions(seq)
	if err != nil {
		return 0, err
	}
	best := logspace.ArgMax(z)
	if math.IsInf(z[best], -1) {
		return Rejected, nil
	}
	return best, nil
}

// LogLikelihood returns log P(label | seq), the conditional log-likelihood
// maximized when training a discriminative model.
func (h *Hidden) LogLikelihood(seq []int, label int) (float64, error) {
	if label < 0 || label >= h.Classes() {
		return 0, fmt.Errorf("%w: label %d, %d classes", potential.ErrClassOutOfRange, label, h.Classes())
	}
	z, err := h.LogPartitions(seq)
	if err != nil {
		return 0, err
	}
	total := logspace.LogSumExp(z)
	if math.IsInf(total, -1) {
		return logspace.NegInf, nil
	}
	return z[label] - total, nil
}
