// Package crf implements conditional random fields over discrete symbol
// sequences on top of the forward-backward recurrences.
//
// Weights holds per-class log-potential tables. Hidden treats each class as
// its own hidden-state chain and classifies whole sequences by comparing the
// class partition functions. Chain is the single-output, linear-chain case
// used for labelling each position.
package crf

import (
	"fmt"
	"math"

	"github.com/samcharles93/lattice/pkg/hmm"
	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
)

var (
	// ErrShape means the weight tables do not line up.
	ErrShape = fmt.Errorf("%w: crf: weight shape mismatch", potential.ErrInvalidArgument)

	// ErrSymbolOutOfRange means an observation is not a valid symbol.
	ErrSymbolOutOfRange = fmt.Errorf("%w: crf: observation symbol out of range", potential.ErrInvalidArgument)

	// ErrLabels means a label sequence does not match the observations or
	// contains an unknown label.
	ErrLabels = fmt.Errorf("%w: crf: invalid label sequence", potential.ErrInvalidArgument)
)

// Weights are log-potentials indexed by output class:
//
//	init[c][s]        score of starting in state s
//	trans[c][i][j]    score of moving from state i to j
//	emit[c][s][k]     score of state s observing symbol k
//
// Entries may be any real number or -Inf; they are not probabilities.
type Weights struct {
	init  [][]float64
	trans [][][]float64
	emit  [][][]float64
}

var _ potential.Function[int] = (*Weights)(nil)

// NewWeights validates and copies the tables.
func NewWeights(init [][]float64, trans [][][]float64, emit [][][]float64) (*Weights, error) {
	classes := len(init)
	if classes == 0 || len(trans) != classes || len(emit) != classes {
		return nil, fmt.Errorf("%w: need the same non-zero number of classes in every table", ErrShape)
	}
	states := len(init[0])
	if states == 0 {
		return nil, potential.ErrNoStates
	}
	if len(emit[0]) != states || len(emit[0][0]) == 0 {
		return nil, fmt.Errorf("%w: emission table must be states×symbols", ErrShape)
	}
	symbols := len(emit[0][0])

	w := &Weights{
		init:  make([][]float64, classes),
		trans: make([][][]float64, classes),
		emit:  make([][][]float64, classes),
	}
	for c := 0; c < classes; c++ {
		if len(init[c]) != states {
			return nil, fmt.Errorf("%w: class %d initial weights", ErrShape, c)
		}
		w.init[c] = append([]float64(nil), init[c]...)
		w.trans[c] = copyGrid(trans[c], states, states)
		w.emit[c] = copyGrid(emit[c], states, symbols)
		if w.trans[c] == nil || w.emit[c] == nil {
			return nil, fmt.Errorf("%w: class %d transition or emission weights", ErrShape, c)
		}
		for _, v := range w.init[c] {
			if math.IsNaN(v) || math.IsInf(v, 1) {
				return nil, fmt.Errorf("%w: class %d has non-finite weight %v", potential.ErrInvalidArgument, c, v)
			}
		}
	}
	return w, nil
}

func copyGrid(src [][]float64, rows, cols int) [][]float64 {
	if len(src) != rows {
		return nil
	}
	out := make([][]float64, rows)
	for i, r := range src {
		if len(r) != cols {
			return nil
		}
		for _, v := range r {
			if math.IsNaN(v) || math.IsInf(v, 1) {
				return nil
			}
		}
		out[i] = append([]float64(nil), r...)
	}
	return out
}

// FromHMMs builds the HCRF equivalent of an HMM classifier: the class
// partition functions equal prior_c·P(seq | model_c), so the HCRF posterior
// matches the generative classifier's posterior exactly. All models must
// share the state count and alphabet. A nil priors slice means uniform.
func FromHMMs(models []*hmm.Discrete, priors []float64) (*Weights, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrShape)
	}
	if priors == nil {
		priors = make([]float64, len(models))
		for i := range priors {
			priors[i] = 1 / float64(len(models))
		}
	}
	if len(priors) != len(models) {
		return nil, fmt.Errorf("%w: %d priors for %d models", ErrShape, len(priors), len(models))
	}
	S, K := models[0].States(), models[0].Symbols()
	init := make([][]float64, len(models))
	trans := make([][][]float64, len(models))
	emit := make([][][]float64, len(models))
	for c, m := range models {
		if m.States() != S || m.Symbols() != K {
			return nil, fmt.Errorf("%w: model %d is %d states×%d symbols, want %d×%d", ErrShape, c, m.States(), m.Symbols(), S, K)
		}
		lp := logspace.SafeLog(priors[c])
		init[c] = make([]float64, S)
		trans[c] = make([][]float64, S)
		emit[c] = make([][]float64, S)
		for i := 0; i < S; i++ {
			init[c][i] = lp + m.LogInitial(i)
			trans[c][i] = make([]float64, S)
			for j := 0; j < S; j++ {
				trans[c][i][j] = m.LogTransition(i, j)
			}
			emit[c][i] = make([]float64, K)
			for k := 0; k < K; k++ {
				emit[c][i][k] = m.LogEmission(i, k)
			}
		}
	}
	return NewWeights(init, trans, emit)
}

func (w *Weights) States() int  { return len(w.init[0]) }
func (w *Weights) Outputs() int { return len(w.init) }
func (w *Weights) Symbols() int { return len(w.emit[0][0]) }

// LogPotential implements potential.Function.
func (w *Weights) LogPotential(prev, cur int, seq []int, t, class int) float64 {
	o := seq[t]
	e := w.emit[class][cur]
	if o < 0 || o >= len(e) {
		return logspace.NegInf
	}
	if prev == potential.Initial {
		return w.init[class][cur] + e[o]
	}
	return w.trans[class][prev][cur] + e[o]
}

// CheckSequence reports whether seq is non-empty with valid symbols.
func (w *Weights) CheckSequence(seq []int) error {
	if len(seq) == 0 {
		return potential.ErrEmptySequence
	}
	k := w.Symbols()
	for t, o := range seq {
		if o < 0 || o >= k {
			return fmt.Errorf("%w: symbol %d at position %d, alphabet size %d", ErrSymbolOutOfRange, o, t, k)
		}
	}
	return nil
}

// Initial returns a copy of the initial weights of class c.
func (w *Weights) Initial(c int) []float64 { return append([]float64(nil), w.init[c]...) }

// Transitions returns a copy of the transition weights of class c.
func (w *Weights) Transitions(c int) [][]float64 { return copyRows(w.trans[c]) }

// Emissions returns a copy of the emission weights of class c.
func (w *Weights) Emissions(c int) [][]float64 { return copyRows(w.emit[c]) }

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
