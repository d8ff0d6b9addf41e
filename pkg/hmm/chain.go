package hmm

import (
	"fmt"
	"math"

	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
)

// StochasticTolerance is the allowed deviation of a probability row sum from 1.
const StochasticTolerance = 1e-6

// chain is the hidden state dynamics shared by every emission family.
type chain struct {
	logInit  []float64
	logTrans [][]float64
}

func newChain(init []float64, trans [][]float64) (chain, error) {
	n := len(init)
	if n == 0 {
		return chain{}, potential.ErrNoStates
	}
	if err := checkStochastic("initial", init); err != nil {
		return chain{}, err
	}
	if len(trans) != n {
		return chain{}, fmt.Errorf("%w: transitions have %d rows, want %d", ErrShape, len(trans), n)
	}
	c := chain{
		logInit:  logspace.LogAll(init),
		logTrans: make([][]float64, n),
	}
	for i, row := range trans {
		if len(row) != n {
			return chain{}, fmt.Errorf("%w: transition row %d has %d columns, want %d", ErrShape, i, len(row), n)
		}
		if err := checkStochastic(fmt.Sprintf("transition row %d", i), row); err != nil {
			return chain{}, err
		}
		c.logTrans[i] = logspace.LogAll(row)
	}
	return c, nil
}

func (c chain) States() int { return len(c.logInit) }

// Outputs is always 1: an HMM scores a single class.
func (c chain) Outputs() int { return 1 }

func (c chain) transition(prev, cur int) float64 {
	if prev == potential.Initial {
		return c.logInit[cur]
	}
	return c.logTrans[prev][cur]
}

// Initial returns a copy of the initial distribution π.
func (c chain) Initial() []float64 { return logspace.Exp(c.logInit) }

// Transitions returns a copy of the transition matrix A.
func (c chain) Transitions() [][]float64 { return expRows(c.logTrans) }

// LogInitial returns log π[i].
func (c chain) LogInitial(i int) float64 { return c.logInit[i] }

// LogTransition returns log A[i][j].
func (c chain) LogTransition(i, j int) float64 { return c.logTrans[i][j] }

func (c chain) clone() chain {
	out := chain{
		logInit:  append([]float64(nil), c.logInit...),
		logTrans: make([][]float64, len(c.logTrans)),
	}
	for i, r := range c.logTrans {
		out.logTrans[i] = append([]float64(nil), r...)
	}
	return out
}

func checkStochastic(name string, p []float64) error {
	var sum float64
	for _, v := range p {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s has entry %v", ErrNotStochastic, name, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > StochasticTolerance {
		return fmt.Errorf("%w: %s sums to %v", ErrNotStochastic, name, sum)
	}
	return nil
}

func expRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = logspace.Exp(r)
	}
	return out
}
