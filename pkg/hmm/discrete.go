package hmm

import (
	"fmt"

	fb "github.com/samcharles93/lattice/pkg/forwardbackward"
	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Discrete is an HMM over integer symbols.
type Discrete struct {
	chain
	logEmit [][]float64
}

var _ potential.Function[int] = (*Discrete)(nil)

// NewDiscrete builds a model from linear-space parameters: the initial
// distribution (S), transitions (S×S) and emissions (S×K).
func NewDiscrete(init []float64, trans, emit [][]float64) (*Discrete, error) {
	c, err := newChain(init, trans)
	if err != nil {
		return nil, err
	}
	if len(emit) != c.States() {
		return nil, fmt.Errorf("%w: emissions have %d rows, want %d", ErrShape, len(emit), c.States())
	}
	symbols := len(emit[0])
	if symbols == 0 {
		return nil, fmt.Errorf("%w: emissions have no symbols", ErrShape)
	}
	m := &Discrete{chain: c, logEmit: make([][]float64, len(emit))}
	for i, row := range emit {
		if len(row) != symbols {
			return nil, fmt.Errorf("%w: emission row %d has %d symbols, want %d", ErrShape, i, len(row), symbols)
		}
		if err := checkStochastic(fmt.Sprintf("emission row %d", i), row); err != nil {
			return nil, err
		}
		m.logEmit[i] = logspace.LogAll(row)
	}
	return m, nil
}

// Symbols is the size of the observation alphabet.
func (m *Discrete) Symbols() int { return len(m.logEmit[0]) }

// Emissions returns a copy of the emission matrix B.
func (m *Discrete) Emissions() [][]float64 { return expRows(m.logEmit) }

// LogEmission returns log B[state][symbol].
func (m *Discrete) LogEmission(state, symbol int) float64 { return m.logEmit[state][symbol] }

// LogPotential implements potential.Function. The class argument is
// ignored. Out-of-range symbols score -Inf; public methods reject them
// before any recurrence runs.
func (m *Discrete) LogPotential(prev, cur int, seq []int, t, _ int) float64 {
	o := seq[t]
	if o < 0 || o >= len(m.logEmit[cur]) {
		return logspace.NegInf
	}
	return m.transition(prev, cur) + m.logEmit[cur][o]
}

// CheckSequence reports whether seq is non-empty and every symbol is valid.
func (m *Discrete) CheckSequence(seq []int) error {
	if len(seq) == 0 {
		return potential.ErrEmptySequence
	}
	k := m.Symbols()
	for t, o := range seq {
		if o < 0 || o >= k {
			return fmt.Errorf("%w: symbol %d at position %d, alphabet size %d", ErrSymbolOutOfRange, o, t, k)
		}
	}
	return nil
}

// LogLikelihood returns log P(seq | model).
func (m *Discrete) LogLikelihood(seq []int) (float64, error) {
	if err := m.CheckSequence(seq); err != nil {
		return 0, err
	}
	return fb.LogLikelihood[int](m, seq, 0)
}

// Forward returns the scaled forward table and scaling constants.
func (m *Discrete) Forward(seq []int) (*fb.Result, error) {
	if err := m.CheckSequence(seq); err != nil {
		return nil, err
	}
	return fb.Forward[int](m, seq, 0)
}

// Decode returns the Viterbi path and its log probability.
func (m *Discrete) Decode(seq []int) ([]int, float64, error) {
	if err := m.CheckSequence(seq); err != nil {
		return nil, 0, err
	}
	return fb.Viterbi[int](m, seq, 0)
}

// Posterior returns P(s_t = i | seq) as a T×S table.
func (m *Discrete) Posterior(seq []int) (*fb.Table, error) {
	if err := m.CheckSequence(seq); err != nil {
		return nil, err
	}
	fwd, bwd, err := fb.ForwardBackward[int](m, seq, 0)
	if err != nil {
		return nil, err
	}
	return fb.Posteriors(fwd.Table, bwd)
}

// Generate samples a state path and an observation sequence of length n.
func (m *Discrete) Generate(n int, s *logspace.Sampler) (obs, states []int, err error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: sequence length must be positive, got %d", potential.ErrInvalidArgument, n)
	}
	obs = make([]int, n)
	states = make([]int, n)
	cur := s.DrawLog(m.logInit)
	for t := 0; t < n; t++ {
		if t > 0 {
			cur = s.DrawLog(m.logTrans[cur])
		}
		states[t] = cur
		obs[t] = s.DrawLog(m.logEmit[cur])
	}
	return obs, states, nil
}

// Clone returns a deep copy.
func (m *Discrete) Clone() *Discrete {
	out := &Discrete{chain: m.chain.clone(), logEmit: make([][]float64, len(m.logEmit))}
	for i, r := range m.logEmit {
		out.logEmit[i] = append([]float64(nil), r...)
	}
	return out
}
