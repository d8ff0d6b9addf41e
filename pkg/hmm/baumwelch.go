package hmm

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	fb "github.com/samcharles93/lattice/pkg/forwardbackward"
)

// BaumWelch re-estimates the parameters of a Discrete model with
// expectation-maximisation over the scaled forward and backward tables.
//
// The zero value is usable: it runs up to DefaultMaxIterations iterations
// with DefaultTolerance.
type BaumWelch struct {
	// Tolerance is the relative change in total log-likelihood below which
	// training stops.
	Tolerance float64
	// MaxIterations caps the number of EM iterations.
	MaxIterations int
	// PseudoCount is added to every emission count before normalisation so
	// that unseen symbols keep a non-zero probability. Transition counts are
	// never smoothed, which preserves the model topology.
	PseudoCount float64
	// Progress, when set, is called after every iteration with the total
	// log-likelihood of the data under the parameters used in that
	// iteration.
	Progress func(iteration int, logLikelihood float64)
}

const (
	DefaultTolerance     = 1e-5
	DefaultMaxIterations = 100
)

// FitResult summarises a training run.
type FitResult struct {
	Iterations    int
	LogLikelihood float64
	Converged     bool
}

// Fit trains a copy of m on seqs and returns it. m is left untouched.
// Cancelling ctx stops training between iterations and returns ctx.Err().
func (b BaumWelch) Fit(ctx context.Context, m *Discrete, seqs [][]int) (*Discrete, FitResult, error) {
	if len(seqs) == 0 {
		return nil, FitResult{}, ErrNoSequences
	}
	for i, seq := range seqs {
		if err := m.CheckSequence(seq); err != nil {
			return nil, FitResult{}, fmt.Errorf("sequence %d: %w", i, err)
		}
	}
	tol := b.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	maxIter := b.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	cur := m.Clone()
	res := FitResult{LogLikelihood: math.Inf(-1)}
	prev := math.Inf(-1)
	for iter := 1; iter <= maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, res, err
		}
		next, ll, err := b.step(cur, seqs)
		if err != nil {
			return nil, res, err
		}
		res.Iterations = iter
		res.LogLikelihood = ll
		if b.Progress != nil {
			b.Progress(iter, ll)
		}
		cur = next
		if !math.IsInf(prev, -1) && math.Abs(ll-prev) <= tol*math.Abs(prev) {
			res.Converged = true
			break
		}
		prev = ll
	}
	return cur, res, nil
}

// step runs one E and one M step and returns the updated model together
// with the log-likelihood under the input model.
func (b BaumWelch) step(m *Discrete, seqs [][]int) (*Discrete, float64, error) {
	S, K := m.States(), m.Symbols()
	initNum := make([]float64, S)
	transNum := make([][]float64, S)
	emitNum := make([][]float64, S)
	for i := 0; i < S; i++ {
		transNum[i] = make([]float64, S)
		emitNum[i] = make([]float64, K)
	}

	var total float64
	for n, seq := range seqs {
		fwd, bwd, err := fb.ForwardBackward[int](m, seq, 0)
		if err != nil {
			return nil, 0, err
		}
		if math.IsInf(fwd.LogLikelihood, -1) {
			return nil, 0, fmt.Errorf("sequence %d: %w", n, ErrImpossibleSequence)
		}
		total += fwd.LogLikelihood

		gamma, err := fb.Posteriors(fwd.Table, bwd)
		if err != nil {
			return nil, 0, err
		}
		xi, err := fb.ExpectedTransitions[int](m, seq, 0, fwd, bwd)
		if err != nil {
			return nil, 0, err
		}

		floats.Add(initNum, gamma.Row(0))
		for i := 0; i < S; i++ {
			floats.Add(transNum[i], xi.Row(i))
		}
		for t, o := range seq {
			row := gamma.Row(t)
			for i := 0; i < S; i++ {
				emitNum[i][o] += row[i]
			}
		}
	}

	init := normalized(initNum, 0, m.Initial())
	old := m.Transitions()
	oldEmit := m.Emissions()
	trans := make([][]float64, S)
	emit := make([][]float64, S)
	for i := 0; i < S; i++ {
		trans[i] = normalized(transNum[i], 0, old[i])
		emit[i] = normalized(emitNum[i], b.PseudoCount, oldEmit[i])
	}
	next, err := NewDiscrete(init, trans, emit)
	if err != nil {
		return nil, 0, fmt.Errorf("re-estimation produced invalid parameters: %w", err)
	}
	return next, total, nil
}

// normalized returns (counts + pseudo) / Σ(counts + pseudo). A row with no
// mass keeps its previous value.
func normalized(counts []float64, pseudo float64, fallback []float64) []float64 {
	out := make([]float64, len(counts))
	copy(out, counts)
	if pseudo > 0 {
		floats.AddConst(pseudo, out)
	}
	sum := floats.Sum(out)
	if sum <= 0 {
		copy(out, fallback)
		return out
	}
	floats.Scale(1/sum, out)
	return out
}
