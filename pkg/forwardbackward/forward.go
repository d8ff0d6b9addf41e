package forwardbackward

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Result is the output of a scaled forward pass.
type Result struct {
	// Table holds the scaled forward variables; each row sums to 1 unless
	// the prefix is impossible, in which case the row is all zeros.
	Table *Table
	// LogScaling holds log c[t]. Backward and ExpectedTransitions read these.
	LogScaling []float64
	// Scaling holds c[t] = exp(LogScaling[t]). A single step far in the tail
	// can underflow to 0 here while LogScaling stays finite.
	Scaling []float64
	// LogLikelihood is Σ log c[t], i.e. log of the total path weight.
	LogLikelihood float64
}

// Forward runs the scaled probability-space forward recurrence.
//
// Row 0 is exp(φ(Initial, j, 0)). Row t is Σ_i α̂[t-1][i]·exp(φ(i, j, t)).
// Every row is divided by its sum c[t]. The sums are formed from log terms
// shifted by their maximum, so a step whose potentials are all far below
// the float64 range still yields a normalized row and a finite log c[t].
//
// Errors:
//   - potential.ErrEmptySequence   if len(seq) == 0
//   - potential.ErrNoStates        if fn.States() == 0
//   - potential.ErrClassOutOfRange if class is not a valid output
//
// An impossible sequence is not an error: its log scaling constant is -Inf
// and so is the log-likelihood.
func Forward[O any](fn potential.Function[O], seq []O, class int) (*Result, error) {
	if err := potential.Validate(fn, seq, class); err != nil {
		return nil, err
	}
	T, S := len(seq), fn.States()
	fwd := NewTable(T, S)
	logScaling := make([]float64, T)
	terms := make([]float64, S)

	row := fwd.Row(0)
	for j := range row {
		row[j] = fn.LogPotential(potential.Initial, j, seq, 0, class)
	}
	logScaling[0] = expScaled(row)

	for t := 1; t < T; t++ {
		prev, cur := fwd.Row(t-1), fwd.Row(t)
		for j := 0; j < S; j++ {
			for i := 0; i < S; i++ {
				terms[i] = logspace.SafeLog(prev[i]) + fn.LogPotential(i, j, seq, t, class)
			}
			cur[j] = logspace.LogSumExp(terms)
		}
		logScaling[t] = expScaled(cur)
	}

	return &Result{
		Table:         fwd,
		LogScaling:    logScaling,
		Scaling:       logspace.Exp(logScaling),
		LogLikelihood: floats.Sum(logScaling),
	}, nil
}

// ForwardUnscaled runs the forward recurrence without scaling and returns
// the table together with log Σ_j α[T-1][j].
func ForwardUnscaled[O any](fn potential.Function[O], seq []O, class int) (*Table, float64, error) {
	if err := potential.Validate(fn, seq, class); err != nil {
		return nil, 0, err
	}
	T, S := len(seq), fn.States()
	fwd := NewTable(T, S)

	row := fwd.Row(0)
	for j := range row {
		row[j] = math.Exp(fn.LogPotential(potential.Initial, j, seq, 0, class))
	}
	for t := 1; t < T; t++ {
		prev, cur := fwd.Row(t-1), fwd.Row(t)
		for j := 0; j < S; j++ {
			var sum float64
			for i := 0; i < S; i++ {
				sum += prev[i] * math.Exp(fn.LogPotential(i, j, seq, t, class))
			}
			cur[j] = sum
		}
	}
	return fwd, logspace.SafeLog(floats.Sum(fwd.Row(T - 1))), nil
}

// LogForward runs the forward recurrence in log space:
//
//	lnα[0][j] = φ(Initial, j, 0)
//	lnα[t][j] = logsumexp_i(lnα[t-1][i] + φ(i, j, t))
//
// It returns the table and logsumexp_j(lnα[T-1][j]). Zero potentials show up
// as -Inf entries.
func LogForward[O any](fn potential.Function[O], seq []O, class int) (*Table, float64, error) {
	if err := potential.Validate(fn, seq, class); err != nil {
		return nil, 0, err
	}
	T, S := len(seq), fn.States()
	lnFwd := NewTable(T, S)
	terms := make([]float64, S)

	row := lnFwd.Row(0)
	for j := range row {
		row[j] = fn.LogPotential(potential.Initial, j, seq, 0, class)
	}
	for t := 1; t < T; t++ {
		prev, cur := lnFwd.Row(t-1), lnFwd.Row(t)
		for j := 0; j < S; j++ {
			for i := 0; i < S; i++ {
				terms[i] = prev[i] + fn.LogPotential(i, j, seq, t, class)
			}
			cur[j] = logspace.LogSumExp(terms)
		}
	}
	return lnFwd, logspace.LogSumExp(lnFwd.Row(T - 1)), nil
}

// LogLikelihood is a shortcut for the log-space forward pass when only the
// total is needed. It keeps two rows instead of the whole table.
func LogLikelihood[O any](fn potential.Function[O], seq []O, class int) (float64, error) {
	if err := potential.Validate(fn, seq, class); err != nil {
		return 0, err
	}
	S := fn.States()
	prev := make([]float64, S)
	cur := make([]float64, S)
	terms := make([]float64, S)
	for j := range prev {
		prev[j] = fn.LogPotential(potential.Initial, j, seq, 0, class)
	}
	for t := 1; t < len(seq); t++ {
		for j := 0; j < S; j++ {
			for i := 0; i < S; i++ {
				terms[i] = prev[i] + fn.LogPotential(i, j, seq, t, class)
			}
			cur[j] = logspace.LogSumExp(terms)
		}
		prev, cur = cur, prev
	}
	return logspace.LogSumExp(prev), nil
}

// expScaled turns a row of log values into a normalized probability row
// in place and returns the log of its sum. A row of -Inf becomes all zeros
// and the result is -Inf.
func expScaled(row []float64) float64 {
	shift := floats.Max(row)
	if math.IsInf(shift, -1) {
		for j := range row {
			row[j] = 0
		}
		return shift
	}
	for j, v := range row {
		row[j] = math.Exp(v - shift)
	}
	return shift + math.Log(scaleRow(row))
}

// scaleRow divides row by its sum and returns the sum. A zero row is left
// as is.
func scaleRow(row []float64) float64 {
	s := floats.Sum(row)
	if s != 0 {
		floats.Scale(1/s, row)
	}
	return s
}
