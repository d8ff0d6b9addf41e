// Package potential defines the scoring contract shared by hidden Markov
// models and conditional random fields.
//
// A potential function assigns a log-potential to a (previous state, current
// state) pair at one position of an observation sequence. For an HMM the
// value is log A[prev][cur] + log B[cur][o_t] (log π[cur] + log B[cur][o_0]
// for the initial call). For a CRF it is a weighted feature sum. The
// forward-backward, Viterbi and classification code only ever talks to this
// interface.
package potential

import (
	"errors"
	"fmt"
)

// Initial is passed as the previous state when scoring the first position
// of a sequence.
const Initial = -1

// ErrInvalidArgument is the root of every argument validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	// ErrEmptySequence means the observation sequence has length zero.
	ErrEmptySequence = fmt.Errorf("%w: observation sequence is empty", ErrInvalidArgument)

	// ErrNoStates means the function reports zero hidden states.
	ErrNoStates = fmt.Errorf("%w: model has no states", ErrInvalidArgument)

	// ErrClassOutOfRange means the output class index is not in [0, Outputs()).
	ErrClassOutOfRange = fmt.Errorf("%w: output class out of range", ErrInvalidArgument)
)

// Function scores state transitions over sequences of O.
//
// LogPotential must be pure: calling it must not mutate the function or the
// sequence, so a single Function may be evaluated from several goroutines.
// A zero potential is reported as -Inf.
type Function[O any] interface {
	// States is the number of hidden states.
	States() int
	// Outputs is the number of output classes the function can score.
	// Plain HMMs report 1.
	Outputs() int
	// LogPotential scores moving from prev (or Initial) to cur at position t.
	LogPotential(prev, cur int, seq []O, t, class int) float64
}

// Validate checks the arguments every recurrence needs before it allocates
// its table.
func Validate[O any](fn Function[O], seq []O, class int) error {
	if len(seq) == 0 {
		return ErrEmptySequence
	}
	if fn.States() <= 0 {
		return ErrNoStates
	}
	if class < 0 || class >= fn.Outputs() {
		return fmt.Errorf("%w: got %d, outputs=%d", ErrClassOutOfRange, class, fn.Outputs())
	}
	return nil
}

// Func adapts a plain closure into a Function.
type Func[O any] struct {
	NumStates  int
	NumOutputs int
	Score      func(prev, cur int, seq []O, t, class int) float64
}

func (f Func[O]) States() int { return f.NumStates }

func (f Func[O]) Outputs() int {
	if f.NumOutputs <= 0 {
		return 1
	}
	return f.NumOutputs
}

func (f Func[O]) LogPotential(prev, cur int, seq []O, t, class int) float64 {
	return f.Score(prev, cur, seq, t, class)
}
