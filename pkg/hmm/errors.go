package hmm

import (
	"fmt"

	"github.com/samcharles93/lattice/pkg/potential"
)

var (
	// ErrShape means a parameter matrix has the wrong dimensions.
	ErrShape = fmt.Errorf("%w: hmm: parameter shape mismatch", potential.ErrInvalidArgument)

	// ErrNotStochastic means a probability vector has negative entries or
	// does not sum to one.
	ErrNotStochastic = fmt.Errorf("%w: hmm: probabilities must be non-negative and sum to 1", potential.ErrInvalidArgument)

	// ErrSymbolOutOfRange means an observation is not a valid symbol index.
	ErrSymbolOutOfRange = fmt.Errorf("%w: hmm: observation symbol out of range", potential.ErrInvalidArgument)

	// ErrDimension means a vector observation does not match the model's
	// emission dimension.
	ErrDimension = fmt.Errorf("%w: hmm: observation dimension mismatch", potential.ErrInvalidArgument)

	// ErrNoSequences means training was called without data.
	ErrNoSequences = fmt.Errorf("%w: hmm: no training sequences", potential.ErrInvalidArgument)

	// ErrImpossibleSequence means a training sequence has zero probability
	// under the current parameters.
	ErrImpossibleSequence = fmt.Errorf("%w: hmm: sequence has zero likelihood under the model", potential.ErrInvalidArgument)
)
