package forwardbackward

import (
	"fmt"

	"github.com/samcharles93/lattice/pkg/potential"
)

// ErrInvalidArgument is re-exported from the potential package so callers of
// this package need a single import for errors.Is checks.
var ErrInvalidArgument = potential.ErrInvalidArgument

var (
	// ErrScalingLength means the scaling vector handed to Backward does not
	// have one entry per time step.
	ErrScalingLength = fmt.Errorf("%w: scaling vector length does not match sequence length", ErrInvalidArgument)

	// ErrShapeMismatch means two tables that must be combined have different
	// dimensions.
	ErrShapeMismatch = fmt.Errorf("%w: table dimensions do not match", ErrInvalidArgument)
)
