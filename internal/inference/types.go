package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/samcharles93/lattice/pkg/potential"
)

// ErrInput means the request carries the wrong kind of observations for the
// model, or none at all.
var ErrInput = fmt.Errorf("%w: inference: unsupported input", potential.ErrInvalidArgument)

// Input names the observation type a model consumes.
type Input string

const (
	InputSymbols Input = "symbols"
	InputVectors Input = "vectors"
)

// Engine scores observation sequences against one loaded model document.
// Engines are read-only after loading and safe for concurrent use.
type Engine interface {
	Classify(ctx context.Context, req *Request) (*Result, error)
	Evaluate(ctx context.Context, req *Request) (*Evaluation, error)
	Info() ModelInfo
	Close() error
}

// Request is a single observation sequence. Exactly one of Symbols and
// Vectors is used, depending on the model's Input.
type Request struct {
	Symbols []int
	Vectors [][]float64
	// IncludeTables asks Evaluate for the forward, backward and posterior
	// tables of every class.
	IncludeTables bool
}

// Result is the outcome of Classify.
type Result struct {
	Class         int
	Label         string
	Rejected      bool
	Probabilities []float64
	Rejection     float64
	// LogLikelihoods are the prior-weighted class scores.
	LogLikelihoods         []float64
	ThresholdLogLikelihood float64
	HasThreshold           bool
	// Path is the most likely state path under the winning class. Empty when
	// the sequence was rejected.
	Path         []int
	PathLogScore float64
	Duration     time.Duration
}

// Evaluation reports per-class scores for one sequence.
type Evaluation struct {
	Classes  []ClassEvaluation
	Duration time.Duration
}

// ClassEvaluation is the per-class part of an Evaluation. Tables are only
// filled when requested.
type ClassEvaluation struct {
	Class         int
	Label         string
	LogLikelihood float64
	Path          []int
	PathLogScore  float64

	Forward    [][]float64
	Backward   [][]float64
	Scaling    []float64
	Posteriors [][]float64
}

// ModelInfo describes a loaded model.
type ModelInfo struct {
	ID          string
	Name        string
	Kind        string
	Description string
	Input       Input
	Classes     int
	Labels      []string
	States      []int
	Symbols     int
	Dimensions  int
	Priors      []float64
	Threshold   bool
	Sensitivity float64
}

// Label returns the name of class c, or its index when unnamed.
func (m ModelInfo) Label(c int) string {
	if c >= 0 && c < len(m.Labels) && m.Labels[c] != "" {
		return m.Labels[c]
	}
	if c < 0 {
		return "rejected"
	}
	return fmt.Sprintf("%d", c)
}
