// Package classifier turns a set of per-class sequence models into a
// maximum a posteriori sequence classifier with optional rejection.
//
// For each class c the score is log P(seq | model_c) + log prior_c. When a
// threshold model is configured its score (plus log sensitivity) joins the
// normalisation, and if it beats every class score the decision is Rejected.
package classifier

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/lattice/pkg/logspace"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Rejected is the class returned when the threshold model wins.
const Rejected = -1

// PriorTolerance is the allowed deviation of the prior sum from 1.
const PriorTolerance = 1e-6

var (
	// ErrNoModels means the classifier was built without class models.
	ErrNoModels = fmt.Errorf("%w: classifier: at least one class model is required", potential.ErrInvalidArgument)

	// ErrPriors means the priors have the wrong length, contain negative
	// values or do not sum to one.
	ErrPriors = fmt.Errorf("%w: classifier: priors must match the classes, be non-negative and sum to 1", potential.ErrInvalidArgument)

	// ErrSensitivity means the threshold sensitivity is not positive.
	ErrSensitivity = fmt.Errorf("%w: classifier: sensitivity must be positive", potential.ErrInvalidArgument)
)

// Scorer is anything that can report the log-likelihood of a sequence.
// hmm.Discrete and hmm.Gaussian satisfy it for int and []float64
// observations respectively.
type Scorer[O any] interface {
	LogLikelihood(seq []O) (float64, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc[O any] func(seq []O) (float64, error)

func (f ScorerFunc[O]) LogLikelihood(seq []O) (float64, error) { return f(seq) }

// AsScorers widens a slice of concrete models to []Scorer[O].
func AsScorers[O any, M Scorer[O]](models []M) []Scorer[O] {
	out := make([]Scorer[O], len(models))
	for i, m := range models {
		out[i] = m
	}
	return out
}

// Option configures a Classifier.
type Option[O any] func(*Classifier[O]) error

// WithThreshold sets the rejection model.
func WithThreshold[O any](m Scorer[O]) Option[O] {
	return func(c *Classifier[O]) error {
		c.threshold = m
		return nil
	}
}

// WithSensitivity scales the threshold model's likelihood. Values above 1
// reject more, values below 1 reject less. The default is 1.
func WithSensitivity[O any](s float64) Option[O] {
	return func(c *Classifier[O]) error {
		if !(s > 0) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: got %v", ErrSensitivity, s)
		}
		c.logSensitivity = math.Log(s)
		return nil
	}
}

// Classifier is immutable once built and safe for concurrent use as long as
// its models are.
type Classifier[O any] struct {
	models         []Scorer[O]
	logPriors      []float64
	threshold      Scorer[O]
	logSensitivity float64
}

// New builds a classifier. A nil priors slice means uniform priors.
func New[O any](models []Scorer[O], priors []float64, opts ...Option[O]) (*Classifier[O], error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	if priors == nil {
		priors = make([]float64, len(models))
		for i := range priors {
			priors[i] = 1 / float64(len(models))
		}
	}
	if err := checkPriors(priors, len(models)); err != nil {
		return nil, err
	}
	c := &Classifier[O]{
		models:    append([]Scorer[O](nil), models...),
		logPriors: logspace.LogAll(priors),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func checkPriors(priors []float64, n int) error {
	if len(priors) != n {
		return fmt.Errorf("%w: got %d priors for %d classes", ErrPriors, len(priors), n)
	}
	var sum float64
	for _, p := range priors {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("%w: prior %v", ErrPriors, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > PriorTolerance {
		return fmt.Errorf("%w: priors sum to %v", ErrPriors, sum)
	}
	return nil
}

// Classes is the number of class models.
func (c *Classifier[O]) Classes() int { return len(c.models) }

// Priors returns a copy of the class priors.
func (c *Classifier[O]) Priors() []float64 { return logspace.Exp(c.logPriors) }

// HasThreshold reports whether a rejection model is configured.
func (c *Classifier[O]) HasThreshold() bool { return c.threshold != nil }

// Sensitivity returns the threshold sensitivity.
func (c *Classifier[O]) Sensitivity() float64 { return math.Exp(c.logSensitivity) }

// Decision is the full outcome of classifying one sequence.
type Decision struct {
	// Class is the winning class index or Rejected.
	Class int
	// Probabilities holds P(class | seq) for each class. Without a threshold
	// model they sum to one; with one they sum to 1 - Rejection.
	Probabilities []float64
	// Rejection is the posterior mass of the threshold model.
	Rejection float64
	// LogLikelihoods holds log P(seq | model_c) + log prior_c.
	LogLikelihoods []float64
	// ThresholdLogLikelihood is the threshold score, -Inf when absent.
	ThresholdLogLikelihood float64
}

// Rejected reports whether the threshold model won.
func (d Decision) Rejected() bool { return d.Class == Rejected }

// LogLikelihoods returns the prior-weighted class scores.
func (c *Classifier[O]) LogLikelihoods(seq []O) ([]float64, error) {
	scores := make([]float64, len(c.models))
	for i, m := range c.models {
		ll, err := m.LogLikelihood(seq)
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", i, err)
		}
		scores[i] = ll + c.logPriors[i]
	}
	return scores, nil
}

// Compute scores seq against every class and the threshold model, normalises
// with log-sum-exp and picks the arg-max. If every score is -Inf the
// sequence is impossible under all models: probabilities are all zero and
// the decision is Rejected.
func (c *Classifier[O]) Compute(seq []O) (Decision, error) {
	scores, err := c.LogLikelihoods(seq)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{
		LogLikelihoods:         scores,
		ThresholdLogLikelihood: math.Inf(-1),
		Probabilities:          make([]float64, len(scores)),
	}
	all := scores
	if c.threshold != nil {
		th, err := c.threshold.LogLikelihood(seq)
		if err != nil {
			return Decision{}, fmt.Errorf("threshold: %w", err)
		}
		d.ThresholdLogLikelihood = th + c.logSensitivity
		all = append(append([]float64(nil), scores...), d.ThresholdLogLikelihood)
	}

	z := logspace.LogSumExp(all)
	if math.IsInf(z, -1) {
		d.Class = Rejected
		return d, nil
	}
	for i, s := range scores {
		d.Probabilities[i] = math.Exp(s - z)
	}
	if c.threshold != nil {
		d.Rejection = math.Exp(d.ThresholdLogLikelihood - z)
	}

	best := logspace.ArgMax(scores)
	d.Class = best
	if c.threshold != nil && d.ThresholdLogLikelihood > scores[best] {
		d.Class = Rejected
	}
	return d, nil
}

// Decide returns the winning class index or Rejected.
func (c *Classifier[O]) Decide(seq []O) (int, error) {
	d, err := c.Compute(seq)
	if err != nil {
		return 0, err
	}
	return d.Class, nil
}

// Probabilities returns P(class | seq) for each class.
func (c *Classifier[O]) Probabilities(seq []O) ([]float64, error) {
	d, err := c.Compute(seq)
	if err != nil {
		return nil, err
	}
	return d.Probabilities, nil
}

// DecideBatch classifies seqs concurrently with at most workers goroutines
// (workers <= 0 means one per sequence). The first error cancels the rest.
// Results are returned in input order.
func (c *Classifier[O]) DecideBatch(ctx context.Context, seqs [][]O, workers int) ([]Decision, error) {
	out := make([]Decision, len(seqs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, seq := range seqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := c.Compute(seq)
			if err != nil {
				return fmt.Errorf("sequence %d: %w", i, err)
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
