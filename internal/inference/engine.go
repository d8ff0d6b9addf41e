package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samcharles93/lattice/pkg/classifier"
	fb "github.com/samcharles93/lattice/pkg/forwardbackward"
	"github.com/samcharles93/lattice/pkg/potential"
)

// sequenceModel is what the HMM engines need from hmm.Discrete and
// hmm.Gaussian.
type sequenceModel[O any] interface {
	potential.Function[O]
	CheckSequence(seq []O) error
	LogLikelihood(seq []O) (float64, error)
	Decode(seq []O) ([]int, float64, error)
}

// hmmEngine serves single HMMs and HMM classifiers over either observation
// type.
type hmmEngine[O any] struct {
	info   ModelInfo
	models []sequenceModel[O]
	clf    *classifier.Classifier[O]
	input  func(*Request) ([]O, error)
}

func (e *hmmEngine[O]) Info() ModelInfo { return e.info }

func (e *hmmEngine[O]) Close() error { return nil }

func (e *hmmEngine[O]) Classify(ctx context.Context, req *Request) (res *Result, err error) {
	seq, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	defer recoverPanic("classify", &err)

	start := time.Now()
	d, err := e.clf.Compute(seq)
	if err != nil {
		return nil, err
	}
	res = &Result{
		Class:                  d.Class,
		Label:                  e.info.Label(d.Class),
		Rejected:               d.Rejected(),
		Probabilities:          d.Probabilities,
		Rejection:              d.Rejection,
		LogLikelihoods:         d.LogLikelihoods,
		ThresholdLogLikelihood: d.ThresholdLogLikelihood,
		HasThreshold:           e.clf.HasThreshold(),
	}
	if !res.Rejected {
		res.Path, res.PathLogScore, err = e.models[d.Class].Decode(seq)
		if err != nil {
			return nil, err
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (e *hmmEngine[O]) Evaluate(ctx context.Context, req *Request) (ev *Evaluation, err error) {
	seq, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	defer recoverPanic("evaluate", &err)

	start := time.Now()
	ev = &Evaluation{Classes: make([]ClassEvaluation, len(e.models))}
	for c, m := range e.models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ce := ClassEvaluation{Class: c, Label: e.info.Label(c)}
		if ce.Path, ce.PathLogScore, err = m.Decode(seq); err != nil {
			return nil, fmt.Errorf("class %d: %w", c, err)
		}
		if req.IncludeTables {
			fwd, bwd, err := fb.ForwardBackward[O](m, seq, 0)
			if err != nil {
				return nil, fmt.Errorf("class %d: %w", c, err)
			}
			post, err := fb.Posteriors(fwd.Table, bwd)
			if err != nil {
				return nil, err
			}
			ce.LogLikelihood = fwd.LogLikelihood
			ce.Forward, ce.Backward, ce.Posteriors = fwd.Table.ToRows(), bwd.ToRows(), post.ToRows()
			ce.Scaling = append([]float64(nil), fwd.Scaling...)
		} else if ce.LogLikelihood, err = m.LogLikelihood(seq); err != nil {
			return nil, fmt.Errorf("class %d: %w", c, err)
		}
		ev.Classes[c] = ce
	}
	ev.Duration = time.Since(start)
	return ev, nil
}

func (e *hmmEngine[O]) prepare(ctx context.Context, req *Request) ([]O, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if req == nil {
		return nil, errors.New("request is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq, err := e.input(req)
	if err != nil {
		return nil, err
	}
	if err := e.models[0].CheckSequence(seq); err != nil {
		return nil, err
	}
	return seq, nil
}

func symbolsInput(req *Request) ([]int, error) {
	if len(req.Vectors) > 0 {
		return nil, fmt.Errorf("%w: model expects symbols, got vectors", ErrInput)
	}
	if len(req.Symbols) == 0 {
		return nil, potential.ErrEmptySequence
	}
	return req.Symbols, nil
}

func vectorsInput(req *Request) ([][]float64, error) {
	if len(req.Symbols) > 0 {
		return nil, fmt.Errorf("%w: model expects vectors, got symbols", ErrInput)
	}
	if len(req.Vectors) == 0 {
		return nil, potential.ErrEmptySequence
	}
	return req.Vectors, nil
}

func recoverPanic(op string, err *error) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("panic in %s: %v", op, rec)
	}
}
