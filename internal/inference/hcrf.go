package inference

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/samcharles93/lattice/pkg/crf"
	fb "github.com/samcharles93/lattice/pkg/forwardbackward"
	"github.com/samcharles93/lattice/pkg/logspace"
)

type hcrfEngine struct {
	info   ModelInfo
	hidden *crf.Hidden
}

func (e *hcrfEngine) Info() ModelInfo { return e.info }

func (e *hcrfEngine) Close() error { return nil }

func (e *hcrfEngine) prepare(ctx context.Context, req *Request) ([]int, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if req == nil {
		return nil, errors.New("request is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq, err := symbolsInput(req)
	if err != nil {
		return nil, err
	}
	return seq, e.hidden.Weights().CheckSequence(seq)
}

func (e *hcrfEngine) Classify(ctx context.Context, req *Request) (res *Result, err error) {
	seq, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	defer recoverPanic("classify", &err)

	start := time.Now()
	z, err := e.hidden.LogPartitions(seq)
	if err != nil {
		return nil, err
	}
	res = &Result{
		Class:                  logspace.ArgMax(z),
		LogLikelihoods:         z,
		Probabilities:          logspace.Softmax(z),
		ThresholdLogLikelihood: math.Inf(-1),
	}
	if math.IsInf(z[res.Class], -1) {
		res.Class, res.Rejected = crf.Rejected, true
	} else {
		res.Path, res.PathLogScore, err = fb.Viterbi[int](e.hidden.Weights(), seq, res.Class)
		if err != nil {
			return nil, err
		}
	}
	res.Label = e.info.Label(res.Class)
	res.Duration = time.Since(start)
	return res, nil
}

func (e *hcrfEngine) Evaluate(ctx context.Context, req *Request) (ev *Evaluation, err error) {
	seq, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	defer recoverPanic("evaluate", &err)

	start := time.Now()
	w := e.hidden.Weights()
	ev = &Evaluation{Classes: make([]ClassEvaluation, w.Outputs())}
	for c := range ev.Classes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ce := ClassEvaluation{Class: c, Label: e.info.Label(c)}
		lnF, z, err := fb.LogForward[int](w, seq, c)
		if err != nil {
			return nil, err
		}
		ce.LogLikelihood = z
		if ce.Path, ce.PathLogScore, err = fb.Viterbi[int](w, seq, c); err != nil {
			return nil, err
		}
		if req.IncludeTables {
			lnB, err := fb.LogBackward[int](w, seq, c)
			if err != nil {
				return nil, err
			}
			post, err := fb.LogPosteriors(lnF, lnB, z)
			if err != nil {
				return nil, err
			}
			ce.Posteriors = expRows(post)
		}
		ev.Classes[c] = ce
	}
	ev.Duration = time.Since(start)
	return ev, nil
}

func expRows(t *fb.Table) [][]float64 {
	rows := t.ToRows()
	for _, r := range rows {
		for i, v := range r {
			r[i] = math.Exp(v)
		}
	}
	return rows
}
