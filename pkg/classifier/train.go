package classifier

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/lattice/pkg/hmm"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Topology names accepted by TrainConfig.
const (
	TopologyErgodic     = "ergodic"
	TopologyLeftToRight = "left-to-right"
)

// ErrEmptyClass means a class has no training sequences.
var ErrEmptyClass = fmt.Errorf("%w: classifier: class has no training sequences", potential.ErrInvalidArgument)

// TrainConfig controls Train.
type TrainConfig struct {
	Classes  int
	States   int
	Symbols  int
	Topology string
	// Deep is the left-to-right reach; ignored for ergodic models.
	Deep int
	Seed int64

	BaumWelch hmm.BaumWelch
	// Progress is called from the training goroutines and must be safe for
	// concurrent use. It overrides BaumWelch.Progress.
	Progress func(class, iteration int, logLikelihood float64)

	// Threshold also builds a rejection model from the trained classes.
	Threshold bool
	// Workers bounds how many classes train at once; <= 0 means all.
	Workers int
}

// Trained is the output of Train.
type Trained struct {
	Models    []*hmm.Discrete
	Priors    []float64
	Threshold *hmm.Discrete
	Results   []hmm.FitResult
}

// Classifier wraps the trained models in a Classifier.
func (t *Trained) Classifier(opts ...Option[int]) (*Classifier[int], error) {
	if t.Threshold != nil {
		opts = append([]Option[int]{WithThreshold[int](t.Threshold)}, opts...)
	}
	return New(AsScorers[int](t.Models), t.Priors, opts...)
}

// Train fits one discrete HMM per class with Baum-Welch. Classes train
// concurrently; priors are the class frequencies in labels.
func Train(ctx context.Context, cfg TrainConfig, seqs [][]int, labels []int) (*Trained, error) {
	if len(seqs) == 0 {
		return nil, hmm.ErrNoSequences
	}
	if len(labels) != len(seqs) {
		return nil, fmt.Errorf("%w: %d labels for %d sequences", potential.ErrInvalidArgument, len(labels), len(seqs))
	}
	if cfg.Classes <= 0 || cfg.States <= 0 || cfg.Symbols <= 0 {
		return nil, fmt.Errorf("%w: classes, states and symbols must be positive", potential.ErrInvalidArgument)
	}

	byClass := make([][][]int, cfg.Classes)
	for i, l := range labels {
		if l < 0 || l >= cfg.Classes {
			return nil, fmt.Errorf("%w: label %d at sequence %d", potential.ErrClassOutOfRange, l, i)
		}
		byClass[l] = append(byClass[l], seqs[i])
	}
	priors := make([]float64, cfg.Classes)
	for c, s := range byClass {
		if len(s) == 0 {
			return nil, fmt.Errorf("%w: class %d", ErrEmptyClass, c)
		}
		priors[c] = float64(len(s)) / float64(len(seqs))
	}

	out := &Trained{
		Models:  make([]*hmm.Discrete, cfg.Classes),
		Priors:  priors,
		Results: make([]hmm.FitResult, cfg.Classes),
	}
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for c := range byClass {
		g.Go(func() error {
			start, err := initialModel(cfg, c)
			if err != nil {
				return err
			}
			bw := cfg.BaumWelch
			if cfg.Progress != nil {
				bw.Progress = func(iter int, ll float64) { cfg.Progress(c, iter, ll) }
			}
			m, res, err := bw.Fit(gctx, start, byClass[c])
			if err != nil {
				return fmt.Errorf("class %d: %w", c, err)
			}
			out.Models[c] = m
			out.Results[c] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if cfg.Threshold {
		th, err := Threshold(out.Models)
		if err != nil {
			return nil, fmt.Errorf("threshold: %w", err)
		}
		out.Threshold = th
	}
	return out, nil
}

func initialModel(cfg TrainConfig, class int) (*hmm.Discrete, error) {
	var (
		init  []float64
		trans [][]float64
	)
	switch cfg.Topology {
	case "", TopologyErgodic:
		init, trans = hmm.Ergodic(cfg.States)
	case TopologyLeftToRight:
		init, trans = hmm.LeftToRight(cfg.States, cfg.Deep)
	default:
		return nil, fmt.Errorf("%w: unknown topology %q", potential.ErrInvalidArgument, cfg.Topology)
	}
	emit := hmm.RandomEmissions(cfg.States, cfg.Symbols, cfg.Seed+int64(class))
	return hmm.NewDiscrete(init, trans, emit)
}
