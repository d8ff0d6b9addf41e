package modelfile

import (
	"fmt"

	"github.com/samcharles93/lattice/pkg/classifier"
	"github.com/samcharles93/lattice/pkg/crf"
	"github.com/samcharles93/lattice/pkg/hmm"
)

// Discrete builds the discrete HMMs of an hmm or hmm-classifier document.
// Every model must share the same alphabet size.
func (d *Document) Discrete() ([]*hmm.Discrete, error) {
	out := make([]*hmm.Discrete, len(d.Models))
	for i, m := range d.Models {
		dm, err := hmm.NewDiscrete(m.Initial, m.Transitions, m.Emissions)
		if err != nil {
			return nil, fmt.Errorf("%w: model %d: %v", ErrInvalid, i, err)
		}
		if i > 0 && dm.Symbols() != out[0].Symbols() {
			return nil, fmt.Errorf("%w: model %d has %d symbols, want %d", ErrInvalid, i, dm.Symbols(), out[0].Symbols())
		}
		out[i] = dm
	}
	return out, nil
}

// ThresholdModel builds the rejection model, or returns nil if there is none.
func (d *Document) ThresholdModel() (*hmm.Discrete, error) {
	if d.Threshold == nil {
		return nil, nil
	}
	m, err := hmm.NewDiscrete(d.Threshold.Initial, d.Threshold.Transitions, d.Threshold.Emissions)
	if err != nil {
		return nil, fmt.Errorf("%w: threshold model: %v", ErrInvalid, err)
	}
	if k, ok := d.alphabet(); ok && m.Symbols() != k {
		return nil, fmt.Errorf("%w: threshold model has %d symbols, want %d", ErrInvalid, m.Symbols(), k)
	}
	return m, nil
}

// alphabet returns the alphabet size of the first class model.
func (d *Document) alphabet() (int, bool) {
	if len(d.Models) == 0 || len(d.Models[0].Emissions) == 0 {
		return 0, false
	}
	return len(d.Models[0].Emissions[0]), true
}

// GaussianModels builds the models of a gaussian-classifier document. Every
// model must observe vectors of the same dimension.
func (d *Document) GaussianModels() ([]*hmm.Gaussian, error) {
	out := make([]*hmm.Gaussian, len(d.Gaussian))
	for i, g := range d.Gaussian {
		m, err := hmm.NewGaussian(g.Initial, g.Transitions, g.Means, g.StdDevs)
		if err != nil {
			return nil, fmt.Errorf("%w: gaussian model %d: %v", ErrInvalid, i, err)
		}
		if i > 0 && m.Dimensions() != out[0].Dimensions() {
			return nil, fmt.Errorf("%w: gaussian model %d has dimension %d, want %d", ErrInvalid, i, m.Dimensions(), out[0].Dimensions())
		}
		out[i] = m
	}
	return out, nil
}

// Weights builds the potentials of an hcrf document.
func (d *Document) Weights() (*crf.Weights, error) {
	if d.HCRF == nil {
		return nil, fmt.Errorf("%w: no hcrf weights", ErrInvalid)
	}
	init := make([][]float64, len(d.HCRF.Initial))
	for c, row := range d.HCRF.Initial {
		init[c] = toFloats(row)
	}
	w, err := crf.NewWeights(init, toGrids(d.HCRF.Transitions), toGrids(d.HCRF.Emissions))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return w, nil
}

// ClassPriors returns the priors, or nil for uniform.
func (d *Document) ClassPriors() []float64 {
	if len(d.Priors) == 0 {
		return nil
	}
	return append([]float64(nil), d.Priors...)
}

// FromDiscrete converts a model back to its document form.
func FromDiscrete(m *hmm.Discrete) HMM {
	return HMM{Initial: m.Initial(), Transitions: m.Transitions(), Emissions: m.Emissions()}
}

// FromGaussian converts a model back to its document form.
func FromGaussian(m *hmm.Gaussian) GaussianHMM {
	return GaussianHMM{Initial: m.Initial(), Transitions: m.Transitions(), Means: m.Means(), StdDevs: m.StdDevs()}
}

// FromWeights converts CRF potentials to their document form.
func FromWeights(w *crf.Weights) *HCRF {
	h := &HCRF{}
	for c := 0; c < w.Outputs(); c++ {
		h.Initial = append(h.Initial, toWeights(w.Initial(c)))
		h.Transitions = append(h.Transitions, fromGrid(w.Transitions(c)))
		h.Emissions = append(h.Emissions, fromGrid(w.Emissions(c)))
	}
	return h
}

// FromTrained builds an hmm-classifier document from a training run.
func FromTrained(t *classifier.Trained, labels []string, topology string, sequences int) *Document {
	doc := &Document{
		Kind:   KindHMMClassifier,
		Labels: labels,
		Priors: append([]float64(nil), t.Priors...),
		Training: &Training{
			Sequences: sequences,
			Topology:  topology,
		},
	}
	for i, m := range t.Models {
		doc.Models = append(doc.Models, FromDiscrete(m))
		if i < len(t.Results) {
			doc.Training.Iterations = append(doc.Training.Iterations, t.Results[i].Iterations)
			doc.Training.LogLikelihood = append(doc.Training.LogLikelihood, t.Results[i].LogLikelihood)
		}
	}
	if t.Threshold != nil {
		th := FromDiscrete(t.Threshold)
		doc.Threshold = &th
	}
	return doc
}

func toFloats(ws []Weight) []float64 {
	out := make([]float64, len(ws))
	for i, w := range ws {
		out[i] = float64(w)
	}
	return out
}

func toWeights(fs []float64) []Weight {
	out := make([]Weight, len(fs))
	for i, f := range fs {
		out[i] = Weight(f)
	}
	return out
}

func toGrids(in [][][]Weight) [][][]float64 {
	out := make([][][]float64, len(in))
	for c, grid := range in {
		out[c] = make([][]float64, len(grid))
		for i, row := range grid {
			out[c][i] = toFloats(row)
		}
	}
	return out
}

func fromGrid(rows [][]float64) [][]Weight {
	out := make([][]Weight, len(rows))
	for i, r := range rows {
		out[i] = toWeights(r)
	}
	return out
}
