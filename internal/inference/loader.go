package inference

import (
	"fmt"
	"strings"

	"github.com/samcharles93/lattice/internal/modelfile"
	"github.com/samcharles93/lattice/pkg/classifier"
	"github.com/samcharles93/lattice/pkg/crf"
	"github.com/samcharles93/lattice/pkg/hmm"
)

// Loader turns model documents into engines.
type Loader struct {
	// Sensitivity overrides the document's threshold sensitivity when > 0.
	Sensitivity float64
	// NoThreshold ignores any threshold model in the document.
	NoThreshold bool
}

type LoadResult struct {
	Engine   Engine
	Document *modelfile.Document
}

// Load reads the document at modelPath and builds its engine.
func (l Loader) Load(modelPath string) (*LoadResult, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, fmt.Errorf("model path is required")
	}
	doc, err := modelfile.Load(modelPath)
	if err != nil {
		return nil, err
	}
	engine, err := l.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", modelPath, err)
	}
	return &LoadResult{Engine: engine, Document: doc}, nil
}

// Build creates the engine for an already decoded document.
func (l Loader) Build(doc *modelfile.Document) (Engine, error) {
	info := ModelInfo{
		Name:        doc.Name,
		Kind:        string(doc.Kind),
		Description: doc.Description,
		Classes:     doc.Classes(),
		Labels:      append([]string(nil), doc.Labels...),
		Priors:      doc.ClassPriors(),
	}
	if info.Priors == nil && info.Classes > 0 {
		info.Priors = make([]float64, info.Classes)
		for i := range info.Priors {
			info.Priors[i] = 1 / float64(info.Classes)
		}
	}
	info.ID = doc.Name

	switch doc.Kind {
	case modelfile.KindHMM, modelfile.KindHMMClassifier:
		return l.buildDiscrete(doc, info)
	case modelfile.KindGaussianClassifier:
		return l.buildGaussian(doc, info)
	case modelfile.KindHCRF:
		w, err := doc.Weights()
		if err != nil {
			return nil, err
		}
		info.Input = InputSymbols
		info.Symbols = w.Symbols()
		for c := 0; c < w.Outputs(); c++ {
			info.States = append(info.States, w.States())
		}
		return &hcrfEngine{info: info, hidden: crf.NewHidden(w)}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", modelfile.ErrInvalid, doc.Kind)
}

func (l Loader) buildDiscrete(doc *modelfile.Document, info ModelInfo) (Engine, error) {
	models, err := doc.Discrete()
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no models", modelfile.ErrInvalid)
	}
	var opts []classifier.Option[int]
	if !l.NoThreshold {
		th, err := doc.ThresholdModel()
		if err != nil {
			return nil, err
		}
		if th != nil {
			info.Threshold = true
			opts = append(opts, classifier.WithThreshold[int](th))
			if s := l.sensitivity(doc); s > 0 {
				info.Sensitivity = s
				opts = append(opts, classifier.WithSensitivity[int](s))
			} else {
				info.Sensitivity = 1
			}
		}
	}
	clf, err := classifier.New(classifier.AsScorers[int](models), doc.ClassPriors(), opts...)
	if err != nil {
		return nil, err
	}
	info.Input = InputSymbols
	info.Symbols = models[0].Symbols()
	e := &hmmEngine[int]{info: info, clf: clf, input: symbolsInput}
	for _, m := range models {
		e.models = append(e.models, m)
		e.info.States = append(e.info.States, m.States())
	}
	return e, nil
}

func (l Loader) buildGaussian(doc *modelfile.Document, info ModelInfo) (Engine, error) {
	models, err := doc.GaussianModels()
	if err != nil {
		return nil, err
	}
	clf, err := classifier.New(classifier.AsScorers[[]float64](models), doc.ClassPriors())
	if err != nil {
		return nil, err
	}
	info.Input = InputVectors
	info.Dimensions = models[0].Dimensions()
	e := &hmmEngine[[]float64]{info: info, clf: clf, input: vectorsInput}
	for _, m := range models {
		e.models = append(e.models, m)
		e.info.States = append(e.info.States, m.States())
	}
	return e, nil
}

func (l Loader) sensitivity(doc *modelfile.Document) float64 {
	if l.Sensitivity > 0 {
		return l.Sensitivity
	}
	return doc.Sensitivity
}

var (
	_ sequenceModel[int]       = (*hmm.Discrete)(nil)
	_ sequenceModel[[]float64] = (*hmm.Gaussian)(nil)
)
