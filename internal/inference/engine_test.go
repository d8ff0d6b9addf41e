package inference

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samcharles93/lattice/internal/modelfile"
	"github.com/samcharles93/lattice/pkg/crf"
	"github.com/samcharles93/lattice/pkg/potential"
)

func discreteDoc() *modelfile.Document {
	return &modelfile.Document{
		Kind:   modelfile.KindHMMClassifier,
		Name:   "coins",
		Labels: []string{"fair", "loaded"},
		Models: []modelfile.HMM{
			{Initial: []float64{1}, Transitions: [][]float64{{1}}, Emissions: [][]float64{{0.5, 0.5}}},
			{Initial: []float64{1}, Transitions: [][]float64{{1}}, Emissions: [][]float64{{0.1, 0.9}}},
		},
	}
}

func mustBuild(t *testing.T, l Loader, doc *modelfile.Document) Engine {
	t.Helper()
	if err := modelfile.Validate(doc); err != nil {
		t.Fatalf("validate: %v", err)
	}
	e, err := l.Build(doc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return e
}

func TestDiscreteClassify(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, Loader{}, discreteDoc())
	res, err := e.Classify(context.Background(), &Request{Symbols: []int{1, 1, 1, 1, 0, 1}})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != 1 || res.Label != "loaded" || res.Rejected {
		t.Fatalf("got class %d (%s) rejected=%v", res.Class, res.Label, res.Rejected)
	}
	if sum := res.Probabilities[0] + res.Probabilities[1]; math.Abs(sum-1) > 1e-12 {
		t.Fatalf("probabilities sum to %v", sum)
	}
	if len(res.Path) != 6 {
		t.Fatalf("path length %d", len(res.Path))
	}

	info := e.Info()
	if info.Input != InputSymbols || info.Classes != 2 || info.Symbols != 2 || info.ID != "coins" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestThresholdRejection(t *testing.T) {
	t.Parallel()

	doc := discreteDoc()
	doc.Threshold = &modelfile.HMM{Initial: []float64{1}, Transitions: [][]float64{{1}}, Emissions: [][]float64{{0.99, 0.01}}}
	seq := &Request{Symbols: []int{0, 0, 0, 0}}

	res, err := mustBuild(t, Loader{}, doc).Classify(context.Background(), seq)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !res.Rejected || res.Class != -1 || res.Label != "rejected" || res.Path != nil {
		t.Fatalf("expected rejection, got %+v", res)
	}

	res, err = mustBuild(t, Loader{NoThreshold: true}, doc).Classify(context.Background(), seq)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Rejected || res.Class != 0 {
		t.Fatalf("expected class 0 without threshold, got %+v", res)
	}

	res, err = mustBuild(t, Loader{Sensitivity: 1e-6}, doc).Classify(context.Background(), seq)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Rejected {
		t.Fatalf("low sensitivity should not reject")
	}
}

func TestEvaluateTables(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, Loader{}, discreteDoc())
	ev, err := e.Evaluate(context.Background(), &Request{Symbols: []int{0, 1, 1}, IncludeTables: true})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(ev.Classes) != 2 {
		t.Fatalf("got %d classes", len(ev.Classes))
	}
	want := math.Log(0.1 * 0.9 * 0.9)
	got := ev.Classes[1]
	if math.Abs(got.LogLikelihood-want) > 1e-12 {
		t.Fatalf("log-likelihood %v, want %v", got.LogLikelihood, want)
	}
	if len(got.Forward) != 3 || len(got.Backward) != 3 || len(got.Scaling) != 3 || len(got.Posteriors) != 3 {
		t.Fatalf("missing tables: %+v", got)
	}
	for _, row := range got.Posteriors {
		if math.Abs(row[0]-1) > 1e-12 {
			t.Fatalf("single-state posterior %v", row)
		}
	}

	ev, err = e.Evaluate(context.Background(), &Request{Symbols: []int{0, 1, 1}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.Classes[0].Forward != nil {
		t.Fatalf("tables returned without request")
	}
	if math.Abs(ev.Classes[1].LogLikelihood-want) > 1e-12 {
		t.Fatalf("log-likelihood without tables %v", ev.Classes[1].LogLikelihood)
	}
}

func TestGaussianEngine(t *testing.T) {
	t.Parallel()

	doc := &modelfile.Document{
		Kind: modelfile.KindGaussianClassifier,
		Gaussian: []modelfile.GaussianHMM{
			{Initial: []float64{1}, Transitions: [][]float64{{1}}, Means: [][]float64{{0, 0}}, StdDevs: [][]float64{{1, 1}}},
			{Initial: []float64{1}, Transitions: [][]float64{{1}}, Means: [][]float64{{5, 5}}, StdDevs: [][]float64{{1, 1}}},
		},
	}
	e := mustBuild(t, Loader{}, doc)
	res, err := e.Classify(context.Background(), &Request{Vectors: [][]float64{{4.8, 5.1}, {5.3, 4.9}}})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != 1 || res.Label != "1" {
		t.Fatalf("got class %d label %q", res.Class, res.Label)
	}

	_, err = e.Classify(context.Background(), &Request{Symbols: []int{1}})
	if !errors.Is(err, ErrInput) || !errors.Is(err, potential.ErrInvalidArgument) {
		t.Fatalf("expected input error, got %v", err)
	}
	_, err = e.Classify(context.Background(), &Request{Vectors: [][]float64{{1, 2, 3}}})
	if !errors.Is(err, potential.ErrInvalidArgument) {
		t.Fatalf("expected dimension error, got %v", err)
	}
	if e.Info().Dimensions != 2 || e.Info().Input != InputVectors {
		t.Fatalf("unexpected info %+v", e.Info())
	}
}

func TestHCRFEngineMatchesClassifier(t *testing.T) {
	t.Parallel()

	hmmDoc := discreteDoc()
	models, err := hmmDoc.Discrete()
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	w, err := crf.FromHMMs(models, nil)
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	hcrfDoc := &modelfile.Document{Kind: modelfile.KindHCRF, Labels: hmmDoc.Labels, HCRF: modelfile.FromWeights(w)}

	req := &Request{Symbols: []int{1, 0, 1, 1}, IncludeTables: true}
	want, err := mustBuild(t, Loader{}, hmmDoc).Classify(context.Background(), req)
	if err != nil {
		t.Fatalf("classify hmm: %v", err)
	}
	hcrf := mustBuild(t, Loader{}, hcrfDoc)
	got, err := hcrf.Classify(context.Background(), req)
	if err != nil {
		t.Fatalf("classify hcrf: %v", err)
	}
	if got.Class != want.Class || got.Label != want.Label {
		t.Fatalf("hcrf chose %d, hmm chose %d", got.Class, want.Class)
	}
	for i := range want.Probabilities {
		if math.Abs(got.Probabilities[i]-want.Probabilities[i]) > 1e-10 {
			t.Fatalf("probability %d: %v vs %v", i, got.Probabilities[i], want.Probabilities[i])
		}
	}

	ev, err := hcrf.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(ev.Classes[0].Posteriors) != 4 {
		t.Fatalf("missing posteriors")
	}
}

func TestClassifyErrors(t *testing.T) {
	t.Parallel()

	e := mustBuild(t, Loader{}, discreteDoc())
	if _, err := e.Classify(context.Background(), &Request{}); !errors.Is(err, potential.ErrInvalidArgument) {
		t.Fatalf("expected empty sequence error, got %v", err)
	}
	if _, err := e.Classify(context.Background(), &Request{Symbols: []int{7}}); !errors.Is(err, potential.ErrInvalidArgument) {
		t.Fatalf("expected symbol error, got %v", err)
	}
	if _, err := e.Classify(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil request")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Evaluate(ctx, &Request{Symbols: []int{0}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestEvaluateTablesWithOutlierMatchesPlain(t *testing.T) {
	t.Parallel()

	doc := &modelfile.Document{
		Kind: modelfile.KindGaussianClassifier,
		Gaussian: []modelfile.GaussianHMM{
			{Initial: []float64{1}, Transitions: [][]float64{{1}}, Means: [][]float64{{0}}, StdDevs: [][]float64{{1}}},
		},
	}
	e := mustBuild(t, Loader{}, doc)
	seq := [][]float64{{0}, {40}, {0}}

	plain, err := e.Evaluate(context.Background(), &Request{Vectors: seq})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	tables, err := e.Evaluate(context.Background(), &Request{Vectors: seq, IncludeTables: true})
	if err != nil {
		t.Fatalf("evaluate with tables: %v", err)
	}
	want, got := plain.Classes[0].LogLikelihood, tables.Classes[0].LogLikelihood
	if math.IsInf(got, -1) || math.Abs(want-got) > 1e-9 {
		t.Fatalf("log-likelihood with tables = %v, without = %v", got, want)
	}
	for i, row := range tables.Classes[0].Posteriors {
		if math.Abs(row[0]-1) > 1e-12 {
			t.Fatalf("posterior row %d = %v, want 1", i, row)
		}
	}
}

func TestBuildRejectsMixedAlphabets(t *testing.T) {
	t.Parallel()

	doc := discreteDoc()
	doc.Models[1].Emissions = [][]float64{{0.1, 0.2, 0.7}}
	if _, err := (Loader{}).Build(doc); !errors.Is(err, modelfile.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for mixed alphabet sizes, got %v", err)
	}
}

func TestNilContextIsAnError(t *testing.T) {
	t.Parallel()

	hmmDoc := discreteDoc()
	models, err := hmmDoc.Discrete()
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	w, err := crf.FromHMMs(models, nil)
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	hcrfDoc := &modelfile.Document{Kind: modelfile.KindHCRF, HCRF: modelfile.FromWeights(w)}

	var ctx context.Context
	req := &Request{Symbols: []int{0, 1}}
	for name, e := range map[string]Engine{
		"hmm":  mustBuild(t, Loader{}, hmmDoc),
		"hcrf": mustBuild(t, Loader{}, hcrfDoc),
	} {
		if _, err := e.Classify(ctx, req); err == nil {
			t.Fatalf("%s classify: expected error for nil context", name)
		}
		if _, err := e.Evaluate(ctx, req); err == nil {
			t.Fatalf("%s evaluate: expected error for nil context", name)
		}
	}
}
